package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := testNow.Add(d)
	return &t
}

func TestIsEligibleWindow(t *testing.T) {
	run := RunScope{ShopID: 1, ShopGroupID: 1, CountryID: 56}
	cases := []struct {
		name string
		from *time.Time
		to   *time.Time
		want bool
	}{
		{"unbounded", nil, nil, true},
		{"inside", at(-time.Hour), at(time.Hour), true},
		{"open start", nil, at(time.Hour), true},
		{"open end", at(-time.Hour), nil, true},
		{"ended exactly now", at(-time.Hour), at(0), false},
		{"ended", at(-2 * time.Hour), at(-time.Hour), false},
		{"not started", at(time.Hour), nil, false},
		{"starts exactly now", at(0), nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ov := Override{From: tc.from, To: tc.to}
			require.Equal(t, tc.want, IsEligible(ov, testNow, run))
		})
	}
}

func TestIsEligibleShopScope(t *testing.T) {
	wildcard := Override{Shop: Any()}
	scoped := Override{Shop: ID(5)}
	for _, shop := range []int64{1, 5, 42} {
		require.True(t, IsEligible(wildcard, testNow, RunScope{ShopID: shop}))
	}
	require.True(t, IsEligible(scoped, testNow, RunScope{ShopID: 5}))
	require.False(t, IsEligible(scoped, testNow, RunScope{ShopID: 1}))
}

func TestIsEligibleShopGroupAndCountry(t *testing.T) {
	run := RunScope{ShopID: 1, ShopGroupID: 2, CountryID: 56}
	require.True(t, IsEligible(Override{ShopGroup: ID(2), Country: ID(56)}, testNow, run))
	require.False(t, IsEligible(Override{ShopGroup: ID(3)}, testNow, run))
	require.False(t, IsEligible(Override{Country: ID(8)}, testNow, run))
}

func TestIsEligibleExcludesCustomerScopes(t *testing.T) {
	run := RunScope{ShopID: 1}
	require.False(t, IsEligible(Override{Customer: ID(7)}, testNow, run))
	require.False(t, IsEligible(Override{CustomerGroup: ID(3)}, testNow, run))
	require.False(t, IsEligible(Override{Cart: ID(11)}, testNow, run))
}

func TestIsEligibleQuantity(t *testing.T) {
	run := RunScope{ShopID: 1}
	require.True(t, IsEligible(Override{FromQuantity: 0}, testNow, run))
	require.True(t, IsEligible(Override{FromQuantity: 1}, testNow, run))
	require.False(t, IsEligible(Override{FromQuantity: 2}, testNow, run))
}

func TestIsEligibleCatalogRule(t *testing.T) {
	run := RunScope{ShopID: 1, CountryID: 56}
	require.True(t, IsEligible(CatalogRule{Shop: ID(1)}, testNow, run))
	require.False(t, IsEligible(CatalogRule{CustomerGroup: ID(1)}, testNow, run))
	require.False(t, IsEligible(CatalogRule{To: at(-time.Minute)}, testNow, run))
}

func TestFilterOverridesSortsByID(t *testing.T) {
	overrides := []Override{
		{ID: 30},
		{ID: 10},
		{ID: 20, Customer: ID(1)},
		{ID: 15, To: at(-time.Second)},
		{ID: 5},
	}
	got := FilterOverrides(overrides, testNow, RunScope{ShopID: 1})
	ids := make([]int64, 0, len(got))
	for _, ov := range got {
		ids = append(ids, ov.ID)
	}
	require.Equal(t, []int64{5, 10, 30}, ids)
}

func TestScopeFromSentinel(t *testing.T) {
	require.False(t, ScopeFromSentinel(0).IsSet())
	v, ok := ScopeFromSentinel(4).Value()
	require.True(t, ok)
	require.Equal(t, int64(4), v)
	require.Equal(t, "*", Any().String())
	require.Equal(t, "4", ID(4).String())
}
