package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testSnapshot(overrides []Override, rules []CatalogRule) *Snapshot {
	return NewSnapshot(SnapshotConfig{
		Now: testNow,
		Run: RunScope{ShopID: 1, ShopGroupID: 1, CountryID: 16},
		TaxRates: []TaxRate{
			{TaxGroupID: 1, Rate: dec("0.21")},
			{TaxGroupID: 2, Rate: dec("0.20")},
		},
		Overrides:  overrides,
		Rules:      rules,
		Priorities: []string{"id_shop", "id_currency", "id_country", "id_group"},
	})
}

func TestSnapshotResolveNoOverride(t *testing.T) {
	snap := testSnapshot(nil, nil)
	p := Product{ID: 1, BasePrice: dec("100"), TaxGroupID: 2}
	res, err := snap.ResolveProduct(p)
	require.NoError(t, err)
	requireMoney(t, "120", res.Final)
	requireMoney(t, "120", res.BeforeDiscount)
}

func TestSnapshotResolveVariantAddOn(t *testing.T) {
	snap := testSnapshot(nil, nil)
	p := Product{ID: 1, BasePrice: dec("100"), TaxGroupID: 1}
	res, err := snap.ResolveVariant(p, Variant{ID: 10, AddOn: dec("5")})
	require.NoError(t, err)
	requireMoney(t, "127.05", res.Final)
}

func TestSnapshotVariantPromotionAppliesToAdjustedPrice(t *testing.T) {
	snap := testSnapshot([]Override{
		{ID: 1, Product: ID(1), ReductionType: ReductionPercentage, Reduction: dec("0.10")},
	}, nil)
	p := Product{ID: 1, BasePrice: dec("100"), TaxGroupID: 2}
	res, err := snap.ResolveVariant(p, Variant{ID: 10, AddOn: dec("50")})
	require.NoError(t, err)
	// (100+50) * 0.9 * 1.2
	requireMoney(t, "162", res.Final)
	requireMoney(t, "180", res.BeforeDiscount)
}

func TestSnapshotMissingTaxRate(t *testing.T) {
	snap := testSnapshot(nil, nil)
	_, err := snap.ResolveProduct(Product{ID: 77, BasePrice: dec("10"), TaxGroupID: 99})
	require.ErrorIs(t, err, ErrMissingTaxRate)

	var cfgErr *PricingConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, CodeMissingTaxRate, cfgErr.Code)
	require.Equal(t, int64(77), cfgErr.ProductID)
	require.Contains(t, cfgErr.Error(), "product 77")
}

func TestSnapshotExpiredOverrideNeverSelected(t *testing.T) {
	expired := testNow.Add(-time.Minute)
	snap := testSnapshot([]Override{
		{ID: 1, Product: ID(1), To: &expired, ReductionType: ReductionAmount, Reduction: dec("10")},
	}, nil)
	require.Empty(t, snap.Overrides())
	res, err := snap.ResolveProduct(Product{ID: 1, BasePrice: dec("100"), TaxGroupID: 2})
	require.NoError(t, err)
	require.False(t, res.Discounted())
}

func TestSnapshotRuleConditionsBlockGeneratedOverrides(t *testing.T) {
	rules := []CatalogRule{{
		ID:              3,
		ConditionGroups: []ConditionGroup{{ID: 1, Conditions: []Condition{{Type: "category", Value: "12"}}}},
	}}
	snap := testSnapshot([]Override{
		{ID: 1, RuleID: ID(3), ReductionType: ReductionPercentage, Reduction: dec("0.5")},
		{ID: 2, Product: ID(1), ReductionType: ReductionAmount, Reduction: dec("1"), ReductionTaxIncluded: true},
	}, rules)
	require.Len(t, snap.Rules(), 1)

	res, err := snap.ResolveProduct(Product{ID: 1, BasePrice: dec("100"), TaxGroupID: 2})
	require.NoError(t, err)
	requireMoney(t, "119", res.Final)
}

func TestSnapshotExposesRunState(t *testing.T) {
	snap := testSnapshot(nil, nil)
	require.Equal(t, testNow, snap.Now())
	require.Equal(t, int64(1), snap.Run().ShopID)
	require.Equal(t, 2, snap.Taxes().Len())
	require.Equal(t, "id_shop", snap.Priorities()[0])
	rate, ok := snap.Taxes().Rate(1)
	require.True(t, ok)
	requireMoney(t, "0.21", rate)
}

func TestRateFromPercent(t *testing.T) {
	requireMoney(t, "0.21", RateFromPercent(decimal.RequireFromString("21.000")))
}

func TestOrderVariantsDefaultFirst(t *testing.T) {
	in := []Variant{{ID: 1}, {ID: 2}, {ID: 3, Default: true}, {ID: 2}, {ID: 4}}
	got := OrderVariants(in)
	ids := make([]int64, 0, len(got))
	for _, v := range got {
		ids = append(ids, v.ID)
	}
	require.Equal(t, []int64{3, 1, 2, 4}, ids)
	require.Equal(t, int64(1), in[0].ID, "input must not be reordered")
}

func TestOrderVariantsNoDefault(t *testing.T) {
	got := OrderVariants([]Variant{{ID: 5}, {ID: 6}})
	require.Equal(t, int64(5), got[0].ID)
	require.Empty(t, OrderVariants(nil))
}
