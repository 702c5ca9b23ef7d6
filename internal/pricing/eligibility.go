package pricing

import (
	"sort"
	"time"
)

// Eligibility is the run-scoping view shared by overrides and catalog rules.
type Eligibility struct {
	Shop          Scope
	ShopGroup     Scope
	Country       Scope
	CustomerGroup Scope
	Customer      Scope
	Cart          Scope
	FromQuantity  int
	From          *time.Time
	To            *time.Time
}

// Entry is a promotional entry subject to the eligibility filter.
type Entry interface {
	Eligibility() Eligibility
}

// IsEligible reports whether entry is in scope for run at instant now.
func IsEligible(entry Entry, now time.Time, run RunScope) bool {
	e := entry.Eligibility()
	if e.FromQuantity > 1 {
		return false
	}
	if !InWindow(e.From, e.To, now) {
		return false
	}
	// batch export is anonymous
	if e.Customer.IsSet() || e.CustomerGroup.IsSet() || e.Cart.IsSet() {
		return false
	}
	return e.Shop.AdmitsID(run.ShopID) &&
		e.ShopGroup.AdmitsID(run.ShopGroupID) &&
		e.Country.AdmitsID(run.CountryID)
}

// InWindow evaluates the half-open window [from, to) with nil bounds unbounded.
// The lower bound is exclusive to the instant itself: from must lie strictly
// before now.
func InWindow(from, to *time.Time, now time.Time) bool {
	if from != nil && !from.Before(now) {
		return false
	}
	if to != nil && !now.Before(*to) {
		return false
	}
	return true
}

// FilterOverrides returns the eligible overrides ordered by id ascending.
func FilterOverrides(overrides []Override, now time.Time, run RunScope) []Override {
	out := make([]Override, 0, len(overrides))
	for _, ov := range overrides {
		if IsEligible(ov, now, run) {
			out = append(out, ov)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FilterRules returns the eligible catalog rules ordered by id ascending.
func FilterRules(rules []CatalogRule, now time.Time, run RunScope) []CatalogRule {
	out := make([]CatalogRule, 0, len(rules))
	for _, r := range rules {
		if IsEligible(r, now, run) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
