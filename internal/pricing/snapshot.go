package pricing

import (
	"time"
)

// SnapshotConfig groups the materialized inputs of a pricing pass.
type SnapshotConfig struct {
	Now       time.Time
	Run       RunScope
	TaxRates  []TaxRate
	Overrides []Override
	Rules     []CatalogRule
	// Priorities is the shop's configured specific price priority order. It is
	// kept for reference; matching uses load order.
	Priorities []string
}

// Snapshot is the immutable per-run pricing state. It is safe to share between
// goroutines because nothing mutates it after NewSnapshot returns.
type Snapshot struct {
	now        time.Time
	run        RunScope
	taxes      TaxTable
	overrides  []Override
	rules      []CatalogRule
	priorities []string
}

// NewSnapshot filters the raw collections against cfg.Now and cfg.Run once.
// Overrides created by a catalog rule inherit that rule's condition groups.
func NewSnapshot(cfg SnapshotConfig) *Snapshot {
	groups := make(map[int64][]ConditionGroup, len(cfg.Rules))
	for _, r := range cfg.Rules {
		if len(r.ConditionGroups) > 0 {
			groups[r.ID] = r.ConditionGroups
		}
	}
	overrides := make([]Override, 0, len(cfg.Overrides))
	for _, ov := range cfg.Overrides {
		if id, ok := ov.RuleID.Value(); ok && len(ov.Conditions) == 0 {
			ov.Conditions = groups[id]
		}
		overrides = append(overrides, ov)
	}
	return &Snapshot{
		now:        cfg.Now,
		run:        cfg.Run,
		taxes:      NewTaxTable(cfg.TaxRates),
		overrides:  FilterOverrides(overrides, cfg.Now, cfg.Run),
		rules:      FilterRules(cfg.Rules, cfg.Now, cfg.Run),
		priorities: append([]string(nil), cfg.Priorities...),
	}
}

// Now returns the single instant the pass is evaluated at.
func (s *Snapshot) Now() time.Time { return s.now }

// Run returns the run scope.
func (s *Snapshot) Run() RunScope { return s.run }

// Taxes returns the tax table.
func (s *Snapshot) Taxes() TaxTable { return s.taxes }

// Overrides returns the eligible overrides in load order.
func (s *Snapshot) Overrides() []Override { return s.overrides }

// Rules returns the eligible catalog rules. They never take part in resolution.
func (s *Snapshot) Rules() []CatalogRule { return s.rules }

// Priorities returns the configured specific price priority order.
func (s *Snapshot) Priorities() []string { return s.priorities }

// ResolveProduct prices the product itself.
func (s *Snapshot) ResolveProduct(p Product) (ResolvedPrice, error) {
	return s.resolveContext(p.Context())
}

// ResolveVariant prices one variant. The variant's delta is added to the base
// price before matching and tax, so promotions apply to the adjusted price.
func (s *Snapshot) ResolveVariant(p Product, v Variant) (ResolvedPrice, error) {
	return s.resolveContext(p.VariantContext(v))
}

func (s *Snapshot) resolveContext(ctx PricingContext) (ResolvedPrice, error) {
	rate, err := s.taxes.RateFor(ctx.ProductID, ctx.TaxGroupID)
	if err != nil {
		return ResolvedPrice{}, err
	}
	var matched *Override
	if ov, ok := MatchOverride(ctx, s.overrides); ok {
		matched = &ov
	}
	return resolve(ctx.ProductID, ctx.BasePrice, ctx.AddOn, rate, matched)
}
