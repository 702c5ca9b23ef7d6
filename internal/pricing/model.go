package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReductionType is the shape of a promotional discount.
type ReductionType string

const (
	// ReductionPercentage reduces the price by a fraction (0.10 for 10%).
	ReductionPercentage ReductionType = "percentage"
	// ReductionAmount subtracts a fixed money amount.
	ReductionAmount ReductionType = "amount"
)

// TaxRate maps a tax rules group to its rate as a fraction (0.20 for 20%).
type TaxRate struct {
	TaxGroupID int64
	Rate       decimal.Decimal
}

// RunScope is the shop/country configuration of one export run.
type RunScope struct {
	ShopID      int64
	ShopGroupID int64
	CountryID   int64
}

// Condition is a single named predicate inside a condition group.
type Condition struct {
	Type  string
	Value string
}

// ConditionGroup holds conditions that must all hold.
type ConditionGroup struct {
	ID         int64
	Conditions []Condition
}

// Holds evaluates the group. Category and manufacturer conditions are not
// evaluated yet, so only an empty group holds.
func (g ConditionGroup) Holds(PricingContext) bool {
	return len(g.Conditions) == 0
}

// Override is a specific price: a promotional modifier scoped to a product.
type Override struct {
	ID            int64
	RuleID        Scope
	Shop          Scope
	ShopGroup     Scope
	Currency      Scope
	Country       Scope
	CustomerGroup Scope
	Customer      Scope
	Cart          Scope
	Product       Scope
	Variant       Scope

	FromQuantity int
	From         *time.Time
	To           *time.Time

	ReductionType        ReductionType
	Reduction            decimal.Decimal
	ReductionTaxIncluded bool

	// Price is read from the catalog but never used by the reduction formula.
	Price decimal.Decimal

	// Conditions are inherited from the owning catalog rule, if any.
	Conditions []ConditionGroup
}

// Eligibility implements Entry.
func (o Override) Eligibility() Eligibility {
	return Eligibility{
		Shop:          o.Shop,
		ShopGroup:     o.ShopGroup,
		Country:       o.Country,
		CustomerGroup: o.CustomerGroup,
		Customer:      o.Customer,
		Cart:          o.Cart,
		FromQuantity:  o.FromQuantity,
		From:          o.From,
		To:            o.To,
	}
}

func (o Override) conditioned() bool {
	for _, g := range o.Conditions {
		if len(g.Conditions) > 0 {
			return true
		}
	}
	return false
}

// CatalogRule is a specific price rule, meant to apply through condition groups
// rather than an explicit product id.
type CatalogRule struct {
	ID            int64
	Name          string
	Shop          Scope
	ShopGroup     Scope
	Currency      Scope
	Country       Scope
	CustomerGroup Scope

	FromQuantity int
	From         *time.Time
	To           *time.Time

	ReductionType        ReductionType
	Reduction            decimal.Decimal
	ReductionTaxIncluded bool
	Price                decimal.Decimal

	ConditionGroups []ConditionGroup
}

// Eligibility implements Entry.
func (r CatalogRule) Eligibility() Eligibility {
	return Eligibility{
		Shop:          r.Shop,
		ShopGroup:     r.ShopGroup,
		Country:       r.Country,
		CustomerGroup: r.CustomerGroup,
		FromQuantity:  r.FromQuantity,
		From:          r.From,
		To:            r.To,
	}
}

// Matches reports whether any condition group holds for ctx. Groups carrying
// conditions never hold, so a rule with conditions never matches.
func (r CatalogRule) Matches(ctx PricingContext) bool {
	for _, g := range r.ConditionGroups {
		if len(g.Conditions) > 0 {
			return false
		}
	}
	for _, g := range r.ConditionGroups {
		if g.Holds(ctx) {
			return true
		}
	}
	return false
}

// Variant is a product combination with an optional price delta.
type Variant struct {
	ID      int64
	AddOn   decimal.Decimal
	Default bool
}

// Product is the pricing view of a catalog product.
type Product struct {
	ID         int64
	BasePrice  decimal.Decimal
	TaxGroupID int64
	Variants   []Variant
}

// PricingContext is the product or variant being priced. Customer-facing
// scopes stay wildcards in an anonymous batch export.
type PricingContext struct {
	ProductID     int64
	VariantID     Scope
	BasePrice     decimal.Decimal
	AddOn         decimal.Decimal
	TaxGroupID    int64
	Currency      Scope
	Country       Scope
	Customer      Scope
	CustomerGroup Scope
	Cart          Scope
}

// Context returns the batch pricing context for the product itself.
func (p Product) Context() PricingContext {
	return PricingContext{
		ProductID:  p.ID,
		BasePrice:  p.BasePrice,
		TaxGroupID: p.TaxGroupID,
	}
}

// VariantContext returns the batch pricing context for one of the product's variants.
func (p Product) VariantContext(v Variant) PricingContext {
	ctx := p.Context()
	ctx.VariantID = ID(v.ID)
	ctx.AddOn = v.AddOn
	return ctx
}

// ResolvedPrice is the tax-inclusive outcome of resolution.
type ResolvedPrice struct {
	Final          decimal.Decimal
	BeforeDiscount decimal.Decimal
}

// Discounted reports whether the final price differs from the pre-discount
// price. A negative amount reduction is a surcharge and still counts.
func (r ResolvedPrice) Discounted() bool {
	return !r.Final.Equal(r.BeforeDiscount)
}
