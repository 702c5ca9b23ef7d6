package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TaxTable looks up tax fractions by tax rules group.
type TaxTable struct {
	rates map[int64]decimal.Decimal
}

// NewTaxTable builds a table from the run country's tax rates. A later rate
// for the same group replaces an earlier one.
func NewTaxTable(rates []TaxRate) TaxTable {
	m := make(map[int64]decimal.Decimal, len(rates))
	for _, r := range rates {
		m[r.TaxGroupID] = r.Rate
	}
	return TaxTable{rates: m}
}

// Rate returns the fraction for a tax group.
func (t TaxTable) Rate(groupID int64) (decimal.Decimal, bool) {
	r, ok := t.rates[groupID]
	return r, ok
}

// Len returns the number of known tax groups.
func (t TaxTable) Len() int { return len(t.rates) }

// RateFor returns the product's tax fraction or a PricingConfigError.
func (t TaxTable) RateFor(productID, groupID int64) (decimal.Decimal, error) {
	r, ok := t.Rate(groupID)
	if !ok {
		return decimal.Zero, configError(CodeMissingTaxRate, ErrMissingTaxRate, productID, nil,
			"missing tax info for tax rules group %d", groupID)
	}
	return r, nil
}

// RateFromPercent converts a catalog rate stored in percent (21.000) to a fraction.
func RateFromPercent(percent decimal.Decimal) decimal.Decimal {
	return percent.Div(decimal.NewFromInt(100))
}

func (t TaxTable) String() string {
	return fmt.Sprintf("TaxTable(%d groups)", len(t.rates))
}
