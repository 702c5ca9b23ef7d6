package pricing

import (
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Resolve computes the tax-inclusive final and pre-discount prices for
// base+addOn under taxRate, applying ov when it is non-nil.
func Resolve(base, addOn, taxRate decimal.Decimal, ov *Override) (ResolvedPrice, error) {
	return resolve(0, base, addOn, taxRate, ov)
}

func resolve(productID int64, base, addOn, taxRate decimal.Decimal, ov *Override) (ResolvedPrice, error) {
	amount := base.Add(addOn)
	multiplier := one.Add(taxRate)
	before := amount.Mul(multiplier)
	if ov == nil {
		return ResolvedPrice{Final: before, BeforeDiscount: before}, nil
	}

	var final decimal.Decimal
	switch ov.ReductionType {
	case ReductionPercentage:
		reduced := amount.Mul(one.Sub(ov.Reduction))
		// a fraction above 1 drives the price negative
		if reduced.GreaterThan(amount) || ov.Reduction.GreaterThan(one) {
			return ResolvedPrice{}, configError(CodeInvalidPercentage, ErrInvalidPercentage, productID, ov,
				"bad percentage %s reduces %s to %s", ov.Reduction, amount, reduced)
		}
		final = reduced.Mul(multiplier)
	case ReductionAmount:
		if ov.ReductionTaxIncluded {
			final = before.Sub(ov.Reduction)
		} else {
			final = amount.Sub(ov.Reduction).Mul(multiplier)
		}
	default:
		return ResolvedPrice{}, configError(CodeUnsupportedReduction, ErrUnsupportedReduction, productID, ov,
			"reduction type %q is not supported", string(ov.ReductionType))
	}
	return ResolvedPrice{Final: final, BeforeDiscount: before}, nil
}
