package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingTaxRate is returned when a product's tax group has no rate for the run country.
	ErrMissingTaxRate = errors.New("pricing: missing tax rate")
	// ErrUnsupportedReduction indicates an override with an unknown reduction type.
	ErrUnsupportedReduction = errors.New("pricing: unsupported reduction type")
	// ErrInvalidPercentage indicates a percentage reduction that would raise the price.
	ErrInvalidPercentage = errors.New("pricing: percentage reduction increases price")
)

// Error codes carried by PricingConfigError.
const (
	CodeMissingTaxRate       = "missing_tax_rate"
	CodeUnsupportedReduction = "unsupported_reduction"
	CodeInvalidPercentage    = "invalid_percentage"
)

// PricingConfigError is an unrecoverable catalog configuration problem. It aborts
// the whole pricing pass.
type PricingConfigError struct {
	Code       string
	ProductID  int64
	OverrideID int64
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *PricingConfigError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.OverrideID != 0 {
		return fmt.Sprintf("pricing config: product %d, specific price %d: %s", e.ProductID, e.OverrideID, msg)
	}
	return fmt.Sprintf("pricing config: product %d: %s", e.ProductID, msg)
}

// Unwrap allows errors.Is to match the sentinel cause.
func (e *PricingConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsConfigError reports whether err carries a PricingConfigError.
func IsConfigError(err error) bool {
	var target *PricingConfigError
	return errors.As(err, &target)
}

func configError(code string, cause error, productID int64, ov *Override, format string, args ...any) *PricingConfigError {
	e := &PricingConfigError{
		Code:      code,
		ProductID: productID,
		Message:   fmt.Sprintf(format, args...),
		Err:       cause,
	}
	if ov != nil {
		e.OverrideID = ov.ID
	}
	return e
}
