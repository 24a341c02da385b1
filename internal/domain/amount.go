package domain

import "math"

// MaxAmount bounds every quantity, rate and money figure, and the value of a
// single line, so that project totals stay finite.
const MaxAmount = 1e15

// ValidateAmount rejects NaN, infinities, negative values and values above
// MaxAmount.
func ValidateAmount(field string, v float64) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return Invalidf("%s must be a finite number, got %g", field, v)
	case v < 0:
		return Invalidf("%s must not be negative, got %g", field, v)
	case v > MaxAmount:
		return Invalidf("%s must not exceed %g, got %g", field, MaxAmount, v)
	}
	return nil
}

// ValidateLine checks a quantity, a unit price and their product.
func ValidateLine(quantity, unitPrice float64) error {
	if err := ValidateAmount("quantity", quantity); err != nil {
		return err
	}
	if err := ValidateAmount("unit price", unitPrice); err != nil {
		return err
	}
	if v := quantity * unitPrice; v > MaxAmount {
		return Invalidf("line value %g × %g exceeds %g", quantity, unitPrice, MaxAmount)
	}
	return nil
}
