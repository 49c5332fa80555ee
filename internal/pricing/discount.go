// Package pricing applies percentage discounts using fixed-point decimals.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Cents is the number of decimal places prices are rounded to.
const Cents = 2

var hundred = decimal.NewFromInt(100)

var (
	// ErrNegativePrice is returned for prices below zero.
	ErrNegativePrice = errors.New("price must not be negative")

	// ErrInvalidPercentage is returned for discounts outside [0, 100].
	ErrInvalidPercentage = errors.New("discount percentage must be between 0 and 100")
)

// Quote is the result of applying a discount to a price.
// Original == Final + Savings always holds.
type Quote struct {
	Original decimal.Decimal
	Final    decimal.Decimal
	Savings  decimal.Decimal
}

// Apply computes finalPrice = price * (1 - pct/100) and savings = price - finalPrice.
// The final price is rounded half away from zero to cents and savings is derived
// from it, so rounding never creates or loses a cent.
func Apply(price, pct decimal.Decimal) (Quote, error) {
	if price.IsNegative() {
		return Quote{}, ErrNegativePrice
	}
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return Quote{}, ErrInvalidPercentage
	}

	original := price.Round(Cents)
	final := original.Mul(hundred.Sub(pct)).Div(hundred).Round(Cents)

	return Quote{
		Original: original,
		Final:    final,
		Savings:  original.Sub(final),
	}, nil
}

// Format renders an amount with exactly two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Cents)
}
