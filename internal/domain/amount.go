package domain

import (
	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal places of the settlement currency.
// One human-readable unit equals 10^AmountScale base units.
const AmountScale = 6

// ParseAmount parses an amount expressed as an integer number of base
// units. Negative amounts are rejected; zero is allowed so thresholds
// can be configured to zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsInteger() || d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ToHuman converts base units to human-readable currency units.
func ToHuman(amount decimal.Decimal) decimal.Decimal {
	return amount.Shift(-AmountScale)
}

// FromHuman converts human-readable currency units to base units.
// Fractions smaller than one base unit are rejected.
func FromHuman(human decimal.Decimal) (decimal.Decimal, error) {
	amount := human.Shift(AmountScale)
	if !amount.IsInteger() || amount.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}
