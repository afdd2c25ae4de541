package ir

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxAmountScale is the finest unit an amount may carry (wei precision).
const MaxAmountScale = 18

// ParseAmount parses a decimal amount such as "0.1".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

// MustAmount is like ParseAmount but panics on error.
// Use only in tests or for constants.
func MustAmount(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ValidDeposit reports whether d can be locked as a deposit:
// strictly positive and no finer than MaxAmountScale decimals.
func ValidDeposit(d decimal.Decimal) bool {
	if !d.IsPositive() {
		return false
	}
	return d.Equal(d.Truncate(MaxAmountScale))
}

// FormatAmount renders an amount without trailing zeros ("0.1", "2").
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}
