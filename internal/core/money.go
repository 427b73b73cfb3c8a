// Package core provides money parsing and handling utilities.
//
// Amounts are exact decimals; nothing in the module converts them to
// floating point.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// AmountPlaces is the number of fractional digits an amount may carry.
	AmountPlaces = 2
	// AmountDigits is the total number of digits an amount may carry.
	AmountDigits = 12
)

// MaxAmount is the exclusive upper bound on amounts.
var MaxAmount = decimal.New(1, AmountDigits-AmountPlaces)

// ParseAmount converts a user-entered decimal string to an exact amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. The
// value must be positive, below MaxAmount and carry at most two fractional
// digits.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,3")   -> 12.30, nil
//	ParseAmount("12.345") -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount checks sign, magnitude and precision of an amount.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() || d.GreaterThanOrEqual(MaxAmount) {
		return ErrInvalidAmount
	}
	if !d.Equal(d.Truncate(AmountPlaces)) {
		return ErrInvalidAmount
	}
	return nil
}

// FormatAmount renders an amount with exactly two fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountPlaces)
}
