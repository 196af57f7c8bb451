// Package core provides the household-finance domain types.
//
// This file contains amount parsing and formatting helpers shared by the
// HTTP layer and the exporters.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currencies supported for account denomination and display conversion.
var SupportedCurrencies = []string{
	"EUR", "USD", "GBP", "JPY", "CHF", "AUD", "CAD", "XPF", "CNY",
}

// zeroDecimalCurrencies have no minor unit and are formatted without cents.
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"XPF": true,
}

// SupportedCurrency reports whether code is a known currency.
func SupportedCurrency(code string) bool {
	for _, c := range SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

// ParseAmount converts a user-supplied decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rejects negative or zero values; the sign of an entry lives in its
// Direction, never in the amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with the conventional number of decimal
// places for the currency (two, except for zero-decimal currencies).
func FormatAmount(amount decimal.Decimal, currency string) string {
	if zeroDecimalCurrencies[currency] {
		return amount.StringFixed(0)
	}
	return amount.StringFixed(2)
}
