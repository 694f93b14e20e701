// Package core provides money parsing and handling utilities.
//
// Amounts are signed decimals: positive values are income, negative values
// are expenses. Storage keeps them as integer cents.
package core

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a user has no currency or an unknown one.
const DefaultCurrency = "USD"

// Amounts travel as JSON numbers, as the front end does arithmetic on them.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseAmount converts a decimal string to an amount rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. When both
// appear, commas are treated as thousands separators (1,234.50).
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("-5")     -> -5
//	ParseAmount("12,345") -> 12.35 (half-up)
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// ToCents converts an amount to integer cents, rounding half away from zero.
func ToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// FromCents converts integer cents back to an amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatAmount renders an amount in the given ISO currency, e.g. "$1,234.50".
// Unknown currency codes fall back to DefaultCurrency.
func FormatAmount(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	cur := money.GetCurrency(code)
	if cur == nil {
		code = DefaultCurrency
		cur = money.GetCurrency(code)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, code).Display()
}
