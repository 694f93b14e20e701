package trend

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Metrics summarizes the latest movement of a series.
type Metrics struct {
	Current    decimal.Decimal
	Previous   decimal.Decimal
	Percentage decimal.Decimal
}

// Change compares the last point with the one before it.
//
// The divisor falls back to the current balance when the previous one is
// missing or zero, and to 1 when that is zero too, so the percentage is
// always finite.
func Change(s Series) Metrics {
	m := Metrics{Current: decimal.Zero, Previous: decimal.NewFromInt(1), Percentage: decimal.Zero}
	if len(s) == 0 {
		return m
	}
	m.Current = s[len(s)-1].Balance

	switch {
	case len(s) >= 2 && !s[len(s)-2].Balance.IsZero():
		m.Previous = s[len(s)-2].Balance
	case !m.Current.IsZero():
		m.Previous = m.Current
	}

	m.Percentage = m.Current.Sub(m.Previous).Div(m.Previous).Mul(hundred)
	return m
}
