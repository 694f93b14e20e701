// Package trend derives a daily running-balance series from a transaction log.
//
// The series covers every calendar day from the earliest transaction (or the
// start of the trailing window, whichever is earlier) through today, so a
// chart can plot it without gaps. Building is pure and safe for concurrent use.
package trend

import (
	"errors"
	"fmt"
	"time"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
)

// DefaultWindowDays is the trailing window shown when nothing else is asked for.
const DefaultWindowDays = 30

// maxLabels bounds the number of non-blank axis labels in a series.
const maxLabels = 10

// ErrInvalidConfiguration is returned for a window shorter than one day.
var ErrInvalidConfiguration = errors.New("invalid trend configuration")

// Transaction is the raw input of the builder. Date is the transaction_date
// exactly as received; it may carry a time part.
type Transaction struct {
	Amount decimal.Decimal
	Date   string
}

// DailyPoint is the running balance at the end of one day. Label is blank on
// days thinned out of the axis.
type DailyPoint struct {
	Date    core.Date
	Label   string
	Balance decimal.Decimal
}

// Series is ascending by date with exactly one point per day. Never empty.
type Series []DailyPoint

// Result carries the series and the indices of inputs that did not count.
type Result struct {
	Series Series
	// Skipped lists inputs whose date could not be parsed.
	Skipped []int
	// Future lists inputs dated after today.
	Future []int
}

// Build computes the running balance for each day up to today.
//
// A zero today means the current local day. windowDays below 1 is rejected
// with ErrInvalidConfiguration. An empty log yields a single zero point for
// today. Malformed and future-dated transactions contribute nothing and are
// reported in the result.
func Build(txs []Transaction, today core.Date, windowDays int) (Result, error) {
	if windowDays < 1 {
		return Result{}, fmt.Errorf("%w: window must be at least 1 day, got %d", ErrInvalidConfiguration, windowDays)
	}
	if today.IsZero() {
		today = core.Today()
	} else {
		today = core.DateOf(today.Time)
	}

	if len(txs) == 0 {
		return Result{Series: Series{{Date: today, Label: ShortLabel(today), Balance: decimal.Zero}}}, nil
	}

	var res Result
	start := today.AddDays(-windowDays)
	deltas := make(map[string]decimal.Decimal)
	for i, tx := range txs {
		day, err := core.ParseDate(tx.Date)
		if err != nil {
			res.Skipped = append(res.Skipped, i)
			continue
		}
		if day.After(today) {
			res.Future = append(res.Future, i)
			continue
		}
		if day.Before(start) {
			start = day
		}
		key := day.String()
		deltas[key] = deltas[key].Add(tx.Amount)
	}

	numDays := today.DaysSince(start) + 1
	step := 1
	if numDays > maxLabels {
		step = (numDays + maxLabels - 1) / maxLabels
	}

	res.Series = make(Series, 0, numDays)
	running := decimal.Zero
	for i := 0; i < numDays; i++ {
		day := start.AddDays(i)
		running = running.Add(deltas[day.String()])
		point := DailyPoint{Date: day, Balance: running}
		if i%step == 0 {
			point.Label = ShortLabel(day)
		}
		res.Series = append(res.Series, point)
	}
	return res, nil
}

// ShortLabel renders a day as "14 Jun".
func ShortLabel(d core.Date) string {
	return d.Format("2 Jan")
}

// Builder fixes the window and the clock for repeated builds.
type Builder struct {
	windowDays int
	now        func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock replaces time.Now as the source of "today".
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder returns a Builder for windowDays, which must be at least 1.
func NewBuilder(windowDays int, opts ...Option) (*Builder, error) {
	if windowDays < 1 {
		return nil, fmt.Errorf("%w: window must be at least 1 day, got %d", ErrInvalidConfiguration, windowDays)
	}
	b := &Builder{windowDays: windowDays, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// WindowDays returns the trailing window the builder was created with.
func (b *Builder) WindowDays() int {
	return b.windowDays
}

// Build runs Build for the builder's window with today taken from its clock.
func (b *Builder) Build(txs []Transaction) (Result, error) {
	return Build(txs, core.DateOf(b.now()), b.windowDays)
}

// Balances returns the balance column of the series.
func (s Series) Balances() []decimal.Decimal {
	out := make([]decimal.Decimal, len(s))
	for i, p := range s {
		out[i] = p.Balance
	}
	return out
}

// Labels returns the label column of the series, blanks included.
func (s Series) Labels() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Label
	}
	return out
}
