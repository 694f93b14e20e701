package trend

import (
	"fmt"
	"testing"
	"time"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = core.NewDate(2024, 6, 14)

func tx(amount int64, d core.Date) Transaction {
	return Transaction{Amount: decimal.NewFromInt(amount), Date: d.String()}
}

func daysAgo(n int) core.Date {
	return today.AddDays(-n)
}

func balances(t *testing.T, s Series) []int64 {
	t.Helper()
	out := make([]int64, len(s))
	for i, p := range s {
		require.True(t, p.Balance.IsInteger(), "balance %s at %d", p.Balance, i)
		out[i] = p.Balance.IntPart()
	}
	return out
}

func TestBuildEmptyLog(t *testing.T) {
	res, err := Build(nil, today, DefaultWindowDays)
	require.NoError(t, err)

	require.Len(t, res.Series, 1)
	assert.Equal(t, "14 Jun", res.Series[0].Label)
	assert.True(t, res.Series[0].Balance.IsZero())
	assert.Equal(t, "2024-06-14", res.Series[0].Date.String())
}

func TestBuildSingleTransactionToday(t *testing.T) {
	res, err := Build([]Transaction{tx(100, today)}, today, 30)
	require.NoError(t, err)

	got := balances(t, res.Series)
	require.Len(t, got, 31)
	for i := 0; i < 30; i++ {
		assert.Zero(t, got[i], "point %d", i)
	}
	assert.Equal(t, int64(100), got[30])
}

func TestBuildRunningBalanceAcrossDays(t *testing.T) {
	txs := []Transaction{tx(-50, daysAgo(5)), tx(200, daysAgo(2))}

	res, err := Build(txs, today, 30)
	require.NoError(t, err)
	got := balances(t, res.Series)
	require.Len(t, got, 31)

	// Index i is (30 - i) days ago.
	for i, b := range got {
		ago := 30 - i
		switch {
		case ago > 5:
			assert.Zero(t, b, "%d days ago", ago)
		case ago >= 3:
			assert.Equal(t, int64(-50), b, "%d days ago", ago)
		default:
			assert.Equal(t, int64(150), b, "%d days ago", ago)
		}
	}
}

func TestBuildExtendsToOldestTransaction(t *testing.T) {
	res, err := Build([]Transaction{tx(10, daysAgo(45))}, today, 30)
	require.NoError(t, err)

	require.Len(t, res.Series, 46)
	assert.Equal(t, daysAgo(45).String(), res.Series[0].Date.String())
	assert.Equal(t, today.String(), res.Series[45].Date.String())
	for _, p := range res.Series {
		assert.True(t, p.Balance.Equal(decimal.NewFromInt(10)))
	}
}

func TestBuildCoversCenturiesOfHistory(t *testing.T) {
	oldest := core.NewDate(1700, 1, 1)
	res, err := Build([]Transaction{tx(10, oldest), tx(5, today)}, today, 30)
	require.NoError(t, err)

	require.Len(t, res.Series, 118503+1)
	assert.Equal(t, oldest.String(), res.Series[0].Date.String())
	last := res.Series[len(res.Series)-1]
	assert.Equal(t, today.String(), last.Date.String())
	assert.True(t, last.Balance.Equal(decimal.NewFromInt(15)))
}

func TestBuildMergesSameDayTransactions(t *testing.T) {
	d := daysAgo(3)
	res, err := Build([]Transaction{tx(30, d), tx(-10, d)}, today, 30)
	require.NoError(t, err)

	got := balances(t, res.Series)
	// One step of +20 on that day, nothing in between.
	assert.Equal(t, int64(0), got[26])
	assert.Equal(t, int64(20), got[27])
	assert.Equal(t, int64(20), got[30])
}

func TestBuildDiscardsTimeOfDay(t *testing.T) {
	txs := []Transaction{
		{Amount: decimal.NewFromInt(5), Date: daysAgo(1).String() + "T23:59:59Z"},
		{Amount: decimal.NewFromInt(7), Date: daysAgo(1).String() + " 00:00:01"},
	}
	res, err := Build(txs, today, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 0, 12, 12}, balances(t, res.Series))
}

func TestBuildSkipsMalformedDates(t *testing.T) {
	txs := []Transaction{
		tx(10, daysAgo(1)),
		{Amount: decimal.NewFromInt(999), Date: "yesterday"},
		{Amount: decimal.NewFromInt(999), Date: ""},
	}
	res, err := Build(txs, today, 7)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, res.Skipped)
	assert.Empty(t, res.Future)
	require.Len(t, res.Series, 8)
	assert.True(t, res.Series[7].Balance.Equal(decimal.NewFromInt(10)))
}

func TestBuildAllMalformedStillCoversWindow(t *testing.T) {
	res, err := Build([]Transaction{{Amount: decimal.NewFromInt(1), Date: "bad"}}, today, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, res.Skipped)
	assert.Equal(t, []int64{0, 0, 0, 0, 0, 0}, balances(t, res.Series))
}

func TestBuildIgnoresFutureTransactions(t *testing.T) {
	txs := []Transaction{tx(40, daysAgo(2)), tx(500, today.AddDays(3))}
	res, err := Build(txs, today, 10)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, res.Future)
	require.Len(t, res.Series, 11)
	assert.Equal(t, today.String(), res.Series[10].Date.String())
	assert.True(t, res.Series[10].Balance.Equal(decimal.NewFromInt(40)))
}

func TestBuildRejectsInvalidWindow(t *testing.T) {
	for _, w := range []int{0, -1, -30} {
		_, err := Build([]Transaction{tx(1, today)}, today, w)
		assert.ErrorIs(t, err, ErrInvalidConfiguration, "window %d", w)

		_, err = NewBuilder(w)
		assert.ErrorIs(t, err, ErrInvalidConfiguration, "window %d", w)
	}
}

func TestBuildWindowOfOneDay(t *testing.T) {
	res, err := Build([]Transaction{tx(3, today)}, today, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 3}, balances(t, res.Series))
	assert.Equal(t, []string{"13 Jun", "14 Jun"}, res.Series.Labels())
}

func TestBuildKeepsDecimalPrecision(t *testing.T) {
	txs := []Transaction{
		{Amount: decimal.RequireFromString("0.10"), Date: today.String()},
		{Amount: decimal.RequireFromString("0.20"), Date: today.String()},
	}
	res, err := Build(txs, today, 1)
	require.NoError(t, err)
	assert.Equal(t, "0.3", res.Series[1].Balance.String())
}

func TestSeriesIsNeverEmpty(t *testing.T) {
	inputs := [][]Transaction{
		nil,
		{},
		{{Amount: decimal.NewFromInt(1), Date: "garbage"}},
		{tx(1, today.AddDays(10))},
		{tx(1, daysAgo(400))},
	}
	for i, txs := range inputs {
		res, err := Build(txs, today, 30)
		require.NoError(t, err)
		assert.NotEmpty(t, res.Series, "input %d", i)
	}
}

func TestSeriesLengthMatchesWindow(t *testing.T) {
	for _, window := range []int{1, 7, 30, 90} {
		txs := []Transaction{tx(1, today), tx(2, daysAgo(window))}
		res, err := Build(txs, today, window)
		require.NoError(t, err)
		assert.Len(t, res.Series, window+1, "window %d", window)
	}
}

func TestSeriesLengthFollowsHistory(t *testing.T) {
	for _, k := range []int{31, 45, 365} {
		res, err := Build([]Transaction{tx(1, daysAgo(k))}, today, 30)
		require.NoError(t, err)
		assert.Len(t, res.Series, k+1, "history %d", k)
	}
}

func TestLastBalanceIsTotalToDate(t *testing.T) {
	txs := []Transaction{
		tx(120, daysAgo(100)),
		tx(-35, daysAgo(12)),
		tx(18, daysAgo(12)),
		tx(-7, today),
		tx(1000, today.AddDays(1)),
	}
	res, err := Build(txs, today, 30)
	require.NoError(t, err)
	assert.True(t, res.Series[len(res.Series)-1].Balance.Equal(decimal.NewFromInt(96)))
}

func TestLabelThinning(t *testing.T) {
	for _, k := range []int{5, 10, 11, 19, 20, 21, 30, 45, 99, 100, 101, 365} {
		t.Run(fmt.Sprintf("%d_days", k+1), func(t *testing.T) {
			res, err := Build([]Transaction{tx(1, daysAgo(k))}, today, 1)
			require.NoError(t, err)
			require.Len(t, res.Series, k+1)

			labelled := 0
			for _, l := range res.Series.Labels() {
				if l != "" {
					labelled++
				}
			}
			if len(res.Series) > maxLabels {
				assert.LessOrEqual(t, labelled, maxLabels)
			} else {
				assert.Equal(t, len(res.Series), labelled)
			}
			assert.NotEmpty(t, res.Series[0].Label, "first day always labelled")
			assert.Len(t, res.Series.Balances(), len(res.Series), "balances are never thinned")
		})
	}
}

func TestLabelThinningStep(t *testing.T) {
	// 31 points -> every 4th day keeps its label.
	res, err := Build([]Transaction{tx(1, today)}, today, 30)
	require.NoError(t, err)
	for i, p := range res.Series {
		if i%4 == 0 {
			assert.Equal(t, ShortLabel(p.Date), p.Label, "index %d", i)
		} else {
			assert.Empty(t, p.Label, "index %d", i)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	txs := []Transaction{tx(5, daysAgo(40)), tx(-2, daysAgo(3)), {Amount: decimal.NewFromInt(1), Date: "x"}}
	a, err := Build(txs, today, 30)
	require.NoError(t, err)
	b, err := Build(txs, today, 30)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuilderUsesClock(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 6, 14, 22, 15, 0, 0, time.UTC) }
	b, err := NewBuilder(7, WithClock(clock))
	require.NoError(t, err)
	assert.Equal(t, 7, b.WindowDays())

	res, err := b.Build([]Transaction{tx(9, today)})
	require.NoError(t, err)
	require.Len(t, res.Series, 8)
	assert.Equal(t, "14 Jun", res.Series[7].Label)
}

func TestShortLabel(t *testing.T) {
	assert.Equal(t, "2 Jan", ShortLabel(core.NewDate(2025, 1, 2)))
	assert.Equal(t, "31 Dec", ShortLabel(core.NewDate(2025, 12, 31)))
}
