package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{"plain day", "2024-06-14", NewDate(2024, 6, 14), false},
		{"rfc3339 keeps written day", "2024-06-14T23:30:00-05:00", NewDate(2024, 6, 14), false},
		{"rfc3339 utc", "2024-06-14T08:00:00Z", NewDate(2024, 6, 14), false},
		{"space separated time", "2024-06-14 10:11:12", NewDate(2024, 6, 14), false},
		{"surrounding whitespace", "  2024-01-02 ", NewDate(2024, 1, 2), false},
		{"empty", "", Date{}, true},
		{"garbage", "not-a-date", Date{}, true},
		{"impossible day", "2024-02-30", Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want.Time), "got %s want %s", got, tt.want)
		})
	}
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, 2, 28)
	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, "2024-01-29", d.AddDays(-30).String())
	assert.Equal(t, 30, d.DaysSince(d.AddDays(-30)))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.After(d.AddDays(-1)))
	assert.Equal(t, 118503, d.AddDays(107).DaysSince(NewDate(1700, 1, 1)))
	assert.Equal(t, -30, d.AddDays(-30).DaysSince(d))
}

func TestValidateTransactionDate(t *testing.T) {
	today := NewDate(2024, 6, 14)
	tests := []struct {
		name    string
		date    Date
		wantErr error
	}{
		{"today", today, nil},
		{"first accepted day", NewDate(1900, 1, 1), nil},
		{"ten years ahead", NewDate(2034, 6, 14), nil},
		{"before 1900", NewDate(1899, 12, 31), ErrDateOutOfRange},
		{"year one", NewDate(1, 1, 2), ErrDateOutOfRange},
		{"too far ahead", NewDate(2034, 6, 15), ErrDateOutOfRange},
		{"zero", Date{}, ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransactionDate(tt.date, today)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Date  `json:"d"`
		P *Date `json:"p"`
	}{D: NewDate(2025, 3, 9)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2025-03-09","p":null}`, string(b))

	var got struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2025-03-09T12:00:00Z"}`), &got))
	assert.Equal(t, "2025-03-09", got.D.String())
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Amount:          decimal.RequireFromString("-12.50"),
		Description:     "Lunch",
		TransactionDate: NewDate(2025, 1, 1),
	}
	require.NoError(t, good.Validate())

	bads := map[string]struct {
		mutate func(*Transaction)
		err    error
	}{
		"zero amount": {func(tx *Transaction) { tx.Amount = decimal.Zero }, ErrInvalidAmount},
		"blank desc":  {func(tx *Transaction) { tx.Description = "   " }, ErrEmptyDescription},
		"long desc":   {func(tx *Transaction) { tx.Description = string(make([]byte, 201)) + "x" }, ErrDescriptionTooLong},
		"zero date":   {func(tx *Transaction) { tx.TransactionDate = Date{} }, ErrInvalidDate},
	}
	for name, tc := range bads {
		t.Run(name, func(t *testing.T) {
			tx := good
			tc.mutate(&tx)
			assert.ErrorIs(t, tx.Validate(), tc.err)
		})
	}
}

func TestBudgetPeriodStart(t *testing.T) {
	friday := NewDate(2026, 10, 16)
	assert.Equal(t, "2026-10-12", PeriodWeekly.Start(friday).String())
	assert.Equal(t, "2026-10-01", PeriodMonthly.Start(friday).String())
	assert.Equal(t, "2026-01-01", PeriodYearly.Start(friday).String())

	monday := NewDate(2026, 10, 12)
	assert.Equal(t, "2026-10-12", PeriodWeekly.Start(monday).String())
}

func TestParseBudgetPeriod(t *testing.T) {
	p, err := ParseBudgetPeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonthly, p)

	p, err = ParseBudgetPeriod(" Weekly ")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeekly, p)

	_, err = ParseBudgetPeriod("daily")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestSavingsGoalProgress(t *testing.T) {
	g := SavingsGoal{Name: "Bike", TargetAmount: decimal.NewFromInt(200), CurrentAmount: decimal.NewFromInt(50)}
	assert.True(t, g.Progress().Equal(decimal.NewFromInt(25)))
	assert.False(t, g.Reached())

	g.CurrentAmount = decimal.NewFromInt(250)
	assert.True(t, g.Progress().Equal(decimal.NewFromInt(100)))
	assert.True(t, g.Reached())

	assert.ErrorIs(t, SavingsGoal{Name: "x"}.Validate(), ErrInvalidAmount)
	assert.ErrorIs(t, SavingsGoal{TargetAmount: decimal.NewFromInt(1)}.Validate(), ErrEmptyName)
}

func TestValidateEmail(t *testing.T) {
	for _, ok := range []string{"a@b.co", "first.last@example.com"} {
		assert.NoError(t, ValidateEmail(ok), ok)
	}
	for _, bad := range []string{"", "nobody", "@example.com", "a@", "a@localhost", "a b@c.d"} {
		assert.ErrorIs(t, ValidateEmail(bad), ErrInvalidEmail, bad)
	}
}

func TestLookupIcon(t *testing.T) {
	assert.Equal(t, IconTrophy, LookupIcon("trophy"))
	assert.Equal(t, IconAward, LookupIcon("rocket"))
	assert.Equal(t, IconAward, LookupIcon(""))
}

func TestNewAchievement(t *testing.T) {
	a := NewAchievement(7, AchievementFirstTransaction)
	assert.Equal(t, int64(7), a.UserID)
	assert.Equal(t, "First Transaction", a.Name)
	assert.Equal(t, IconStar, a.Icon)

	unknown := NewAchievement(7, AchievementCode("mystery"))
	assert.Equal(t, "mystery", unknown.Name)
	assert.Equal(t, IconAward, unknown.Icon)
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "Groceries", NormalizeCategory(" groceries."))
	assert.Equal(t, "Salary", NormalizeCategory("SALARY"))
	assert.Equal(t, CategoryOther, NormalizeCategory("Crypto"))
}

func TestGroupNotificationsByDate(t *testing.T) {
	day1 := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 1, 3, 18, 0, 0, 0, time.UTC)
	ns := []Notification{
		{ID: 1, Message: "old", CreatedAt: day1},
		{ID: 2, Message: "newest", CreatedAt: day2.Add(time.Hour)},
		{ID: 3, Message: "same day", CreatedAt: day1.Add(2 * time.Hour)},
		{ID: 4, Message: "new", CreatedAt: day2},
	}

	groups := GroupNotificationsByDate(ns)
	require.Len(t, groups, 2)
	assert.Equal(t, "January 3, 2025", groups[0].Date)
	assert.Equal(t, "January 2, 2025", groups[1].Date)
	assert.Equal(t, []int64{2, 4}, ids(groups[0].Notifications))
	assert.Equal(t, []int64{3, 1}, ids(groups[1].Notifications))

	assert.Empty(t, GroupNotificationsByDate(nil))
}

func ids(ns []Notification) []int64 {
	out := make([]int64, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.ID)
	}
	return out
}

func TestParseInsights(t *testing.T) {
	text := "1. Spending on Food rose.\n\n- Save 10% more\n  2.   Review subscriptions  \nPlain line\n   \n"
	assert.Equal(t, []string{
		"Spending on Food rose.",
		"Save 10% more",
		"Review subscriptions",
		"Plain line",
	}, ParseInsights(text))
	assert.Empty(t, ParseInsights(""))
}

func TestSummarize(t *testing.T) {
	txs := []Transaction{
		{Amount: decimal.NewFromInt(1000), Category: "Salary", TransactionDate: NewDate(2025, 1, 1)},
		{Amount: decimal.RequireFromString("-45.50"), Category: "Food", TransactionDate: NewDate(2025, 1, 5)},
		{Amount: decimal.RequireFromString("-4.50"), Category: "Food", TransactionDate: NewDate(2024, 12, 30)},
		{Amount: decimal.NewFromInt(-200), Category: "", TransactionDate: NewDate(2025, 1, 3)},
	}

	summary, cats := Summarize(txs)
	assert.Equal(t, "Dec 30, 2024 - Jan 5, 2025", summary.Period)
	assert.True(t, summary.TotalIncome.Equal(decimal.NewFromInt(1000)))
	assert.True(t, summary.TotalExpenses.Equal(decimal.NewFromInt(250)))
	assert.True(t, summary.NetBalance.Equal(decimal.NewFromInt(750)))

	require.Len(t, cats, 3)
	assert.Equal(t, "Salary", cats[0].Name)
	assert.Equal(t, CategoryTypeIncome, cats[0].Type)
	assert.Equal(t, CategoryOther, cats[1].Name)
	assert.Equal(t, "Food", cats[2].Name)
	assert.Equal(t, CategoryTypeExpense, cats[2].Type)
	assert.True(t, cats[2].Amount.Equal(decimal.NewFromInt(-50)))

	empty, none := Summarize(nil)
	assert.Equal(t, "No transactions yet", empty.Period)
	assert.Empty(t, none)
}
