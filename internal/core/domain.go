package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format of a calendar day.
const DateLayout = "2006-01-02"

const (
	NotificationBudget      NotificationType = "budget"
	NotificationSavings     NotificationType = "savings"
	NotificationAchievement NotificationType = "achievement"
)

const (
	PeriodWeekly  BudgetPeriod = "weekly"
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodYearly  BudgetPeriod = "yearly"
)

type (
	NotificationType string
	BudgetPeriod     string

	// Date is a calendar day. The embedded time is always midnight UTC.
	Date struct {
		time.Time
	}

	User struct {
		ID           int64     `json:"id"`
		Username     string    `json:"username"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		FullName     string    `json:"full_name"`
		Currency     string    `json:"currency"`
		CreatedAt    time.Time `json:"created_at"`
	}

	Transaction struct {
		ID              int64           `json:"id"`
		UserID          int64           `json:"user_id"`
		Amount          decimal.Decimal `json:"amount"`
		Description     string          `json:"description"`
		Category        string          `json:"category"`
		TransactionDate Date            `json:"transaction_date"`
		GoalID          *int64          `json:"goal_id"`
		BudgetID        *int64          `json:"budget_id"`
		CreatedAt       time.Time       `json:"created_at"`
	}

	SavingsGoal struct {
		ID            int64           `json:"id"`
		UserID        int64           `json:"user_id"`
		Name          string          `json:"name"`
		TargetAmount  decimal.Decimal `json:"target_amount"`
		CurrentAmount decimal.Decimal `json:"current_amount"`
		Deadline      *Date           `json:"deadline"`
		CreatedAt     time.Time       `json:"created_at"`
	}

	Budget struct {
		ID        int64           `json:"id"`
		UserID    int64           `json:"user_id"`
		Category  string          `json:"category"`
		Limit     decimal.Decimal `json:"limit"`
		Period    BudgetPeriod    `json:"period"`
		Spent     decimal.Decimal `json:"spent"`
		CreatedAt time.Time       `json:"created_at"`
	}

	Notification struct {
		ID        int64            `json:"id"`
		UserID    int64            `json:"user_id"`
		Type      NotificationType `json:"type"`
		Message   string           `json:"message"`
		IsRead    bool             `json:"is_read"`
		CreatedAt time.Time        `json:"created_at"`
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyName          = errors.New("empty name")
	ErrEmptyCategory      = errors.New("empty category")
	ErrInvalidPeriod      = errors.New("invalid budget period")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrMissingFields      = errors.New("missing required fields")
	ErrDateOutOfRange     = errors.New("date out of range")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf keeps the calendar day of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current local calendar day.
func Today() Date {
	return DateOf(time.Now())
}

var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseDate accepts an ISO-8601 day, optionally followed by a time part.
// The time of day is discarded.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// AddDays returns the day n days after d (before, if n is negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysSince returns the number of whole days from o to d. Both are UTC
// midnights, so Unix seconds divide evenly; time.Duration would overflow
// past roughly 292 years.
func (d Date) DaysSince(o Date) int {
	return int((d.Unix() - o.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// MinTransactionYear and MaxFutureYears bound the dates accepted for new
// transactions.
const (
	MinTransactionYear = 1900
	MaxFutureYears     = 10
)

// ValidateTransactionDate rejects days before MinTransactionYear or more
// than MaxFutureYears after today.
func ValidateTransactionDate(d, today Date) error {
	if err := d.Validate(); err != nil {
		return err
	}
	latest := Date{Time: today.Time.AddDate(MaxFutureYears, 0, 0)}
	if d.Year() < MinTransactionYear || d.After(latest) {
		return fmt.Errorf("%w: %s", ErrDateOutOfRange, d)
	}
	return nil
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsIncome reports whether the transaction adds money to the balance.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

func (t Transaction) Validate() error {
	if t.Amount.IsZero() {
		return ErrInvalidAmount
	}
	desc := strings.TrimSpace(t.Description)
	if desc == "" {
		return ErrEmptyDescription
	}
	if len(desc) > 200 {
		return ErrDescriptionTooLong
	}
	return t.TransactionDate.Validate()
}

// Reached reports whether the saved amount covers the target.
func (g SavingsGoal) Reached() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// Progress is the saved share of the target in percent, capped at 100.
func (g SavingsGoal) Progress() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	p := g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100))
	if p.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NewFromInt(100)
	}
	return p.Round(2)
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !g.TargetAmount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// ParseBudgetPeriod defaults an empty value to monthly.
func ParseBudgetPeriod(s string) (BudgetPeriod, error) {
	switch p := BudgetPeriod(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodMonthly, nil
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
}

// Start returns the first day of the period that contains today.
// Weeks start on Monday.
func (p BudgetPeriod) Start(today Date) Date {
	switch p {
	case PeriodWeekly:
		offset := (int(today.Weekday()) + 6) % 7
		return today.AddDays(-offset)
	case PeriodYearly:
		return NewDate(today.Year(), 1, 1)
	default:
		return NewDate(today.Year(), int(today.Month()), 1)
	}
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if !b.Limit.IsPositive() {
		return ErrInvalidAmount
	}
	switch b.Period {
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
		return nil
	default:
		return ErrInvalidPeriod
	}
}

// Usage is the spent share of the limit in percent.
func (b Budget) Usage() decimal.Decimal {
	if !b.Limit.IsPositive() {
		return decimal.Zero
	}
	return b.Spent.Div(b.Limit).Mul(decimal.NewFromInt(100)).Round(2)
}

// ValidateEmail performs a structural check only.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return ErrInvalidEmail
	}
	if !strings.Contains(email[at+1:], ".") {
		return ErrInvalidEmail
	}
	return nil
}
