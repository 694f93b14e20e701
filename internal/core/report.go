package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

const (
	CategoryTypeIncome  = "Income"
	CategoryTypeExpense = "Expense"
)

// ReportSummary aggregates a user's whole transaction history.
type ReportSummary struct {
	Period        string          `json:"period"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetBalance    decimal.Decimal `json:"net_balance"`
}

// CategoryTotal is the signed sum of one category.
type CategoryTotal struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Type   string          `json:"type"`
}

type GoalProgress struct {
	Name        string          `json:"name"`
	Target      decimal.Decimal `json:"target"`
	Current     decimal.Decimal `json:"current"`
	Contributed decimal.Decimal `json:"contributed"`
}

type BudgetUsage struct {
	Category string          `json:"category"`
	Limit    decimal.Decimal `json:"limit"`
	Spent    decimal.Decimal `json:"spent"`
}

// Report is the payload behind the financial overview screen.
type Report struct {
	Summary    ReportSummary   `json:"summary"`
	Categories []CategoryTotal `json:"categories"`
	Goals      []GoalProgress  `json:"goals"`
	Budgets    []BudgetUsage   `json:"budgets"`
	AIInsights string          `json:"ai_insights"`
	Insights   []string        `json:"insights"`
}

// Summarize totals income and expenses and groups amounts by category.
// Categories are ordered by absolute amount, largest first.
func Summarize(txs []Transaction) (ReportSummary, []CategoryTotal) {
	summary := ReportSummary{
		Period:        "No transactions yet",
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		NetBalance:    decimal.Zero,
	}
	if len(txs) == 0 {
		return summary, []CategoryTotal{}
	}

	first, last := txs[0].TransactionDate, txs[0].TransactionDate
	byCategory := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.TransactionDate.Before(first) {
			first = tx.TransactionDate
		}
		if tx.TransactionDate.After(last) {
			last = tx.TransactionDate
		}
		if tx.IsIncome() {
			summary.TotalIncome = summary.TotalIncome.Add(tx.Amount)
		} else {
			summary.TotalExpenses = summary.TotalExpenses.Add(tx.Amount.Neg())
		}
		category := tx.Category
		if category == "" {
			category = CategoryOther
		}
		byCategory[category] = byCategory[category].Add(tx.Amount)
	}
	summary.NetBalance = summary.TotalIncome.Sub(summary.TotalExpenses)
	summary.Period = first.Format("Jan 2, 2006") + " - " + last.Format("Jan 2, 2006")

	categories := make([]CategoryTotal, 0, len(byCategory))
	for name, amount := range byCategory {
		kind := CategoryTypeExpense
		if amount.IsPositive() {
			kind = CategoryTypeIncome
		}
		categories = append(categories, CategoryTotal{Name: name, Amount: amount, Type: kind})
	}
	sort.Slice(categories, func(i, j int) bool {
		ai, aj := categories[i].Amount.Abs(), categories[j].Amount.Abs()
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		return categories[i].Name < categories[j].Name
	})
	return summary, categories
}
