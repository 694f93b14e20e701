package ai

import (
	"context"
	"fmt"
	"strings"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
)

var keywordCategories = []struct {
	category string
	keywords []string
}{
	{"Salary", []string{"salary", "payroll", "paycheck", "wage"}},
	{"Groceries", []string{"grocery", "groceries", "supermarket", "market"}},
	{"Food", []string{"restaurant", "lunch", "dinner", "breakfast", "coffee", "pizza", "cafe"}},
	{"Transport", []string{"uber", "taxi", "bus", "train", "fuel", "gas station", "parking", "metro"}},
	{"Housing", []string{"rent", "mortgage", "landlord"}},
	{"Utilities", []string{"electric", "water bill", "internet", "phone", "utility"}},
	{"Entertainment", []string{"movie", "cinema", "netflix", "spotify", "concert", "game"}},
	{"Shopping", []string{"amazon", "clothes", "shoes", "mall"}},
	{"Health", []string{"doctor", "pharmacy", "gym", "dentist", "hospital"}},
	{"Travel", []string{"hotel", "flight", "airbnb", "vacation"}},
	{"Education", []string{"tuition", "course", "book", "school"}},
	{"Savings", []string{"savings", "deposit"}},
}

// RuleAdvisor answers from keyword tables and the report numbers alone.
type RuleAdvisor struct{}

func NewRuleAdvisor() *RuleAdvisor {
	return &RuleAdvisor{}
}

func (RuleAdvisor) Categorize(_ context.Context, description string, amount decimal.Decimal) (string, error) {
	desc := strings.ToLower(description)
	for _, kc := range keywordCategories {
		for _, kw := range kc.keywords {
			if strings.Contains(desc, kw) {
				return kc.category, nil
			}
		}
	}
	if amount.IsPositive() {
		return "Income", nil
	}
	return core.CategoryOther, nil
}

func (RuleAdvisor) Insights(_ context.Context, currency string, report core.Report) (string, error) {
	s := report.Summary
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf("%d. ", len(lines)+1)+fmt.Sprintf(format, args...))
	}

	if s.TotalIncome.IsZero() && s.TotalExpenses.IsZero() {
		add("Record a few transactions to see personalised insights.")
		return strings.Join(lines, "\n"), nil
	}

	if s.NetBalance.IsNegative() {
		add("You spent %s more than you earned.", core.FormatAmount(s.NetBalance.Neg(), currency))
	} else {
		add("You saved %s of %s earned.", core.FormatAmount(s.NetBalance, currency), core.FormatAmount(s.TotalIncome, currency))
	}

	for _, c := range report.Categories {
		if c.Type == core.CategoryTypeExpense {
			add("%s is your largest expense category at %s.", c.Name, core.FormatAmount(c.Amount.Neg(), currency))
			break
		}
	}

	for _, b := range report.Budgets {
		if b.Limit.IsPositive() && b.Spent.GreaterThanOrEqual(b.Limit) {
			add("The %s budget is exhausted: %s spent of %s.", b.Category,
				core.FormatAmount(b.Spent, currency), core.FormatAmount(b.Limit, currency))
		}
	}

	for _, g := range report.Goals {
		if g.Current.GreaterThanOrEqual(g.Target) {
			add("Savings goal %q is reached.", g.Name)
		} else {
			add("Savings goal %q needs %s more.", g.Name, core.FormatAmount(g.Target.Sub(g.Current), currency))
		}
	}

	return strings.Join(lines, "\n"), nil
}

func (RuleAdvisor) Chat(_ context.Context, query string, _ any) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "Ask me anything about your spending, budgets or savings goals.", nil
	}
	return "The AI assistant is not configured. Your transaction report lists totals per category, " +
		"budget usage and savings goal progress.", nil
}
