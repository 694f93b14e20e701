// Package ai produces transaction categories, report insights and chat
// replies. Gemini is used when an API key is configured; RuleAdvisor is the
// offline fallback and the default in tests.
package ai

import (
	"context"
	"log/slog"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
)

// Advisor is implemented by every backend.
type Advisor interface {
	// Categorize returns one of core.Categories.
	Categorize(ctx context.Context, description string, amount decimal.Decimal) (string, error)
	// Insights returns a newline separated list of observations about report.
	Insights(ctx context.Context, currency string, report core.Report) (string, error)
	// Chat answers a free-form question. data is serialized as context.
	Chat(ctx context.Context, query string, data any) (string, error)
}

// fallbackAdvisor asks primary first and secondary when primary fails.
type fallbackAdvisor struct {
	primary   Advisor
	secondary Advisor
}

// WithFallback returns an Advisor that never surfaces primary's errors as
// long as secondary succeeds.
func WithFallback(primary, secondary Advisor) Advisor {
	return &fallbackAdvisor{primary: primary, secondary: secondary}
}

func (f *fallbackAdvisor) Categorize(ctx context.Context, description string, amount decimal.Decimal) (string, error) {
	category, err := f.primary.Categorize(ctx, description, amount)
	if err == nil {
		return category, nil
	}
	slog.WarnContext(ctx, "Categorization failed, using fallback", "error", err)
	return f.secondary.Categorize(ctx, description, amount)
}

func (f *fallbackAdvisor) Insights(ctx context.Context, currency string, report core.Report) (string, error) {
	text, err := f.primary.Insights(ctx, currency, report)
	if err == nil {
		return text, nil
	}
	slog.WarnContext(ctx, "Insights generation failed, using fallback", "error", err)
	return f.secondary.Insights(ctx, currency, report)
}

func (f *fallbackAdvisor) Chat(ctx context.Context, query string, data any) (string, error) {
	reply, err := f.primary.Chat(ctx, query, data)
	if err == nil {
		return reply, nil
	}
	slog.WarnContext(ctx, "Chat failed, using fallback", "error", err)
	return f.secondary.Chat(ctx, query, data)
}
