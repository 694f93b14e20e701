package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"budgetwise/internal/ai"
	"budgetwise/internal/core"
	"budgetwise/internal/log"
	"budgetwise/internal/storage"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var ErrEmptyQuery = errors.New("query is required")

const insightsUnavailable = "AI insights are not available right now."

// ReportService assembles the financial overview and answers chat questions.
type ReportService struct {
	repo    *storage.SQLiteRepository
	advisor ai.Advisor
	now     func() time.Time
	logger  *log.Logger
}

func NewReportService(repo *storage.SQLiteRepository, advisor ai.Advisor, logger *log.Logger) *ReportService {
	return &ReportService{
		repo:    repo,
		advisor: advisor,
		now:     time.Now,
		logger:  logger.WithComponent(log.ComponentReport),
	}
}

// Build loads the user's transactions, goals and budgets concurrently and
// summarizes them. Insight generation failures degrade to a fixed message.
func (s *ReportService) Build(ctx context.Context, user core.User) (core.Report, error) {
	var (
		txs           []core.Transaction
		goals         []core.SavingsGoal
		contributions map[int64]decimal.Decimal
		budgets       []core.Budget
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		txs, err = s.repo.ListTransactions(gctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		goals, err = s.repo.ListSavingsGoals(gctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		contributions, err = s.repo.GoalContributions(gctx, user.ID)
		return err
	})
	g.Go(func() (err error) {
		budgets, err = s.repo.ListBudgets(gctx, user.ID, core.DateOf(s.now()))
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Report{}, fmt.Errorf("load report data: %w", err)
	}

	report := core.Report{
		Goals:   make([]core.GoalProgress, 0, len(goals)),
		Budgets: make([]core.BudgetUsage, 0, len(budgets)),
	}
	report.Summary, report.Categories = core.Summarize(txs)

	for _, goal := range goals {
		contributed, ok := contributions[goal.ID]
		if !ok {
			contributed = decimal.Zero
		}
		report.Goals = append(report.Goals, core.GoalProgress{
			Name:        goal.Name,
			Target:      goal.TargetAmount,
			Current:     goal.CurrentAmount,
			Contributed: contributed,
		})
	}
	for _, b := range budgets {
		report.Budgets = append(report.Budgets, core.BudgetUsage{Category: b.Category, Limit: b.Limit, Spent: b.Spent})
	}

	report.AIInsights = insightsUnavailable
	if s.advisor != nil {
		text, err := s.advisor.Insights(ctx, user.Currency, report)
		if err != nil {
			s.logger.WarnContext(ctx, "Insights generation failed", log.FieldUserID, user.ID, log.FieldError, err)
		} else if strings.TrimSpace(text) != "" {
			report.AIInsights = text
		}
	}
	report.Insights = core.ParseInsights(report.AIInsights)
	if report.Insights == nil {
		report.Insights = []string{}
	}

	return report, nil
}

// Chat answers query. Without client supplied data the user's report is
// sent along as context.
func (s *ReportService) Chat(ctx context.Context, user core.User, query string, data any) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}
	if s.advisor == nil {
		return "", errors.New("no advisor configured")
	}

	if data == nil {
		report, err := s.Build(ctx, user)
		if err != nil {
			return "", err
		}
		data = report
	}

	reply, err := s.advisor.Chat(ctx, query, data)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return reply, nil
}
