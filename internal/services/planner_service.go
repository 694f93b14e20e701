package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"budgetwise/internal/core"
	"budgetwise/internal/storage"

	"github.com/shopspring/decimal"
)

// PlannerService manages savings goals and budgets.
type PlannerService struct {
	repo *storage.SQLiteRepository
	now  func() time.Time
}

func NewPlannerService(repo *storage.SQLiteRepository) *PlannerService {
	return &PlannerService{repo: repo, now: time.Now}
}

func (s *PlannerService) CreateGoal(ctx context.Context, userID int64, name string, target decimal.Decimal, deadline *core.Date) (core.SavingsGoal, error) {
	g := core.SavingsGoal{
		UserID:        userID,
		Name:          strings.TrimSpace(name),
		TargetAmount:  target.Round(2),
		CurrentAmount: decimal.Zero,
		Deadline:      deadline,
	}
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	stored, err := s.repo.CreateSavingsGoal(ctx, g)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("save savings goal: %w", err)
	}
	return stored, nil
}

func (s *PlannerService) ListGoals(ctx context.Context, userID int64) ([]core.SavingsGoal, error) {
	return s.repo.ListSavingsGoals(ctx, userID)
}

func (s *PlannerService) CreateBudget(ctx context.Context, userID int64, category string, limit decimal.Decimal, period string) (core.Budget, error) {
	p, err := core.ParseBudgetPeriod(period)
	if err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{
		UserID:   userID,
		Category: strings.TrimSpace(category),
		Limit:    limit.Round(2),
		Period:   p,
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	stored, err := s.repo.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	return stored, nil
}

// ListBudgets returns budgets with spending in their current period.
func (s *PlannerService) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	return s.repo.ListBudgets(ctx, userID, core.DateOf(s.now()))
}
