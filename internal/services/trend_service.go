package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budgetwise/internal/cache"
	"budgetwise/internal/core"
	"budgetwise/internal/log"
	"budgetwise/internal/storage"
	"budgetwise/internal/trend"
)

// MaxWindowDays bounds the days query parameter.
const MaxWindowDays = 3650

var ErrInvalidWindow = errors.New("invalid trend window")

// TrendService serves balance trend charts, cached per user, window and day.
type TrendService struct {
	repo          *storage.SQLiteRepository
	cache         cache.Cache[trend.ChartData]
	defaultWindow int
	now           func() time.Time
	logger        *log.Logger
}

func NewTrendService(repo *storage.SQLiteRepository, c cache.Cache[trend.ChartData], defaultWindow int, logger *log.Logger) *TrendService {
	if defaultWindow < 1 {
		defaultWindow = trend.DefaultWindowDays
	}
	return &TrendService{
		repo:          repo,
		cache:         c,
		defaultWindow: defaultWindow,
		now:           time.Now,
		logger:        logger.WithComponent(log.ComponentTrend),
	}
}

// Chart returns the balance chart for the trailing window of days. Zero
// days selects the configured default.
func (s *TrendService) Chart(ctx context.Context, userID int64, days int) (trend.ChartData, error) {
	if days == 0 {
		days = s.defaultWindow
	}
	if days < 1 || days > MaxWindowDays {
		return trend.ChartData{}, fmt.Errorf("%w: days must be between 1 and %d, got %d", ErrInvalidWindow, MaxWindowDays, days)
	}

	now := s.now()
	key := fmt.Sprintf("%d:%d:%s", userID, days, core.DateOf(now))
	// Detached: the result is shared by every caller waiting on key.
	loadCtx := context.WithoutCancel(ctx)
	return s.cache.GetOrLoad(key, func() (trend.ChartData, error) {
		return s.build(loadCtx, userID, days, now)
	})
}

func (s *TrendService) build(ctx context.Context, userID int64, days int, now time.Time) (trend.ChartData, error) {
	ledger, err := s.repo.ListLedger(ctx, userID)
	if err != nil {
		return trend.ChartData{}, fmt.Errorf("load ledger: %w", err)
	}

	txs := make([]trend.Transaction, len(ledger))
	for i, e := range ledger {
		txs[i] = trend.Transaction{Amount: e.Amount, Date: e.Date}
	}

	builder, err := trend.NewBuilder(days, trend.WithClock(func() time.Time { return now }))
	if err != nil {
		return trend.ChartData{}, err
	}
	res, err := builder.Build(txs)
	if err != nil {
		return trend.ChartData{}, err
	}

	if len(res.Skipped) > 0 {
		s.logger.WarnContext(ctx, "Transactions with malformed dates left out of trend",
			log.FieldUserID, userID, "count", len(res.Skipped))
	}
	if len(res.Future) > 0 {
		s.logger.WarnContext(ctx, "Future-dated transactions left out of trend",
			log.FieldUserID, userID, "count", len(res.Future))
	}
	s.logger.DebugContext(ctx, "Balance trend built",
		log.FieldUserID, userID,
		log.FieldWindowDays, days,
		"points", len(res.Series))

	return trend.Chart(res.Series), nil
}

// Invalidate drops every cached chart of userID.
func (s *TrendService) Invalidate(userID int64) {
	s.cache.DeletePrefix(fmt.Sprintf("%d:", userID))
}
