package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"budgetwise/internal/ai"
	"budgetwise/internal/amqp"
	"budgetwise/internal/cache"
	"budgetwise/internal/core"
	"budgetwise/internal/log"
	"budgetwise/internal/storage"
	"budgetwise/internal/trend"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, evt *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

type failingAdvisor struct{ ai.RuleAdvisor }

func (failingAdvisor) Categorize(context.Context, string, decimal.Decimal) (string, error) {
	return "", errors.New("model offline")
}

func (failingAdvisor) Insights(context.Context, string, core.Report) (string, error) {
	return "", errors.New("model offline")
}

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func registerUser(t *testing.T, auth *AuthService, username string) core.User {
	t.Helper()
	u, err := auth.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	return u
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAuthService(t *testing.T) {
	repo := newRepo(t)
	auth := NewAuthService(repo, log.Discard())
	auth.cost = 4
	ctx := context.Background()

	u := registerUser(t, auth, "alice")
	assert.Equal(t, core.DefaultCurrency, u.Currency)
	assert.NotEqual(t, "secret", u.PasswordHash)

	_, err := auth.Register(ctx, RegisterInput{Username: "alice", Email: "a2@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = auth.Register(ctx, RegisterInput{Username: "carol", Email: "not-an-email", Password: "x"})
	assert.ErrorIs(t, err, core.ErrInvalidEmail)

	_, err = auth.Register(ctx, RegisterInput{Username: "dave"})
	assert.ErrorIs(t, err, core.ErrMissingFields)

	logged, err := auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	_, err = auth.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	got, err := auth.Authenticate(ctx, " alice ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	_, err = auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = auth.Authenticate(ctx, "mallory")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTransactionService_CreateCategorizesAndPublishes(t *testing.T) {
	repo := newRepo(t)
	auth := NewAuthService(repo, log.Discard())
	auth.cost = 4
	user := registerUser(t, auth, "alice")

	pub := &recordingPublisher{}
	trendSvc := NewTrendService(repo, cache.NewLRUCache[trend.ChartData](10, time.Minute), 30, log.Discard())
	svc := NewTransactionService(repo, ai.NewRuleAdvisor(), pub, log.Discard(), trendSvc)
	ctx := context.Background()

	_, err := trendSvc.Chart(ctx, user.ID, 7)
	require.NoError(t, err)

	tx, err := svc.Create(ctx, user, CreateTransactionInput{
		Amount:          dec("-25.499"),
		Description:     "  Pizza night ",
		TransactionDate: core.NewDate(2024, 4, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "Food", tx.Category)
	assert.Equal(t, "Pizza night", tx.Description)
	assert.True(t, tx.Amount.Equal(dec("-25.5")))

	require.Len(t, pub.events, 1)
	assert.Equal(t, amqp.EventTransactionCreated, pub.events[0].Type)
	assert.Equal(t, tx.ID, pub.events[0].TransactionID)
	assert.Equal(t, "alice", pub.events[0].Username)

	assert.Zero(t, trendSvc.cache.Size(), "create invalidates the trend cache")

	require.NoError(t, svc.Delete(ctx, user, tx.ID))
	require.Len(t, pub.events, 2)
	assert.Equal(t, amqp.EventTransactionDeleted, pub.events[1].Type)

	assert.ErrorIs(t, svc.Delete(ctx, user, tx.ID), storage.ErrNotFound)
}

func TestTransactionService_ValidationAndFallbacks(t *testing.T) {
	repo := newRepo(t)
	auth := NewAuthService(repo, log.Discard())
	auth.cost = 4
	user := registerUser(t, auth, "alice")
	ctx := context.Background()

	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewTransactionService(repo, failingAdvisor{}, pub, log.Discard())

	_, err := svc.Create(ctx, user, CreateTransactionInput{Amount: dec("0"), Description: "x"})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	_, err = svc.Create(ctx, user, CreateTransactionInput{Amount: dec("1"), Description: "   "})
	assert.ErrorIs(t, err, core.ErrEmptyDescription)

	tx, err := svc.Create(ctx, user, CreateTransactionInput{Amount: dec("10"), Description: "Refund"})
	require.NoError(t, err, "publish failures do not fail the request")
	assert.Equal(t, core.CategoryOther, tx.Category)
	assert.Equal(t, core.Today(), tx.TransactionDate)

	tx, err = svc.Create(ctx, user, CreateTransactionInput{Amount: dec("10"), Description: "x", Category: "travel"})
	require.NoError(t, err)
	assert.Equal(t, "Travel", tx.Category)
}

func TestPlannerService(t *testing.T) {
	repo := newRepo(t)
	auth := NewAuthService(repo, log.Discard())
	auth.cost = 4
	user := registerUser(t, auth, "alice")
	planner := NewPlannerService(repo)
	ctx := context.Background()

	_, err := planner.CreateGoal(ctx, user.ID, " ", dec("10"), nil)
	assert.ErrorIs(t, err, core.ErrEmptyName)

	goal, err := planner.CreateGoal(ctx, user.ID, "Bike", dec("300"), nil)
	require.NoError(t, err)
	assert.True(t, goal.CurrentAmount.IsZero())

	_, err = planner.CreateBudget(ctx, user.ID, "Food", dec("100"), "daily")
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)

	budget, err := planner.CreateBudget(ctx, user.ID, "Food", dec("100"), "")
	require.NoError(t, err)
	assert.Equal(t, core.PeriodMonthly, budget.Period)

	goals, err := planner.ListGoals(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, goals, 1)
	budgets, err := planner.ListBudgets(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.True(t, budgets[0].Spent.IsZero())
}

func TestReportService_Build(t *testing.T) {
	repo := newRepo(t)
	auth := NewAuthService(repo, log.Discard())
	auth.cost = 4
	user := registerUser(t, auth, "alice")
	ctx := context.Background()

	planner := NewPlannerService(repo)
	goal, err := planner.CreateGoal(ctx, user.ID, "Bike", dec("300"), nil)
	require.NoError(t, err)

	txs := NewTransactionService(repo, ai.NewRuleAdvisor(), nil, log.Discard())
	_, err = txs.Create(ctx, user, CreateTransactionInput{Amount: dec("1000"), Description: "Salary", TransactionDate: core.NewDate(2024, 1, 1)})
	require.NoError(t, err)
	_, err = txs.Create(ctx, user, CreateTransactionInput{Amount: dec("-100"), Description: "Bike fund", Category: "Savings", TransactionDate: core.NewDate(2024, 1, 2), GoalID: &goal.ID})
	require.NoError(t, err)

	reports := NewReportService(repo, ai.NewRuleAdvisor(), log.Discard())
	report, err := reports.Build(ctx, user)
	require.NoError(t, err)

	assert.Equal(t, "Jan 1, 2024 - Jan 2, 2024", report.Summary.Period)
	assert.True(t, report.Summary.NetBalance.Equal(dec("900")))
	require.Len(t, report.Goals, 1)
	assert.True(t, report.Goals[0].Contributed.Equal(dec("100")))
	assert.True(t, report.Goals[0].Current.Equal(dec("100")))
	assert.NotEmpty(t, report.Insights)

	degraded := NewReportService(repo, failingAdvisor{}, log.Discard())
	report, err = degraded.Build(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, insightsUnavailable, report.AIInsights)
	assert.Equal(t, []string{insightsUnavailable}, report.Insights)

	_, err = reports.Chat(ctx, user, "  ", nil)
	assert.ErrorIs(t, err, ErrEmptyQuery)
	reply, err := reports.Chat(ctx, user, "How am I doing?", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
}

func TestTrendService_Chart(t *testing.T) {
	repo := newRepo(t)
	auth := NewAuthService(repo, log.Discard())
	auth.cost = 4
	user := registerUser(t, auth, "alice")
	ctx := context.Background()

	trendSvc := NewTrendService(repo, cache.NewLRUCache[trend.ChartData](10, time.Minute), 30, log.Discard())
	trendSvc.now = func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) }

	txs := NewTransactionService(repo, ai.NewRuleAdvisor(), nil, log.Discard(), trendSvc)
	_, err := txs.Create(ctx, user, CreateTransactionInput{Amount: dec("100"), Description: "Salary", TransactionDate: core.NewDate(2024, 1, 8)})
	require.NoError(t, err)
	_, err = txs.Create(ctx, user, CreateTransactionInput{Amount: dec("-40"), Description: "Groceries", TransactionDate: core.NewDate(2024, 1, 10)})
	require.NoError(t, err)

	chart, err := trendSvc.Chart(ctx, user.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"8 Jan", "9 Jan", "10 Jan"}, chart.Labels)
	require.Len(t, chart.Datasets, 1)
	assert.Equal(t, []float64{100, 100, 60}, chart.Datasets[0].Data)
	assert.Equal(t, 60.0, chart.CurrentBalance)
	assert.Equal(t, -40.0, chart.PercentageChange)
	assert.Equal(t, 1, trendSvc.cache.Size())

	_, err = trendSvc.Chart(ctx, user.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidWindow)
	_, err = trendSvc.Chart(ctx, user.ID, MaxWindowDays+1)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	chart, err = trendSvc.Chart(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Len(t, chart.Labels, 30)
}

func TestNotificationService(t *testing.T) {
	repo := newRepo(t)
	auth := NewAuthService(repo, log.Discard())
	auth.cost = 4
	user := registerUser(t, auth, "alice")
	ctx := context.Background()

	svc := NewNotificationService(repo)
	ns, groups, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, ns)
	assert.NotNil(t, groups)

	n, err := repo.CreateNotification(ctx, core.Notification{UserID: user.ID, Type: core.NotificationBudget, Message: "m"})
	require.NoError(t, err)

	ns, groups, err = svc.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, ns, 1)
	assert.Len(t, groups, 1)

	require.NoError(t, svc.MarkRead(ctx, user.ID, n.ID))
	assert.ErrorIs(t, svc.MarkRead(ctx, user.ID, n.ID+100), storage.ErrNotFound)
}
