package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"budgetwise/internal/amqp"
	"budgetwise/internal/core"
	"budgetwise/internal/log"
	"budgetwise/internal/sheets/memory"
	"budgetwise/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingExporter struct{}

func (failingExporter) Export(context.Context, string, core.Transaction) (string, error) {
	return "", errors.New("quota exceeded")
}

// cancelAfterExport exports and then cancels the delivery context, so the
// steps after the export fail.
type cancelAfterExport struct {
	*memory.Store
	cancel context.CancelFunc
}

func (c cancelAfterExport) Export(ctx context.Context, username string, tx core.Transaction) (string, error) {
	ref, err := c.Store.Export(ctx, username, tx)
	c.cancel()
	return ref, err
}

type fixture struct {
	repo   *storage.SQLiteRepository
	worker *NotificationWorker
	sheet  *memory.Store
	user   core.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	user, err := repo.CreateUser(context.Background(), core.User{
		Username: "alice", Email: "alice@example.com", PasswordHash: "x", Currency: "USD",
	})
	require.NoError(t, err)

	sheet := memory.New()
	w := NewNotificationWorker(repo, sheet, log.Discard())
	w.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	return &fixture{repo: repo, worker: w, sheet: sheet, user: user}
}

// record stores a transaction and delivers its created event.
func (f *fixture) record(t *testing.T, amount, category string, day int, goalID *int64) core.Transaction {
	t.Helper()
	ctx := context.Background()
	tx, err := f.repo.CreateTransaction(ctx, core.Transaction{
		UserID:          f.user.ID,
		Amount:          decimal.RequireFromString(amount),
		Description:     category + " purchase",
		Category:        category,
		TransactionDate: core.NewDate(2024, 3, day),
		GoalID:          goalID,
	})
	require.NoError(t, err)
	require.NoError(t, f.worker.HandleTransactionEvent(ctx, amqp.NewTransactionEvent(amqp.EventTransactionCreated, f.user.Username, tx)))
	return tx
}

func (f *fixture) notifications(t *testing.T) []core.Notification {
	t.Helper()
	ns, err := f.repo.ListNotifications(context.Background(), f.user.ID)
	require.NoError(t, err)
	return ns
}

func TestBudgetAlert(t *testing.T) {
	d := decimal.RequireFromString
	tests := []struct {
		name          string
		before, after string
		want          alertLevel
	}{
		{"below warning", "10", "50", alertNone},
		{"crosses warning", "70", "80", alertApproaching},
		{"already warned", "85", "90", alertNone},
		{"crosses limit", "90", "100", alertExceeded},
		{"jumps past both", "10", "150", alertExceeded},
		{"already exceeded", "120", "130", alertNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, budgetAlert(d(tt.before), d(tt.after), d("100")))
		})
	}
	assert.Equal(t, alertNone, budgetAlert(d("0"), d("10"), d("0")))
}

func TestHandleTransactionEvent_BudgetAlertsAndFirstAchievement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repo.CreateBudget(ctx, core.Budget{
		UserID: f.user.ID, Category: "Food", Limit: decimal.NewFromInt(100), Period: core.PeriodMonthly,
	})
	require.NoError(t, err)

	f.record(t, "-50", "Food", 10, nil)
	ns := f.notifications(t)
	require.Len(t, ns, 1)
	assert.Equal(t, core.NotificationAchievement, ns[0].Type)
	assert.Equal(t, "Achievement unlocked: First Transaction!", ns[0].Message)

	f.record(t, "-35", "food", 11, nil)
	ns = f.notifications(t)
	require.Len(t, ns, 2)
	assert.Equal(t, core.NotificationBudget, ns[0].Type)
	assert.Contains(t, ns[0].Message, "approaching your Food budget")
	assert.Contains(t, ns[0].Message, "$85.00 spent of $100.00")

	f.record(t, "-20", "Food", 12, nil)
	ns = f.notifications(t)
	require.Len(t, ns, 3)
	assert.Contains(t, ns[0].Message, "exceeded your Food budget")

	f.record(t, "-5", "Transport", 12, nil)
	assert.Len(t, f.notifications(t), 3, "other categories do not touch the Food budget")

	achievements, err := f.repo.ListAchievements(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Len(t, achievements, 1)
	assert.Len(t, f.sheet.Rows(), 4)
}

func TestHandleTransactionEvent_GoalReached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	goal, err := f.repo.CreateSavingsGoal(ctx, core.SavingsGoal{
		UserID: f.user.ID, Name: "Laptop", TargetAmount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	f.record(t, "-60", "Savings", 1, &goal.ID)
	f.record(t, "-40", "Savings", 2, &goal.ID)
	f.record(t, "-10", "Savings", 3, &goal.ID)

	var savings, goalAchievement int
	for _, n := range f.notifications(t) {
		if n.Type == core.NotificationSavings {
			savings++
			assert.Contains(t, n.Message, `"Laptop"`)
		}
		if n.Message == "Achievement unlocked: Goal Reached!" {
			goalAchievement++
		}
	}
	assert.Equal(t, 1, savings, "only the transaction that crosses the target notifies")
	assert.Equal(t, 1, goalAchievement)
}

func TestHandleTransactionEvent_TenTransactions(t *testing.T) {
	f := newFixture(t)

	for day := 1; day <= 10; day++ {
		f.record(t, "1", "Income", day, nil)
	}

	achievements, err := f.repo.ListAchievements(context.Background(), f.user.ID)
	require.NoError(t, err)
	codes := make([]core.AchievementCode, 0, len(achievements))
	for _, a := range achievements {
		codes = append(codes, a.Code)
	}
	assert.ElementsMatch(t, []core.AchievementCode{core.AchievementFirstTransaction, core.AchievementTenTransactions}, codes)
}

func TestHandleTransactionEvent_DeletedIsNoop(t *testing.T) {
	f := newFixture(t)
	evt := amqp.NewTransactionEvent(amqp.EventTransactionDeleted, "alice", core.Transaction{
		ID: 99, UserID: f.user.ID, Amount: decimal.NewFromInt(-1), Description: "gone", TransactionDate: core.NewDate(2024, 3, 1),
	})

	require.NoError(t, f.worker.HandleTransactionEvent(context.Background(), evt))
	assert.Empty(t, f.notifications(t))
	assert.Empty(t, f.sheet.Rows())
}

func TestHandleTransactionEvent_ExportFailureRequeues(t *testing.T) {
	f := newFixture(t)
	f.worker.exporter = failingExporter{}

	tx, err := f.repo.CreateTransaction(context.Background(), core.Transaction{
		UserID: f.user.ID, Amount: decimal.NewFromInt(5), Description: "x", TransactionDate: core.NewDate(2024, 3, 1),
	})
	require.NoError(t, err)

	err = f.worker.HandleTransactionEvent(context.Background(), amqp.NewTransactionEvent(amqp.EventTransactionCreated, "alice", tx))
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Empty(t, f.notifications(t), "nothing is recorded before the export succeeds")
}

func TestHandleTransactionEvent_RedeliveryExportsOnce(t *testing.T) {
	f := newFixture(t)

	tx, err := f.repo.CreateTransaction(context.Background(), core.Transaction{
		UserID: f.user.ID, Amount: decimal.NewFromInt(-20), Description: "Groceries",
		Category: "Food", TransactionDate: core.NewDate(2024, 3, 10),
	})
	require.NoError(t, err)
	evt := amqp.NewTransactionEvent(amqp.EventTransactionCreated, "alice", tx)

	ctx, cancel := context.WithCancel(context.Background())
	f.worker.exporter = cancelAfterExport{Store: f.sheet, cancel: cancel}
	err = f.worker.HandleTransactionEvent(ctx, evt)
	require.ErrorIs(t, err, context.Canceled, "budget lookup fails after the export")
	require.Len(t, f.sheet.Rows(), 1)

	f.worker.exporter = f.sheet
	require.NoError(t, f.worker.HandleTransactionEvent(context.Background(), evt))
	assert.Len(t, f.sheet.Rows(), 1)

	ref, done, err := f.repo.ExportRef(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, "mem:1", ref)
}
