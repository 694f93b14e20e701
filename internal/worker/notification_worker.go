package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"budgetwise/internal/amqp"
	"budgetwise/internal/core"
	"budgetwise/internal/log"
	"budgetwise/internal/sheets"
	"budgetwise/internal/storage"

	"github.com/shopspring/decimal"
)

type alertLevel int

const (
	alertNone alertLevel = iota
	alertApproaching
	alertExceeded
)

var warnShare = decimal.RequireFromString("0.8")

// NotificationWorker reacts to transaction events with budget alerts,
// savings milestones, achievements and the optional spreadsheet export.
type NotificationWorker struct {
	repo     *storage.SQLiteRepository
	exporter sheets.TransactionExporter
	now      func() time.Time
	logger   *log.Logger
}

// NewNotificationWorker creates a worker. exporter may be nil.
func NewNotificationWorker(repo *storage.SQLiteRepository, exporter sheets.TransactionExporter, logger *log.Logger) *NotificationWorker {
	return &NotificationWorker{
		repo:     repo,
		exporter: exporter,
		now:      time.Now,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleTransactionEvent processes one event. An error asks the broker to
// redeliver. Exports are recorded per transaction, so a redelivery never
// appends the same row twice.
func (w *NotificationWorker) HandleTransactionEvent(ctx context.Context, evt *amqp.TransactionEvent) error {
	logger := w.logger.With(log.FieldEventID, evt.EventID, log.FieldTransactionID, evt.TransactionID)

	if evt.Type == amqp.EventTransactionDeleted {
		logger.InfoContext(ctx, "Transaction deleted", log.FieldUserID, evt.UserID)
		return nil
	}

	tx := evt.Transaction()

	if err := w.export(ctx, logger, evt.Username, tx); err != nil {
		return err
	}

	currency := core.DefaultCurrency
	if user, err := w.repo.GetUserByUsername(ctx, evt.Username); err == nil && user.Currency != "" {
		currency = user.Currency
	}

	if err := w.checkBudgets(ctx, tx, currency); err != nil {
		return err
	}
	if err := w.checkGoal(ctx, tx, currency); err != nil {
		return err
	}
	if err := w.checkAchievements(ctx, tx.UserID); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Transaction event processed", log.FieldUserID, evt.UserID)
	return nil
}

func (w *NotificationWorker) export(ctx context.Context, logger *log.Logger, username string, tx core.Transaction) error {
	if w.exporter == nil {
		return nil
	}

	if ref, done, err := w.repo.ExportRef(ctx, tx.ID); err != nil {
		return fmt.Errorf("check export: %w", err)
	} else if done {
		logger.DebugContext(ctx, "Transaction already exported", "row", ref)
		return nil
	}

	ref, err := w.exporter.Export(ctx, username, tx)
	if err != nil {
		logger.WarnContext(ctx, "Spreadsheet export failed", log.FieldOperation, log.OpExport, log.FieldError, err)
		return fmt.Errorf("export transaction: %w", err)
	}
	// The row is in the sheet already; record it even if the caller gave up.
	if err := w.repo.RecordExport(context.WithoutCancel(ctx), tx.ID, ref); err != nil {
		return err
	}
	logger.DebugContext(ctx, "Transaction exported", "row", ref)
	return nil
}

func (w *NotificationWorker) checkBudgets(ctx context.Context, tx core.Transaction, currency string) error {
	if !tx.Amount.IsNegative() {
		return nil
	}

	today := core.DateOf(w.now())
	budgets, err := w.repo.ListBudgets(ctx, tx.UserID, today)
	if err != nil {
		return fmt.Errorf("load budgets: %w", err)
	}

	spent := tx.Amount.Neg()
	for _, b := range budgets {
		if !countsToward(tx, b, today) {
			continue
		}
		level := budgetAlert(b.Spent.Sub(spent), b.Spent, b.Limit)
		if level == alertNone {
			continue
		}
		w.logger.InfoContext(ctx, "Budget threshold crossed",
			log.FieldUserID, tx.UserID,
			log.FieldBudgetID, b.ID,
			"exceeded", level == alertExceeded)
		if err := w.notify(ctx, tx.UserID, core.NotificationBudget, budgetMessage(level, b, currency)); err != nil {
			return err
		}
	}
	return nil
}

// countsToward mirrors the spent query: linked explicitly, or unlinked with
// a matching category, and dated inside the current period.
func countsToward(tx core.Transaction, b core.Budget, today core.Date) bool {
	if tx.TransactionDate.Before(b.Period.Start(today)) || tx.TransactionDate.After(today) {
		return false
	}
	if tx.BudgetID != nil {
		return *tx.BudgetID == b.ID
	}
	return strings.EqualFold(tx.Category, b.Category)
}

// budgetAlert reports the threshold crossed when spending went from before to after.
func budgetAlert(before, after, limit decimal.Decimal) alertLevel {
	if !limit.IsPositive() {
		return alertNone
	}
	warn := limit.Mul(warnShare)
	switch {
	case after.GreaterThanOrEqual(limit) && before.LessThan(limit):
		return alertExceeded
	case after.GreaterThanOrEqual(warn) && before.LessThan(warn):
		return alertApproaching
	default:
		return alertNone
	}
}

func budgetMessage(level alertLevel, b core.Budget, currency string) string {
	spent := core.FormatAmount(b.Spent, currency)
	limit := core.FormatAmount(b.Limit, currency)
	if level == alertExceeded {
		return fmt.Sprintf("You have exceeded your %s budget: %s spent of %s.", b.Category, spent, limit)
	}
	return fmt.Sprintf("You are approaching your %s budget: %s spent of %s (%s%%).",
		b.Category, spent, limit, b.Usage().StringFixed(0))
}

func (w *NotificationWorker) checkGoal(ctx context.Context, tx core.Transaction, currency string) error {
	if tx.GoalID == nil {
		return nil
	}
	goal, err := w.repo.GetSavingsGoal(ctx, tx.UserID, *tx.GoalID)
	if err != nil {
		// Goal removed since the event was published.
		w.logger.WarnContext(ctx, "Savings goal not found", log.FieldGoalID, *tx.GoalID, log.FieldError, err)
		return nil
	}

	before := goal.CurrentAmount.Sub(tx.Amount.Abs())
	if !goal.Reached() || before.GreaterThanOrEqual(goal.TargetAmount) {
		return nil
	}

	msg := fmt.Sprintf("Congratulations! You reached your savings goal %q of %s.",
		goal.Name, core.FormatAmount(goal.TargetAmount, currency))
	if err := w.notify(ctx, tx.UserID, core.NotificationSavings, msg); err != nil {
		return err
	}
	return w.award(ctx, tx.UserID, core.AchievementGoalReached)
}

func (w *NotificationWorker) checkAchievements(ctx context.Context, userID int64) error {
	count, err := w.repo.CountTransactions(ctx, userID)
	if err != nil {
		return fmt.Errorf("count transactions: %w", err)
	}
	if count >= 1 {
		if err := w.award(ctx, userID, core.AchievementFirstTransaction); err != nil {
			return err
		}
	}
	if count >= 10 {
		if err := w.award(ctx, userID, core.AchievementTenTransactions); err != nil {
			return err
		}
	}
	return nil
}

// award stores the achievement and announces it the first time only.
func (w *NotificationWorker) award(ctx context.Context, userID int64, code core.AchievementCode) error {
	a := core.NewAchievement(userID, code)
	created, err := w.repo.AwardAchievement(ctx, a)
	if err != nil {
		return fmt.Errorf("award %s: %w", code, err)
	}
	if !created {
		return nil
	}
	return w.notify(ctx, userID, core.NotificationAchievement, fmt.Sprintf("Achievement unlocked: %s!", a.Name))
}

func (w *NotificationWorker) notify(ctx context.Context, userID int64, kind core.NotificationType, msg string) error {
	if _, err := w.repo.CreateNotification(ctx, core.Notification{UserID: userID, Type: kind, Message: msg}); err != nil {
		return fmt.Errorf("create %s notification: %w", kind, err)
	}
	w.logger.InfoContext(ctx, "Notification created", log.FieldUserID, userID, "type", kind)
	return nil
}
