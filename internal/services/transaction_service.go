package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"budgetwise/internal/ai"
	"budgetwise/internal/amqp"
	"budgetwise/internal/core"
	"budgetwise/internal/log"
	"budgetwise/internal/storage"

	"github.com/shopspring/decimal"
)

type CreateTransactionInput struct {
	Amount          decimal.Decimal
	Description     string
	TransactionDate core.Date
	// Category skips categorization when set.
	Category string
	GoalID   *int64
	BudgetID *int64
}

// Invalidator drops derived data cached for a user.
type Invalidator interface {
	Invalidate(userID int64)
}

// TransactionService stores transactions, categorizes them and announces
// every change with a TransactionEvent.
type TransactionService struct {
	repo      *storage.SQLiteRepository
	advisor   ai.Advisor
	publisher EventPublisher
	caches    []Invalidator
	logger    *log.Logger
	audit     *log.StructuredLogger
}

func NewTransactionService(repo *storage.SQLiteRepository, advisor ai.Advisor, publisher EventPublisher, logger *log.Logger, caches ...Invalidator) *TransactionService {
	logger = logger.WithComponent(log.ComponentTransaction)
	return &TransactionService{
		repo:      repo,
		advisor:   advisor,
		publisher: publisher,
		caches:    caches,
		logger:    logger,
		audit:     log.NewStructuredLogger(logger),
	}
}

// Create validates and stores a transaction. A failed publish is logged and
// does not fail the request: the row is already committed.
func (s *TransactionService) Create(ctx context.Context, user core.User, in CreateTransactionInput) (core.Transaction, error) {
	tx := core.Transaction{
		UserID:          user.ID,
		Amount:          in.Amount.Round(2),
		Description:     strings.TrimSpace(in.Description),
		TransactionDate: in.TransactionDate,
		GoalID:          in.GoalID,
		BudgetID:        in.BudgetID,
	}
	today := core.Today()
	if tx.TransactionDate.IsZero() {
		tx.TransactionDate = today
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := core.ValidateTransactionDate(tx.TransactionDate, today); err != nil {
		return core.Transaction{}, err
	}

	if in.Category != "" {
		tx.Category = core.NormalizeCategory(in.Category)
	} else {
		tx.Category = s.categorize(ctx, tx)
	}

	stored, err := s.repo.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.invalidate(user.ID)
	s.audit.LogTransactionCreated(ctx, user.ID, user.Username, stored.ID, stored.Amount, stored.Category)
	s.publish(ctx, amqp.NewTransactionEvent(amqp.EventTransactionCreated, user.Username, stored))

	return stored, nil
}

func (s *TransactionService) categorize(ctx context.Context, tx core.Transaction) string {
	if s.advisor == nil {
		return core.CategoryOther
	}
	category, err := s.advisor.Categorize(ctx, tx.Description, tx.Amount)
	if err != nil {
		s.audit.LogError(ctx, "Categorization failed", err, log.ComponentAI, log.OpCategorize, nil)
		return core.CategoryOther
	}
	return category
}

// List returns the user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID int64) ([]core.Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *TransactionService) Delete(ctx context.Context, user core.User, id int64) error {
	deleted, err := s.repo.DeleteTransaction(ctx, user.ID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.invalidate(user.ID)
	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldUserID, user.ID,
		log.FieldTransactionID, id)
	s.publish(ctx, amqp.NewTransactionEvent(amqp.EventTransactionDeleted, user.Username, deleted))
	return nil
}

func (s *TransactionService) invalidate(userID int64) {
	for _, c := range s.caches {
		c.Invalidate(userID)
	}
}

func (s *TransactionService) publish(ctx context.Context, evt *amqp.TransactionEvent) {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "No event publisher configured, skipping event", log.FieldEventID, evt.EventID)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, evt); err != nil {
		fields := log.NewFields()
		fields[log.FieldEventID] = evt.EventID
		fields[log.FieldTransactionID] = evt.TransactionID
		s.audit.LogError(ctx, "Failed to publish transaction event", err, log.ComponentAMQP, log.OpPublish, fields)
	}
}
