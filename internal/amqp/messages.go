package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"budgetwise/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionDeleted EventType = "transaction.deleted"
)

// TransactionEvent is published after a transaction is stored or removed.
// It carries the full row so consumers never read back from the database
// for data they already have.
type TransactionEvent struct {
	EventID         string          `json:"event_id"`
	Type            EventType       `json:"type"`
	UserID          int64           `json:"user_id"`
	Username        string          `json:"username"`
	TransactionID   int64           `json:"transaction_id"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	TransactionDate string          `json:"transaction_date"`
	GoalID          *int64          `json:"goal_id,omitempty"`
	BudgetID        *int64          `json:"budget_id,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
}

// NewTransactionEvent builds an event with a fresh ID.
func NewTransactionEvent(eventType EventType, username string, tx core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		EventID:         uuid.NewString(),
		Type:            eventType,
		UserID:          tx.UserID,
		Username:        username,
		TransactionID:   tx.ID,
		Amount:          tx.Amount,
		Description:     tx.Description,
		Category:        tx.Category,
		TransactionDate: tx.TransactionDate.String(),
		GoalID:          tx.GoalID,
		BudgetID:        tx.BudgetID,
		Timestamp:       time.Now(),
	}
}

// Transaction rebuilds the transaction the event was made from.
func (e *TransactionEvent) Transaction() core.Transaction {
	tx := core.Transaction{
		ID:          e.TransactionID,
		UserID:      e.UserID,
		Amount:      e.Amount,
		Description: e.Description,
		Category:    e.Category,
		GoalID:      e.GoalID,
		BudgetID:    e.BudgetID,
	}
	if d, err := core.ParseDate(e.TransactionDate); err == nil {
		tx.TransactionDate = d
	}
	return tx
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and checks an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var evt TransactionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	switch evt.Type {
	case EventTransactionCreated, EventTransactionDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", evt.Type)
	}
	if evt.UserID == 0 || evt.TransactionID == 0 {
		return nil, fmt.Errorf("event %s: missing user or transaction id", evt.EventID)
	}
	return &evt, nil
}
