package services

import (
	"context"

	"budgetwise/internal/amqp"
)

// EventPublisher delivers transaction events to whoever reacts to them.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, evt *amqp.TransactionEvent) error
}

// EventHandler processes one transaction event.
type EventHandler func(ctx context.Context, evt *amqp.TransactionEvent) error

// InlinePublisher hands events straight to a handler in the calling
// goroutine. It stands in for the broker when AMQP is not configured.
type InlinePublisher struct {
	handler EventHandler
}

func NewInlinePublisher(handler EventHandler) *InlinePublisher {
	return &InlinePublisher{handler: handler}
}

func (p *InlinePublisher) PublishTransactionEvent(ctx context.Context, evt *amqp.TransactionEvent) error {
	return p.handler(ctx, evt)
}
