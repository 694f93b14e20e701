// Package poller runs a task on a fixed interval until its context ends.
package poller

import (
	"context"
	"errors"
	"time"

	"budgetwise/internal/log"
)

var ErrInvalidInterval = errors.New("poll interval must be positive")

// Task is one polling round. Errors are logged and polling continues.
type Task func(ctx context.Context) error

type Poller struct {
	name      string
	interval  time.Duration
	task      Task
	immediate bool
	logger    *log.Logger
}

type Option func(*Poller)

// WithImmediate runs the task once before the first tick.
func WithImmediate() Option {
	return func(p *Poller) { p.immediate = true }
}

func WithLogger(logger *log.Logger) Option {
	return func(p *Poller) { p.logger = logger.WithComponent(log.ComponentPoller) }
}

func New(name string, interval time.Duration, task Task, opts ...Option) (*Poller, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	p := &Poller{
		name:     name,
		interval: interval,
		task:     task,
		logger:   log.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run blocks until ctx is cancelled. Rounds never overlap: a slow task
// delays the next tick instead of stacking up.
func (p *Poller) Run(ctx context.Context) {
	p.logger.InfoContext(ctx, "Poller started", "poller", p.name, "interval", p.interval)
	defer p.logger.InfoContext(ctx, "Poller stopped", "poller", p.name)

	if p.immediate {
		p.round(ctx)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.round(ctx)
		}
	}
}

func (p *Poller) round(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := p.task(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.WarnContext(ctx, "Poll round failed", "poller", p.name, log.FieldError, err)
	}
}
