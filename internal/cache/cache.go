package cache

import (
	"context"
	"time"

	"budgetwise/internal/log"
	"budgetwise/internal/poller"
)

// Cache is the part of LRUCache the services depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	GetOrLoad(key string, load func() (T, error)) (T, error)
	Delete(key string)
	DeletePrefix(prefix string) int
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps expired entries out of registered caches.
type Manager struct {
	caches []Cleaner
	logger *log.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(logger *log.Logger) *Manager {
	return &Manager{logger: logger.WithComponent(log.ComponentCache)}
}

// Register adds a cache to the manager for cleanup. Call before StartCleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// Sweep cleans every registered cache once.
func (m *Manager) Sweep(ctx context.Context) error {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	if total > 0 {
		m.logger.DebugContext(ctx, "Expired cache entries removed", "count", total)
	}
	return nil
}

// StartCleanup sweeps on every interval until Stop is called.
func (m *Manager) StartCleanup(interval time.Duration) error {
	p, err := poller.New("cache-cleanup", interval, m.Sweep, poller.WithLogger(m.logger))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		p.Run(ctx)
	}()
	return nil
}

// Stop gracefully stops the cleanup routine
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
		<-m.done
		m.cancel = nil
	}
}
