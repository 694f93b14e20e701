package backend

import (
	"errors"

	"budgetwise/internal/ai"
	"budgetwise/internal/amqp"
	"budgetwise/internal/cache"
	"budgetwise/internal/services"
	"budgetwise/internal/sheets"
	"budgetwise/internal/storage"
	"budgetwise/internal/trend"
	"budgetwise/internal/worker"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// App is the object graph shared by the binaries.
type App struct {
	Config Config

	Repo     *storage.SQLiteRepository
	Advisor  ai.Advisor
	Exporter sheets.TransactionExporter
	// Broker is nil when events are handled in-process.
	Broker    *amqp.Client
	Publisher services.EventPublisher
	Notifier  *worker.NotificationWorker

	TrendCache *cache.LRUCache[trend.ChartData]
	Caches     *cache.Manager

	Auth          *services.AuthService
	Transactions  *services.TransactionService
	Planner       *services.PlannerService
	Notifications *services.NotificationService
	Reports       *services.ReportService
	Trends        *services.TrendService

	cleanups []CleanupFunc
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanups = nil
	return errors.Join(errs...)
}

func (a *App) onClose(fn CleanupFunc) {
	a.cleanups = append(a.cleanups, fn)
}
