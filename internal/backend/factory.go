package backend

import (
	"context"
	"fmt"

	"budgetwise/internal/ai"
	"budgetwise/internal/amqp"
	"budgetwise/internal/cache"
	"budgetwise/internal/log"
	"budgetwise/internal/services"
	"budgetwise/internal/sheets"
	gsheet "budgetwise/internal/sheets/google"
	"budgetwise/internal/storage"
	"budgetwise/internal/trend"
	"budgetwise/internal/worker"
)

// Factory wires the application from configuration.
type Factory struct {
	logger *log.Logger

	// Overridable in tests.
	newBroker   func(url, exchange, queue string) (*amqp.Client, error)
	newExporter func(ctx context.Context, cfg Config) (sheets.TransactionExporter, error)
	newAdvisor  func(ctx context.Context, cfg Config) (ai.Advisor, error)
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &Factory{
		logger:      logger.WithComponent(log.ComponentApp),
		newBroker:   amqp.NewClient,
		newExporter: newGoogleExporter,
		newAdvisor:  newGeminiAdvisor,
	}
}

// Build opens storage and wires every service. Optional integrations that
// fail to start are logged and replaced by their in-process stand-ins,
// except the broker for the worker role, which is required.
func (f *Factory) Build(ctx context.Context, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{Config: cfg}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	app.Repo = repo
	app.onClose(repo.Close)

	app.Advisor = f.buildAdvisor(ctx, cfg)

	if cfg.GoogleSpreadsheetID != "" {
		exporter, err := f.newExporter(ctx, cfg)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("failed to initialize Google Sheets exporter: %w", err)
		}
		app.Exporter = exporter
		f.logger.Info("Initialized Google Sheets exporter", "sheet", cfg.GoogleSheetName)
	}

	app.Notifier = worker.NewNotificationWorker(repo, app.Exporter, f.logger)

	if err := f.buildPublisher(app, cfg); err != nil {
		_ = app.Close()
		return nil, err
	}

	app.TrendCache = cache.NewLRUCache[trend.ChartData](cfg.TrendCacheSize, cfg.TrendCacheTTL)
	app.Caches = cache.NewManager(f.logger)
	app.Caches.Register(app.TrendCache)
	app.onClose(func() error {
		app.Caches.Stop()
		return nil
	})

	app.Trends = services.NewTrendService(repo, app.TrendCache, cfg.TrendWindowDays, f.logger)
	app.Auth = services.NewAuthService(repo, f.logger)
	app.Transactions = services.NewTransactionService(repo, app.Advisor, app.Publisher, f.logger, app.Trends)
	app.Planner = services.NewPlannerService(repo)
	app.Notifications = services.NewNotificationService(repo)
	app.Reports = services.NewReportService(repo, app.Advisor, f.logger)

	f.logger.Info("Initialized backend",
		"role", cfg.Role,
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", app.Broker != nil,
		"sheets_enabled", app.Exporter != nil)

	return app, nil
}

func (f *Factory) buildAdvisor(ctx context.Context, cfg Config) ai.Advisor {
	rules := ai.NewRuleAdvisor()
	if cfg.GeminiAPIKey == "" {
		f.logger.Info("No Gemini API key, using rule-based advisor")
		return rules
	}

	gemini, err := f.newAdvisor(ctx, cfg)
	if err != nil {
		f.logger.Warn("Failed to initialize Gemini advisor, using rule-based advisor", log.FieldError, err)
		return rules
	}
	f.logger.Info("Initialized Gemini advisor", "model", cfg.GeminiModel)
	return ai.WithFallback(gemini, rules)
}

func (f *Factory) buildPublisher(app *App, cfg Config) error {
	if cfg.AMQPURL == "" {
		app.Publisher = services.NewInlinePublisher(app.Notifier.HandleTransactionEvent)
		return nil
	}

	broker, err := f.newBroker(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		if cfg.Role == RoleWorker {
			return fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		f.logger.Warn("Failed to initialize AMQP client, handling events in-process", log.FieldError, err)
		app.Publisher = services.NewInlinePublisher(app.Notifier.HandleTransactionEvent)
		return nil
	}

	f.logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	app.Broker = broker
	app.Publisher = broker
	app.onClose(broker.Close)
	return nil
}

func newGoogleExporter(ctx context.Context, cfg Config) (sheets.TransactionExporter, error) {
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newGeminiAdvisor(ctx context.Context, cfg Config) (ai.Advisor, error) {
	gen, err := ai.NewGenAIGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, err
	}
	return ai.NewGeminiAdvisor(gen), nil
}
