package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgetwise/internal/backend"
	"budgetwise/internal/cli"
	apphttp "budgetwise/internal/http"
	"budgetwise/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info", log.ComponentApp))
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	app := cli.BuildApp(context.Background(), logger, cfg, backend.RoleServer)

	if err := app.Caches.StartCleanup(cfg.TrendCacheTTL); err != nil {
		logger.Error("Failed to start cache cleanup", log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		CORSOrigin:         cfg.CORSOrigin,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	}, apphttp.Dependencies{
		Auth:          app.Auth,
		Transactions:  app.Transactions,
		Planner:       app.Planner,
		Notifications: app.Notifications,
		Reports:       app.Reports,
		Trends:        app.Trends,
		Ready:         app.Repo.Ping,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) error {
		return errors.Join(srv.Shutdown(ctx), app.Close())
	})

	logger.Info("Starting budgetwise server", "port", cfg.Port, "amqp_enabled", cfg.AMQPEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		_ = app.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
