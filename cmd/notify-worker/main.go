package main

import (
	"context"
	"errors"
	"os"
	"time"

	"budgetwise/internal/backend"
	"budgetwise/internal/cli"
	"budgetwise/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info", log.ComponentWorker))
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)

	logger.Info("Starting notify-worker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	app := cli.BuildApp(context.Background(), logger, cfg, backend.RoleWorker)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) error {
		return app.Close()
	})

	err := app.Broker.ConsumeTransactionEvents(ctx, app.Notifier.HandleTransactionEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		_ = app.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
