// Package cli holds the start-up steps shared by the budgetwise binaries.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budgetwise/internal/backend"
	"budgetwise/internal/config"
	"budgetwise/internal/log"

	"github.com/joho/godotenv"
)

// SetupLogger builds the process logger for level and installs it as the
// slog default.
func SetupLogger(level, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: component,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// BuildApp wires the backend for role or exits the process.
func BuildApp(ctx context.Context, logger *log.Logger, cfg *config.Config, role backend.Role) *backend.App {
	backendCfg, err := backend.FromAppConfig(cfg, role)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	app, err := backend.NewFactory(logger).Build(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "role", role)
		os.Exit(1)
	}
	return app
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// The returned context is cancelled on SIGINT or SIGTERM, after which
// cleanup runs with timeout and done is closed.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context) error) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			if err := cleanup(shutdownCtx); err != nil {
				logger.Warn("Shutdown finished with errors", log.FieldError, err)
				return
			}
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
