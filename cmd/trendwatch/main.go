// Command trendwatch rebuilds one user's balance trend on a fixed interval
// and logs the headline figures.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"budgetwise/internal/backend"
	"budgetwise/internal/cli"
	"budgetwise/internal/log"
	"budgetwise/internal/poller"
)

func main() {
	username := flag.String("user", "", "username whose trend is watched")
	days := flag.Int("days", 0, "trend window in days (0 uses TREND_WINDOW_DAYS)")
	flag.Parse()

	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info", log.ComponentTrend))
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentTrend)

	if *username == "" {
		logger.Error("Missing -user flag")
		os.Exit(2)
	}

	app := cli.BuildApp(context.Background(), logger, cfg, backend.RoleTrendWatch)

	user, err := app.Auth.Authenticate(context.Background(), *username)
	if err != nil {
		logger.Error("Unknown user", "username", *username, log.FieldError, err)
		_ = app.Close()
		os.Exit(1)
	}

	refresh := func(ctx context.Context) error {
		app.Trends.Invalidate(user.ID)
		chart, err := app.Trends.Chart(ctx, user.ID, *days)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "Balance trend refreshed",
			log.FieldUserID, user.ID,
			"points", len(chart.Labels),
			"current_balance", chart.CurrentBalance,
			"percentage_change", chart.PercentageChange)
		return nil
	}

	p, err := poller.New("trendwatch", cfg.TrendPollInterval, refresh,
		poller.WithImmediate(), poller.WithLogger(logger))
	if err != nil {
		logger.Error("Failed to create poller", log.FieldError, err)
		_ = app.Close()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func(context.Context) error {
		return app.Close()
	})

	p.Run(ctx)

	cli.WaitForShutdown(ctx, done)
}
