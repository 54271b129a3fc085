package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/cbtulcan/inspection-platform/cmd/mainconfig"
	appconfig "github.com/cbtulcan/inspection-platform/internal/config"
	"github.com/cbtulcan/inspection-platform/internal/establishments"
	"github.com/cbtulcan/inspection-platform/internal/notify"
	"github.com/cbtulcan/inspection-platform/internal/observability/metrics"
	"github.com/cbtulcan/inspection-platform/internal/sweeper"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
	"github.com/cbtulcan/inspection-platform/pkg/logging"
)

// The sweeper runs once and exits by default, for cron or a scheduled task.
// Set SWEEP_INTERVAL to keep it resident and sweeping on a ticker.
func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting lifecycle sweeper", "env", cfg.Env, "interval", cfg.SweepInterval.String())

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	emailSender, err := mainconfig.NewEmailSender(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to configure email delivery", "error", err)
		os.Exit(1)
	}
	notifyService := notify.NewService(notify.NewPostgresStore(pool), emailSender, logger)

	sw := sweeper.New(
		turnos.NewPostgresRepository(pool),
		establishments.NewPostgresRepository(pool),
		notifyService,
		metrics.NewSchedulingMetrics(nil),
		logger,
	)

	if cfg.SweepInterval <= 0 {
		res, err := sw.Run(ctx, time.Now())
		if err != nil {
			logger.Error("sweep failed", "error", err)
			os.Exit(1)
		}
		logger.Info("sweep complete",
			"expired", res.Expired, "abandoned", res.Abandoned,
			"reminded", res.Reminded, "failures", res.Failures)
		return
	}

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if _, err := sw.Run(ctx, time.Now()); err != nil {
				logger.Error("sweep failed", "error", err)
			}
		case <-quit:
			logger.Info("sweeper stopped")
			return
		}
	}
}
