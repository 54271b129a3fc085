package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cbtulcan/inspection-platform/cmd/mainconfig"
	"github.com/cbtulcan/inspection-platform/internal/agenda"
	"github.com/cbtulcan/inspection-platform/internal/api/router"
	"github.com/cbtulcan/inspection-platform/internal/booking"
	appconfig "github.com/cbtulcan/inspection-platform/internal/config"
	"github.com/cbtulcan/inspection-platform/internal/establishments"
	"github.com/cbtulcan/inspection-platform/internal/geo"
	"github.com/cbtulcan/inspection-platform/internal/notify"
	"github.com/cbtulcan/inspection-platform/internal/observability/metrics"
	"github.com/cbtulcan/inspection-platform/internal/routing"
	"github.com/cbtulcan/inspection-platform/internal/turnos"
	"github.com/cbtulcan/inspection-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting inspection-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

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

	schedMetrics := metrics.NewSchedulingMetrics(nil)

	// Notifications
	emailSender, err := mainconfig.NewEmailSender(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to configure email delivery", "error", err)
		os.Exit(1)
	}
	notifyService := notify.NewService(notify.NewPostgresStore(pool), emailSender, logger)

	// Repositories
	slotRepo := agenda.NewPostgresRepository(pool)
	apptRepo := turnos.NewPostgresRepository(pool)
	estRepo := establishments.NewPostgresRepository(pool)

	// Services
	agendaService := agenda.NewService(slotRepo, apptRepo, logger).
		WithDefaultCapacities(cfg.DefaultMorningCapacity, cfg.DefaultAfternoonCapacity)
	turnoService := turnos.NewService(apptRepo, estRepo, notifyService, schedMetrics, logger)
	bookingService := booking.NewService(slotRepo, apptRepo,
		booking.NewPostgresCoordinator(pool), estRepo, notifyService, schedMetrics, logger)
	depot := geo.Point{Latitude: cfg.DepotLatitude, Longitude: cfg.DepotLongitude}
	routingService := routing.NewService(routing.NewPostgresVisitSource(pool), depot, schedMetrics, logger)

	// Router
	r := router.New(&router.Config{
		Logger:                logger,
		AgendaHandler:         agenda.NewHandler(agendaService, logger),
		TurnosHandler:         turnos.NewHandler(turnoService, logger),
		BookingHandler:        booking.NewHandler(bookingService, logger),
		EstablishmentsHandler: establishments.NewHandler(estRepo, logger),
		NotifyHandler:         notify.NewHandler(notifyService, logger),
		RoutingHandler:        routing.NewHandler(routingService, logger),
		MetricsHandler:        promhttp.Handler(),
		CORSAllowedOrigins:    cfg.CORSAllowedOrigins,
		StaffAuthSecret:       cfg.StaffAuthSecret,
		PublicRateLimit:       cfg.PublicRateLimit,
		PublicRateBurst:       cfg.PublicRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
