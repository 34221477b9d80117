// Package main is the entry point for the co-investment deals dashboard.
//
// Startup sequence:
// 1. Load configuration from environment variables (and .env)
// 2. Initialize logging
// 3. Wire dependencies (snapshot storage, sheet source, deal pipeline, jobs)
// 4. Warm the deal cache and start the scheduler
// 5. Serve HTTP until SIGINT/SIGTERM, then shut down gracefully
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/coinvest/internal/config"
	"github.com/aristath/coinvest/internal/di"
	"github.com/aristath/coinvest/internal/server"
	"github.com/aristath/coinvest/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("version", version).Msg("Starting co-investment deals dashboard")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, jobs, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv, err := server.New(server.Config{
		Log:        log,
		Port:       cfg.Port,
		DevMode:    cfg.DevMode,
		Deals:      container.DealRepository,
		Presenter:  container.Presenter,
		Source:     container.Source,
		EventBus:   container.EventBus,
		Metrics:    container.Metrics,
		Scheduler:  container.Scheduler,
		SnapshotDB: container.SnapshotDB,
		Version:    getEnv("VERSION", version),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	// Warm the cache so the first page load does not wait on the sheet
	go func() {
		if jobs.DealsRefresh != nil {
			if err := container.Scheduler.RunNow(jobs.DealsRefresh); err != nil {
				log.Warn().Err(err).Msg("Initial deal fetch failed")
			}
			return
		}
		if _, err := container.DealRepository.FetchDeals(ctx); err != nil {
			log.Warn().Err(err).Msg("Initial deal fetch failed")
		}
	}()

	container.Scheduler.Start()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	container.Scheduler.Stop()
	log.Info().Msg("Scheduler stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
