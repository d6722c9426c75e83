package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/telemed-routing/internal/app"
	"github.com/hackgods/telemed-routing/internal/appointment"
	"github.com/hackgods/telemed-routing/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("config load error")
	}
	logger := app.NewLogger(cfg, "reassign-worker")
	logger.Info().
		Dur("interval", cfg.WorkerInterval).
		Int("batch", cfg.WorkerBatchSize).
		Msg("reassign worker starting")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	runOnce(rootCtx, a.Appointments, cfg.WorkerBatchSize, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping reassign worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, a.Appointments, cfg.WorkerBatchSize, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, batch int, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	n, err := svc.ReassignQueued(runCtx, batch)
	if err != nil {
		logger.Error().Err(err).Msg("reassign run failed")
		return
	}
	logger.Info().Int("assigned", n).Dur("took", time.Since(start)).Msg("reassign run complete")
}
