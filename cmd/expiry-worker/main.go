package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/donation-pipeline/internal/config"
	"github.com/hackgods/donation-pipeline/internal/db"
	"github.com/hackgods/donation-pipeline/internal/inventory"
	"github.com/hackgods/donation-pipeline/internal/logging"
)

const runTimeout = 20 * time.Second

type expireFunc func(ctx context.Context) (int, error)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.Bootstrap("expiry-worker")
		boot.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.Env, "expiry-worker")
	logger.Info().Dur("interval", cfg.WorkerInterval).Msg("expiry-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.Connect(pgCtx, cfg.Postgres("expiry-worker"))
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	svc := inventory.NewService(inventory.NewPgRepository(pgPool), logger.With().Str("service", "inventory").Logger())

	run(rootCtx, cfg.WorkerInterval, svc.ExpireUnits, logger)
	logger.Info().Msg("shutdown signal received, expiry worker stopped")
}

// run sweeps once immediately and then on every tick until ctx is done.
func run(ctx context.Context, interval time.Duration, expire expireFunc, logger zerolog.Logger) {
	runOnce(ctx, expire, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce(ctx, expire, logger)
		}
	}
}

func runOnce(ctx context.Context, expire expireFunc, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	start := time.Now()
	n, err := expire(runCtx)
	if err != nil {
		logger.Error().Err(err).Msg("expiry run error")
		return
	}
	logger.Info().Int("expired", n).Dur("took", time.Since(start)).Msg("expiry run complete")
}
