package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinichub/clinic-scheduling/internal/availability"
	"github.com/clinichub/clinic-scheduling/internal/booking"
	"github.com/clinichub/clinic-scheduling/internal/clock"
	"github.com/clinichub/clinic-scheduling/internal/config"
	"github.com/clinichub/clinic-scheduling/internal/db"
	"github.com/clinichub/clinic-scheduling/internal/directory"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "sweep-worker").Logger()
	log.Info().Msg("sweep-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().Str("env", cfg.Env).Dur("interval", cfg.SweepInterval).Msg("running expiration sweep")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	dirRepo := directory.NewPgRepository(pgPool)
	availRepo := availability.NewPgRepository(pgPool)
	bookingRepo := booking.NewPgRepository(pgPool)
	svc := booking.NewSlotService(bookingRepo, dirRepo, availRepo, clock.System(), log)

	// Run once at startup, then on the interval. The sweep is idempotent so
	// an extra run after a missed tick is harmless.
	runOnce(rootCtx, svc, log)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping sweep worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, log)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.SlotService, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	n, err := svc.ExpireDueSlots(runCtx)
	if err != nil {
		log.Error().Err(err).Msg("sweep run error")
		return
	}
	log.Info().Int64("expired", n).Dur("took", time.Since(start)).Msg("sweep run complete")
}
