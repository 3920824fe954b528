package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/elite42/gudbro-verticals-sub027/internal/adapters/notify"
	"github.com/elite42/gudbro-verticals-sub027/internal/adapters/observability"
	"github.com/elite42/gudbro-verticals-sub027/internal/app"
	"github.com/elite42/gudbro-verticals-sub027/internal/domain"
	"github.com/elite42/gudbro-verticals-sub027/internal/shared"
	"github.com/elite42/gudbro-verticals-sub027/internal/storage/postgres"
)

// The expirer owns the pending -> cancelled transition: once an inquiry's
// deadline passes, cancelling it drops the row out of the exclusion
// constraint's predicate and the dates become bookable again.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, "expirer")

	log.Info().
		Str("schedule", cfg.SweepSchedule).
		Int("workers", cfg.SweepWorkers).
		Int("batch", cfg.SweepBatch).
		Msg("expirer starting")

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("pgxpool.New failed")
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}

	repo := postgres.New(pool)
	var notifier domain.Notifier
	if wh := notify.New(cfg.WebhookURL, cfg.WebhookRPS); wh != nil {
		notifier = wh
	}
	sweeper := app.NewExpiryService(repo, notifier, cfg.SweepWorkers, cfg.SweepBatch)

	c := cron.New()
	if _, err := c.AddFunc(cfg.SweepSchedule, func() {
		n, err := sweeper.Sweep(ctx)
		if err != nil {
			log.Error().Err(err).Msg("sweep failed")
			return
		}
		if n > 0 {
			log.Info().Int("cancelled", n).Msg("sweep completed")
		}
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.SweepSchedule).Msg("invalid sweep schedule")
	}
	c.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("expirer stopping")
	<-c.Stop().Done()
}
