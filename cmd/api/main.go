package main

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	server "github.com/elite42/gudbro-verticals-sub027/internal/adapters/http_server"
	"github.com/elite42/gudbro-verticals-sub027/internal/adapters/notify"
	"github.com/elite42/gudbro-verticals-sub027/internal/adapters/observability"
	redisad "github.com/elite42/gudbro-verticals-sub027/internal/adapters/redis"
	"github.com/elite42/gudbro-verticals-sub027/internal/adapters/token"
	"github.com/elite42/gudbro-verticals-sub027/internal/app"
	"github.com/elite42/gudbro-verticals-sub027/internal/domain"
	"github.com/elite42/gudbro-verticals-sub027/internal/shared"
	"github.com/elite42/gudbro-verticals-sub027/internal/storage/postgres"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api")

	observability.Serve()

	// db
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("pgxpool.New failed")
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}
	log.Info().Msg("database ready")

	// deps
	repo := postgres.New(pool)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	tokens, err := token.New(cfg.TokenSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("token issuer init failed")
	}
	var notifier domain.Notifier
	if wh := notify.New(cfg.WebhookURL, cfg.WebhookRPS); wh != nil {
		notifier = wh
	}
	b := app.NewBookingService(repo, cache, tokens, notifier, cfg.CacheTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{B: b})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
