package main

import (
	"net/http"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/fieldroute/routegen/internal/app"
	"github.com/fieldroute/routegen/internal/config"
	"github.com/fieldroute/routegen/internal/http/routes"
	"github.com/fieldroute/routegen/route"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wire dependencies")
	}

	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing queue client")
		}
	}()

	s := routes.New(routes.ServerOptions{
		Pipelines: func(provider string, dryRun bool) (*route.Pipeline, error) {
			return a.Pipeline(provider, "", "", false, dryRun)
		},
		Queue: queue,
		Log:   logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           hlog.NewHandler(logger)(s.Router),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info().Str("port", cfg.Port).Msg("api listening")
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
