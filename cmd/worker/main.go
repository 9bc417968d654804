package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/fieldroute/routegen/bluefolder"
	"github.com/fieldroute/routegen/internal/app"
	"github.com/fieldroute/routegen/internal/config"
	"github.com/fieldroute/routegen/internal/jobs"
	"github.com/fieldroute/routegen/internal/store"
	"github.com/fieldroute/routegen/providers"
	"github.com/fieldroute/routegen/route"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "worker").Logger()

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

	var history *store.Store
	if cfg.DatabaseURL != "" {
		history, err = store.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("open route history store")
		}
		defer history.Close()
	}

	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, asynq.Config{
		Concurrency: 4,
		Queues: map[string]int{
			"default": 5,
		},
	})
	mux := asynq.NewServeMux()

	mux.HandleFunc(jobs.TaskGenerateRoute, func(ctx context.Context, t *asynq.Task) error {
		var p jobs.GenerateRoutePayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			logger.Error().Err(err).Msg("bad payload, dropping job")
			return nil
		}

		log := logger.With().Str("run_id", uuid.NewString()).Int("user_id", p.UserID).Logger()
		start := time.Now()

		pl, err := a.Pipeline(p.Provider, p.Origin, p.Destination, false, p.DryRun)
		if err != nil {
			// Unknown provider or missing key won't fix itself on retry.
			log.Error().Err(err).Msg("dropping job")
			return nil
		}
		pl.Log = log

		res, err := pl.Run(ctx, p.UserID)
		duration := time.Since(start)
		if err != nil {
			if errors.Is(err, route.ErrNoAssignments) {
				log.Info().Dur("duration", duration).Msg("nothing scheduled today")
				return nil
			}
			if isRetryableError(err) {
				log.Warn().Dur("duration", duration).Err(err).Msg("retryable failure")
				return err
			}
			log.Error().Dur("duration", duration).Err(err).Msg("permanent failure, dropping job")
			return nil
		}

		if history != nil {
			if err := history.SaveResult(ctx, uuid.New(), p.UserID, res); err != nil {
				log.Warn().Err(err).Msg("recording route history failed")
			}
		}

		log.Info().Dur("duration", duration).Str("url", res.URL).Msg("route generated")
		return nil
	})

	logger.Info().Str("redis", cfg.RedisAddr).Msg("worker running")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped")
	}
}

// isRetryableError splits failures the queue should retry from ones it
// should drop.
func isRetryableError(err error) bool {
	// The client already retried once inside the run; a later attempt gets
	// a fresh rate-limit budget.
	if errors.Is(err, bluefolder.ErrRateLimitExceeded) {
		return true
	}

	// Misconfiguration and oversized routes won't fix themselves.
	if errors.Is(err, providers.ErrUnknownProvider) ||
		errors.Is(err, providers.ErrMissingProviderKey) {
		return false
	}
	var tooMany *providers.TooManyStopsError
	if errors.As(err, &tooMany) {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Network and upstream hiccups.
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "dns") {
		return true
	}
	if strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") {
		return true
	}

	return false
}
