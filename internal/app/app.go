// Package app wires configuration, cache, API clients and the pipeline so
// the CLI, worker and API binaries assemble the same stack.
package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/rs/zerolog"

	"github.com/fieldroute/routegen/bluefolder"
	"github.com/fieldroute/routegen/cache"
	"github.com/fieldroute/routegen/internal/config"
	"github.com/fieldroute/routegen/providers"
	"github.com/fieldroute/routegen/route"
	"github.com/fieldroute/routegen/shortener"
)

type App struct {
	Cfg         *config.Config
	Cache       cache.Cache
	Integration *bluefolder.Integration
	Shortener   *shortener.Client
	Log         zerolog.Logger

	// providerHTTP layers an in-memory HTTP cache under the geocoding
	// calls, on top of the persistent geocode cache.
	providerHTTP *http.Client
}

// New builds the shared dependency graph from configuration.
func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	fileCache, err := cache.NewFileCache(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	opts := []bluefolder.Option{bluefolder.WithLogger(log)}
	if cfg.BlueFolder.BaseURL != "" {
		opts = append(opts, bluefolder.WithBaseURL(cfg.BlueFolder.BaseURL))
	}
	client, err := bluefolder.New(cfg.BlueFolder.APIKey, cfg.BlueFolder.AccountName, opts...)
	if err != nil {
		return nil, err
	}

	return &App{
		Cfg:         cfg,
		Cache:       fileCache,
		Integration: bluefolder.NewIntegration(client, fileCache, log),
		Shortener:   shortener.New(cfg.ShortenerURL, fileCache, log),
		Log:         log,
		providerHTTP: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   6 * time.Second,
		},
	}, nil
}

// Pipeline assembles a run-ready pipeline. An empty provider takes the
// configured one.
func (a *App) Pipeline(provider, origin, destination string, endAtOrigin, dryRun bool) (*route.Pipeline, error) {
	if provider == "" {
		provider = a.Cfg.Provider
	}

	pcfg := a.Cfg.ProviderConfig()
	pcfg.HTTPClient = a.providerHTTP

	builder, err := providers.New(provider, pcfg, a.Cache, a.Log)
	if err != nil {
		return nil, err
	}

	return &route.Pipeline{
		Source:        a.Integration,
		Builder:       builder,
		Shortener:     a.Shortener,
		Writeback:     a.Integration,
		Origin:        origin,
		DefaultOrigin: a.Cfg.DefaultOrigin,
		Destination:   destination,
		EndAtOrigin:   endAtOrigin,
		DryRun:        dryRun,
		Log:           a.Log,
	}, nil
}
