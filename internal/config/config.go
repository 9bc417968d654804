// Package config handles application configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/fieldroute/routegen/providers"
)

// Config holds everything the binaries need to wire the pipeline.
type Config struct {
	BlueFolder BlueFolderConfig
	Providers  ProvidersConfig

	// Provider selects the mapping service for this run.
	Provider string `env:"ROUTE_PROVIDER" envDefault:"geoapify"`

	// DefaultOrigin is the route start used when a technician has no
	// address on file.
	DefaultOrigin string `env:"DEFAULT_ORIGIN" envDefault:"South Paris, ME"`

	// ShortenerURL is the Cloudflare worker endpoint; empty disables
	// shortening.
	ShortenerURL string `env:"CF_SHORTENER_URL"`

	// CacheDir overrides the on-disk cache location; empty uses the
	// default under the home directory.
	CacheDir string `env:"ROUTEGEN_CACHE_DIR"`

	// RedisAddr and DatabaseURL are only needed by the worker and API.
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DatabaseURL string `env:"DATABASE_URL"`
	Port        string `env:"PORT" envDefault:"8080"`
}

// BlueFolderConfig holds ticketing API credentials.
type BlueFolderConfig struct {
	APIKey      string `env:"BLUEFOLDER_API_KEY"`
	AccountName string `env:"BLUEFOLDER_ACCOUNT_NAME"`
	BaseURL     string `env:"BLUEFOLDER_BASE_URL"`
}

// ProvidersConfig holds mapping-service credentials and overrides.
type ProvidersConfig struct {
	GeoapifyKey string `env:"GEOAPIFY_API_KEY"`
	MapboxToken string `env:"MAPBOX_API_KEY"`
	OSMBaseURL  string `env:"OSM_BASE_URL"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields every run needs. Provider key presence is
// checked later by the provider factory, which knows which keys matter.
func (c *Config) Validate() error {
	if c.BlueFolder.APIKey == "" || c.BlueFolder.AccountName == "" {
		return fmt.Errorf("BLUEFOLDER_API_KEY and BLUEFOLDER_ACCOUNT_NAME are required")
	}
	return nil
}

// ProviderConfig adapts the env fields to the provider factory's input.
func (c *Config) ProviderConfig() providers.Config {
	return providers.Config{
		GeoapifyKey: c.Providers.GeoapifyKey,
		MapboxToken: c.Providers.MapboxToken,
		OSMBaseURL:  c.Providers.OSMBaseURL,
	}
}
