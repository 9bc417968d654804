// Package providers builds the final multi-stop directions URL. Each mapping
// service gets its own Builder; new providers are added by implementing the
// interface, not by extending a branch statement.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldroute/routegen/cache"
	"github.com/fieldroute/routegen/route"
)

// Provider names accepted from configuration and the CLI.
const (
	Geoapify = "geoapify"
	Google   = "google"
	Mapbox   = "mapbox"
	OSM      = "osm"
)

// DefaultProvider is used when no provider is configured.
const DefaultProvider = Geoapify

var (
	// ErrUnknownProvider is returned by New for names outside the set above,
	// before any network call is made.
	ErrUnknownProvider = errors.New("providers: unknown provider")

	// ErrMissingProviderKey is returned at build time when the selected
	// provider needs an API key and none is configured.
	ErrMissingProviderKey = errors.New("providers: missing API key")
)

// TooManyStopsError is returned instead of silently truncating when a route
// exceeds a provider's per-request waypoint ceiling.
type TooManyStopsError struct {
	Count int
	Limit int
}

func (e *TooManyStopsError) Error() string {
	return fmt.Sprintf("providers: %d waypoints exceeds the ceiling of %d", e.Count, e.Limit)
}

// Builder produces one shareable directions URL for an ordered stop list.
// The stop order is authoritative; builders never ask the provider to
// re-optimize it. An empty destination means the route ends at the last stop.
type Builder interface {
	Name() string
	BuildRouteURL(ctx context.Context, origin string, stops []route.Stop, destination string) (string, error)
}

// Config carries provider credentials and overrides. Only the fields the
// selected provider needs have to be set.
type Config struct {
	GeoapifyKey string
	MapboxToken string
	// OSMBaseURL overrides the public openstreetmap.org instance for
	// self-hosted OSRM-style routers.
	OSMBaseURL string

	// HTTPClient is used for geocoding lookups. Defaults to a short-timeout
	// client; callers typically inject one with a caching transport.
	HTTPClient *http.Client
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 6 * time.Second}
}

// Names lists the accepted provider names.
func Names() []string {
	return []string{Geoapify, Google, Mapbox, OSM}
}

// New resolves a provider name to its Builder. An empty name selects the
// default. Key validation happens here so a misconfigured run fails fast.
func New(name string, cfg Config, c cache.Cache, log zerolog.Logger) (Builder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Geoapify:
		if cfg.GeoapifyKey == "" {
			return nil, fmt.Errorf("%w: GEOAPIFY_API_KEY", ErrMissingProviderKey)
		}
		return &geoapifyBuilder{
			apiKey: cfg.GeoapifyKey,
			http:   cfg.httpClient(),
			cache:  c,
			log:    log,
		}, nil
	case Google:
		return &googleBuilder{}, nil
	case Mapbox:
		if cfg.MapboxToken == "" {
			return nil, fmt.Errorf("%w: MAPBOX_API_KEY", ErrMissingProviderKey)
		}
		return &mapboxBuilder{
			token: cfg.MapboxToken,
			http:  cfg.httpClient(),
			cache: c,
			log:   log,
		}, nil
	case OSM:
		base := cfg.OSMBaseURL
		if base == "" {
			base = defaultOSMBaseURL
		}
		return &osmBuilder{baseURL: strings.TrimRight(base, "/")}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownProvider, name, strings.Join(Names(), "|"))
	}
}

// waypoints flattens origin, stop addresses and destination into the final
// visiting order. Destination may be empty.
func waypoints(origin string, stops []route.Stop, destination string) []string {
	out := make([]string, 0, len(stops)+2)
	if origin != "" {
		out = append(out, origin)
	}
	for _, s := range stops {
		out = append(out, s.Address)
	}
	if destination != "" {
		out = append(out, destination)
	}
	return out
}
