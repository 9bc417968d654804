package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fieldroute/routegen/cache"
	"github.com/fieldroute/routegen/route"
)

const (
	mapboxGeocodeURL    = "https://api.mapbox.com/search/geocode/v6/forward"
	mapboxDirectionsURL = "https://www.mapbox.com/directions"

	// mapboxMaxWaypoints is the Directions API per-request coordinate
	// ceiling. Routes past it fail rather than silently truncate.
	mapboxMaxWaypoints = 25
)

// mapboxBuilder forward-geocodes through Mapbox and emits a directions-style
// coordinate URL. The access token stays out of the shareable link.
type mapboxBuilder struct {
	token      string
	geocodeURL string
	http       *http.Client
	cache      cache.Cache
	log        zerolog.Logger
}

func (b *mapboxBuilder) Name() string { return Mapbox }

func (b *mapboxBuilder) BuildRouteURL(ctx context.Context, origin string, stops []route.Stop, destination string) (string, error) {
	full := waypoints(origin, stops, destination)
	if len(full) > mapboxMaxWaypoints {
		return "", &TooManyStopsError{Count: len(full), Limit: mapboxMaxWaypoints}
	}
	if len(full) < 2 {
		return "", fmt.Errorf("mapbox: need at least two waypoints, have %d", len(full))
	}

	pairs := make([]string, 0, len(full))
	for _, addr := range full {
		p, err := b.geocode(ctx, addr)
		if err != nil {
			return "", fmt.Errorf("mapbox: geocode %q: %w", addr, err)
		}
		pairs = append(pairs, fmt.Sprintf("%f,%f", p.Lon, p.Lat))
	}

	q := url.Values{}
	q.Set("coordinates", strings.Join(pairs, ";"))
	return mapboxDirectionsURL + "?" + q.Encode(), nil
}

func (b *mapboxBuilder) geocode(ctx context.Context, address string) (geoPoint, error) {
	if p, ok := cachedGeocode(b.cache, address); ok {
		return p, nil
	}

	q := url.Values{}
	q.Set("q", address)
	q.Set("access_token", b.token)

	endpoint := b.geocodeURL
	if endpoint == "" {
		endpoint = mapboxGeocodeURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return geoPoint{}, err
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return geoPoint{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return geoPoint{}, fmt.Errorf("%s: %s", resp.Status, body)
	}

	var payload struct {
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return geoPoint{}, err
	}
	if len(payload.Features) == 0 || len(payload.Features[0].Geometry.Coordinates) < 2 {
		return geoPoint{}, fmt.Errorf("no geocode result")
	}

	coords := payload.Features[0].Geometry.Coordinates
	p := geoPoint{Lon: coords[0], Lat: coords[1]}
	if err := storeGeocode(b.cache, address, p); err != nil {
		b.log.Warn().Err(err).Msg("geocode cache write failed")
	}
	return p, nil
}
