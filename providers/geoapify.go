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
	geoapifyGeocodeURL = "https://api.geoapify.com/v1/geocode/search"
	osmDirectionsURL   = "https://www.openstreetmap.org/directions"
)

// geoapifyBuilder geocodes addresses through Geoapify and emits an
// openstreetmap.org directions link. The API key is only used for the
// server-side lookups; the shareable URL never contains it.
type geoapifyBuilder struct {
	apiKey     string
	geocodeURL string
	http       *http.Client
	cache      cache.Cache
	log        zerolog.Logger
}

func (b *geoapifyBuilder) Name() string { return Geoapify }

func (b *geoapifyBuilder) BuildRouteURL(ctx context.Context, origin string, stops []route.Stop, destination string) (string, error) {
	full := waypoints(origin, stops, destination)

	coords := make([]geoPoint, 0, len(full))
	for _, addr := range full {
		p, err := b.geocode(ctx, addr)
		if err != nil {
			return "", fmt.Errorf("geoapify: geocode %q: %w", addr, err)
		}
		if p == nil {
			// No match is a data problem with one address; drop the stop
			// rather than failing the whole route.
			b.log.Warn().Str("address", addr).Msg("no geocode result; skipping stop")
			continue
		}
		coords = append(coords, *p)
	}

	if len(coords) < 2 {
		return "", fmt.Errorf("geoapify: need at least two geocoded waypoints, have %d", len(coords))
	}

	pairs := make([]string, len(coords))
	for i, p := range coords {
		pairs[i] = fmt.Sprintf("%f,%f", p.Lat, p.Lon)
	}

	q := url.Values{}
	q.Set("engine", "fossgis_osrm_car")
	q.Set("route", strings.Join(pairs, ";"))
	return osmDirectionsURL + "?" + q.Encode(), nil
}

// geocode resolves one address, hitting the shared cache first. A nil point
// with nil error means the provider had no match.
func (b *geoapifyBuilder) geocode(ctx context.Context, address string) (*geoPoint, error) {
	if p, ok := cachedGeocode(b.cache, address); ok {
		return &p, nil
	}

	q := url.Values{}
	q.Set("text", address)
	q.Set("limit", "1")
	q.Set("format", "json")
	q.Set("apiKey", b.apiKey)

	endpoint := b.geocodeURL
	if endpoint == "" {
		endpoint = geoapifyGeocodeURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s: %s", resp.Status, body)
	}

	var payload struct {
		Results []struct {
			Lon float64 `json:"lon"`
			Lat float64 `json:"lat"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}

	p := geoPoint{Lon: payload.Results[0].Lon, Lat: payload.Results[0].Lat}
	if err := storeGeocode(b.cache, address, p); err != nil {
		b.log.Warn().Err(err).Msg("geocode cache write failed")
	}
	return &p, nil
}
