package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/fieldroute/routegen/cache"
	"github.com/fieldroute/routegen/route"
)

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("waze", Config{}, cache.NewMemoryCache(), zerolog.Nop())
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestNewMissingKeys(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{Geoapify, Config{}},
		{Mapbox, Config{}},
		{"", Config{}}, // empty name selects the geoapify default
	}

	for _, tt := range tests {
		_, err := New(tt.name, tt.cfg, cache.NewMemoryCache(), zerolog.Nop())
		if !errors.Is(err, ErrMissingProviderKey) {
			t.Errorf("New(%q) err = %v, want ErrMissingProviderKey", tt.name, err)
		}
	}
}

func TestNewKnownProviders(t *testing.T) {
	cfg := Config{GeoapifyKey: "k", MapboxToken: "t"}
	for _, name := range Names() {
		b, err := New(name, cfg, cache.NewMemoryCache(), zerolog.Nop())
		if err != nil {
			t.Errorf("New(%q) returned error: %v", name, err)
			continue
		}
		if b.Name() != name {
			t.Errorf("New(%q).Name() = %q", name, b.Name())
		}
	}
}

func TestGoogleLiteralOrder(t *testing.T) {
	b, err := New(Google, Config{}, cache.NewMemoryCache(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	stops := []route.Stop{
		{Address: "X"},
		{Address: "Y"},
	}
	got, err := b.BuildRouteURL(context.Background(), "Lewiston, ME", stops, "South Paris, ME")
	if err != nil {
		t.Fatalf("BuildRouteURL returned error: %v", err)
	}

	want := "https://www.google.com/maps/dir/" +
		url.QueryEscape("Lewiston, ME") + "/X/Y/" + url.QueryEscape("South Paris, ME")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGoogleNoDestination(t *testing.T) {
	b, _ := New(Google, Config{}, cache.NewMemoryCache(), zerolog.Nop())
	got, err := b.BuildRouteURL(context.Background(), "A", []route.Stop{{Address: "B"}}, "")
	if err != nil {
		t.Fatalf("BuildRouteURL returned error: %v", err)
	}
	if got != "https://www.google.com/maps/dir/A/B" {
		t.Errorf("got %q", got)
	}
}

func TestOSMDefaultAndOverride(t *testing.T) {
	stops := []route.Stop{{Address: "Middle"}}

	b, _ := New(OSM, Config{}, cache.NewMemoryCache(), zerolog.Nop())
	got, err := b.BuildRouteURL(context.Background(), "Start", stops, "End")
	if err != nil {
		t.Fatalf("BuildRouteURL returned error: %v", err)
	}
	if !strings.HasPrefix(got, "https://www.openstreetmap.org/directions?") {
		t.Errorf("expected public OSM base, got %q", got)
	}
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("output is not a URL: %v", err)
	}
	if u.Query().Get("engine") != "fossgis_osrm_car" {
		t.Errorf("expected OSRM engine param, got %q", u.Query().Get("engine"))
	}
	if u.Query().Get("route") != "Start;Middle;End" {
		t.Errorf("unexpected route param: %q", u.Query().Get("route"))
	}

	b, _ = New(OSM, Config{OSMBaseURL: "https://osrm.internal.example/"}, cache.NewMemoryCache(), zerolog.Nop())
	got, err = b.BuildRouteURL(context.Background(), "Start", stops, "End")
	if err != nil {
		t.Fatalf("BuildRouteURL returned error: %v", err)
	}
	if !strings.HasPrefix(got, "https://osrm.internal.example/directions?") {
		t.Errorf("expected overridden base, got %q", got)
	}
}

func TestMapboxTooManyStops(t *testing.T) {
	b, err := New(Mapbox, Config{MapboxToken: "t"}, cache.NewMemoryCache(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	stops := make([]route.Stop, 30)
	for i := range stops {
		stops[i] = route.Stop{Address: fmt.Sprintf("Stop %d", i)}
	}

	_, err = b.BuildRouteURL(context.Background(), "Start", stops, "End")
	var tooMany *TooManyStopsError
	if !errors.As(err, &tooMany) {
		t.Fatalf("expected TooManyStopsError, got %v", err)
	}
	if tooMany.Limit != mapboxMaxWaypoints {
		t.Errorf("expected limit %d, got %d", mapboxMaxWaypoints, tooMany.Limit)
	}
}

func TestMapboxBuildsCoordinateURL(t *testing.T) {
	geocoded := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		geocoded++
		fmt.Fprint(w, `{"features":[{"geometry":{"coordinates":[-70.2,44.1]}}]}`)
	}))
	defer srv.Close()

	b := &mapboxBuilder{token: "t", geocodeURL: srv.URL, http: srv.Client(), cache: cache.NewMemoryCache(), log: zerolog.Nop()}

	got, err := b.BuildRouteURL(context.Background(), "Start", []route.Stop{{Address: "Middle"}}, "End")
	if err != nil {
		t.Fatalf("BuildRouteURL returned error: %v", err)
	}

	u, _ := url.Parse(got)
	if u.Query().Get("coordinates") != "-70.200000,44.100000;-70.200000,44.100000;-70.200000,44.100000" {
		t.Errorf("unexpected coordinates: %q", u.Query().Get("coordinates"))
	}
	if strings.Contains(got, "access_token") {
		t.Error("token must not appear in the shareable URL")
	}
	if geocoded != 3 {
		t.Errorf("expected 3 geocode calls, got %d", geocoded)
	}

	// Second build is served entirely from the geocode cache.
	if _, err := b.BuildRouteURL(context.Background(), "Start", []route.Stop{{Address: "Middle"}}, "End"); err != nil {
		t.Fatalf("cached BuildRouteURL returned error: %v", err)
	}
	if geocoded != 3 {
		t.Errorf("expected cached geocodes on second build, got %d calls", geocoded)
	}
}

func TestGeoapifyURLOmitsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apiKey") != "secret-key" {
			t.Errorf("geocode request missing apiKey, got query %q", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"results":[{"lon":-70.5,"lat":44.2}]}`)
	}))
	defer srv.Close()

	b := &geoapifyBuilder{apiKey: "secret-key", geocodeURL: srv.URL, http: srv.Client(), cache: cache.NewMemoryCache(), log: zerolog.Nop()}

	got, err := b.BuildRouteURL(context.Background(), "Start", []route.Stop{{Address: "Middle"}}, "End")
	if err != nil {
		t.Fatalf("BuildRouteURL returned error: %v", err)
	}

	if strings.Contains(got, "secret-key") {
		t.Errorf("API key leaked into shareable URL: %q", got)
	}
	if !strings.HasPrefix(got, "https://www.openstreetmap.org/directions?") {
		t.Errorf("expected OSM directions link, got %q", got)
	}
}

func TestGeoapifySkipsUnresolvable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("text"), "Nowhere") {
			fmt.Fprint(w, `{"results":[]}`)
			return
		}
		fmt.Fprint(w, `{"results":[{"lon":-70.5,"lat":44.2}]}`)
	}))
	defer srv.Close()

	b := &geoapifyBuilder{apiKey: "k", geocodeURL: srv.URL, http: srv.Client(), cache: cache.NewMemoryCache(), log: zerolog.Nop()}

	got, err := b.BuildRouteURL(context.Background(), "Start", []route.Stop{{Address: "Nowhere Special"}}, "End")
	if err != nil {
		t.Fatalf("BuildRouteURL returned error: %v", err)
	}

	u, _ := url.Parse(got)
	if n := strings.Count(u.Query().Get("route"), ";") + 1; n != 2 {
		t.Errorf("expected 2 waypoints after skipping the unresolvable stop, got %d", n)
	}
}
