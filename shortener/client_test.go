package shortener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/fieldroute/routegen/cache"
)

const longURL = "https://www.google.com/maps/dir/A/B/C"

func TestShortenSuccess(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		fmt.Fprint(w, `{"short":"https://r.example/abc"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, cache.NewMemoryCache(), zerolog.Nop())
	got := c.Shorten(context.Background(), longURL)
	if got != "https://r.example/abc" {
		t.Errorf("got %q", got)
	}
	if gotPath != "/new" {
		t.Errorf("expected POST /new, got %q", gotPath)
	}
	if gotBody["url"] != longURL {
		t.Errorf("expected url field %q, got %v", longURL, gotBody)
	}
}

func TestShortenServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, cache.NewMemoryCache(), zerolog.Nop())
	if got := c.Shorten(context.Background(), longURL); got != longURL {
		t.Errorf("expected fallback to long URL, got %q", got)
	}
}

func TestShortenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(srv.URL, cache.NewMemoryCache(), zerolog.Nop())
	if got := c.Shorten(context.Background(), longURL); got != longURL {
		t.Errorf("expected fallback to long URL, got %q", got)
	}
}

func TestShortenMissingShortField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := New(srv.URL, cache.NewMemoryCache(), zerolog.Nop())
	if got := c.Shorten(context.Background(), longURL); got != longURL {
		t.Errorf("expected fallback to long URL, got %q", got)
	}
}

func TestShortenMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer srv.Close()

	c := New(srv.URL, cache.NewMemoryCache(), zerolog.Nop())
	if got := c.Shorten(context.Background(), longURL); got != longURL {
		t.Errorf("expected fallback to long URL, got %q", got)
	}
}

func TestShortenNoEndpoint(t *testing.T) {
	c := New("", cache.NewMemoryCache(), zerolog.Nop())
	if got := c.Shorten(context.Background(), longURL); got != longURL {
		t.Errorf("expected long URL back when endpoint unset, got %q", got)
	}
}

func TestShortenCacheSkipsNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"short":"https://r.example/abc"}`)
	}))
	defer srv.Close()

	c := New(srv.URL, cache.NewMemoryCache(), zerolog.Nop())
	first := c.Shorten(context.Background(), longURL)
	second := c.Shorten(context.Background(), longURL)

	if first != second || first != "https://r.example/abc" {
		t.Errorf("expected stable short URL, got %q then %q", first, second)
	}
	if calls != 1 {
		t.Errorf("expected 1 network call, got %d", calls)
	}
}
