// Package shortener talks to the Cloudflare-worker URL shortener. The
// write-back field upstream holds ~255 characters, so long provider URLs go
// through here first. Shortening is best-effort: any failure falls back to
// the original URL and never fails the run.
package shortener

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldroute/routegen/cache"
)

// A long URL always maps to the same short URL, so entries can live a while.
const shortURLTTL = 30 * 24 * time.Hour

type Client struct {
	endpoint string
	http     *http.Client
	cache    cache.Cache
	log      zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a shortener client. An empty endpoint disables shortening;
// Shorten then returns its input untouched.
func New(endpoint string, c cache.Cache, log zerolog.Logger, opts ...Option) *Client {
	cl := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: 6 * time.Second},
		cache:    c,
		log:      log,
	}
	for _, o := range opts {
		o(cl)
	}
	return cl
}

// Shorten maps a long URL to its short form. The cache is consulted before
// the network; on any failure the long URL comes back unchanged.
func (c *Client) Shorten(ctx context.Context, longURL string) string {
	if c.endpoint == "" {
		c.log.Warn().Msg("shortener endpoint not set; returning long URL")
		return longURL
	}

	if cached, ok := c.cache.Get(cache.NSShortener, longURL); ok {
		var short string
		if json.Unmarshal(cached, &short) == nil && short != "" {
			return short
		}
	}

	body, err := json.Marshal(map[string]string{"url": longURL})
	if err != nil {
		return longURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/new", bytes.NewReader(body))
	if err != nil {
		return longURL
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("shortener request failed; returning long URL")
		return longURL
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		c.log.Warn().Int("status", resp.StatusCode).Bytes("body", raw).Msg("shortener rejected URL; returning long URL")
		return longURL
	}

	var payload struct {
		Short string `json:"short"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Short == "" {
		c.log.Warn().Err(err).Msg("shortener response missing short field; returning long URL")
		return longURL
	}

	if err := cache.PutJSON(c.cache, cache.NSShortener, longURL, payload.Short, shortURLTTL); err != nil {
		c.log.Warn().Err(err).Msg("short URL cache write failed")
	}
	return payload.Short
}

// Shortened reports whether the returned URL differs from the input, for
// result bookkeeping.
func Shortened(longURL, result string) bool {
	return result != longURL
}
