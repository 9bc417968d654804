// Package cache provides a namespaced TTL key/value store used to keep
// repeat lookups off rate-limited upstreams. Entries expire individually
// and are evicted lazily on read.
package cache

import (
	"encoding/json"
	"time"
)

// Namespaces used across the pipeline. Keys are prefixed per namespace so
// collisions across purposes are impossible by construction.
const (
	NSServiceRequests = "servicerequests"
	NSLocations       = "locations"
	NSGeocode         = "geocode"
	NSShortener       = "shortener"
)

// Entry represents a stored payload with its expiry metadata.
type Entry struct {
	StoredAt  time.Time       `json:"stored_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Body      json.RawMessage `json:"body"`
}

// Expired reports whether the entry is past its TTL at the given instant.
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Cache is the store shared by assignment enrichment, geocoding and the
// shortener. A Get immediately after a Put with the same key returns the
// payload until the TTL elapses; after that the key behaves as absent.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the payload for namespace/key, or ok=false on a miss
	// (absent or expired).
	Get(namespace, key string) (payload []byte, ok bool)

	// Put stores the payload under namespace/key for the given TTL.
	Put(namespace, key string, payload []byte, ttl time.Duration) error
}

// GetJSON is a convenience wrapper that unmarshals a hit into out.
func GetJSON(c Cache, namespace, key string, out any) bool {
	b, ok := c.Get(namespace, key)
	if !ok {
		return false
	}
	return json.Unmarshal(b, out) == nil
}

// PutJSON marshals v and stores it under namespace/key.
func PutJSON(c Cache, namespace, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Put(namespace, key, b, ttl)
}
