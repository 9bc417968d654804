package cache

import (
	"encoding/json"
	"sync"
	"time"
)

// MemoryCache implements Cache with an in-process map. It satisfies the same
// contract as FileCache but starts empty every run, which the pipeline must
// tolerate anyway.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

func nsKey(namespace, key string) string {
	return namespace + "\x00" + key
}

// Get implements Cache.
func (mc *MemoryCache) Get(namespace, key string) ([]byte, bool) {
	k := nsKey(namespace, key)

	mc.mu.RLock()
	entry, ok := mc.entries[k]
	mc.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if entry.Expired(mc.now()) {
		mc.mu.Lock()
		// Re-check under the write lock; a concurrent Put may have refreshed it.
		if cur, ok := mc.entries[k]; ok && cur.Expired(mc.now()) {
			delete(mc.entries, k)
		}
		mc.mu.Unlock()
		return nil, false
	}

	return entry.Body, true
}

// Put implements Cache.
func (mc *MemoryCache) Put(namespace, key string, payload []byte, ttl time.Duration) error {
	stored := mc.now()
	body := make(json.RawMessage, len(payload))
	copy(body, payload)

	mc.mu.Lock()
	mc.entries[nsKey(namespace, key)] = Entry{
		StoredAt:  stored,
		ExpiresAt: stored.Add(ttl),
		Body:      body,
	}
	mc.mu.Unlock()
	return nil
}

// Len returns the number of live (non-expired) entries.
func (mc *MemoryCache) Len() int {
	now := mc.now()

	mc.mu.RLock()
	defer mc.mu.RUnlock()

	n := 0
	for _, e := range mc.entries {
		if !e.Expired(now) {
			n++
		}
	}
	return n
}
