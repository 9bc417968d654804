package cache

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileCache implements Cache using one JSON file per entry, grouped into a
// subdirectory per namespace. Expired entries are removed on the read that
// discovers them.
type FileCache struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewFileCache creates a file-backed cache rooted at dir. If dir is empty,
// a default under the current user's home directory is used.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		usr, err := user.Current()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(usr.HomeDir, ".routegen_cache")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	return &FileCache{dir: dir, now: time.Now}, nil
}

// Get implements Cache.
func (fc *FileCache) Get(namespace, key string) ([]byte, bool) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	path := fc.path(namespace, key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Unreadable entry counts as a miss; drop it.
		_ = os.Remove(path)
		return nil, false
	}

	if entry.Expired(fc.now()) {
		_ = os.Remove(path)
		return nil, false
	}

	return entry.Body, true
}

// Put implements Cache.
func (fc *FileCache) Put(namespace, key string, payload []byte, ttl time.Duration) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	stored := fc.now()
	entry := Entry{
		StoredAt:  stored,
		ExpiresAt: stored.Add(ttl),
		Body:      json.RawMessage(payload),
	}

	data, err := json.MarshalIndent(&entry, "", "  ")
	if err != nil {
		return err
	}

	path := fc.path(namespace, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	// Write to a temporary file first, then rename (atomic on POSIX).
	tmpPath := path + fmt.Sprintf(".tmp.%d", rand.Int())
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

// path generates the filesystem path for a namespaced key.
func (fc *FileCache) path(namespace, key string) string {
	return filepath.Join(fc.dir, sanitizeKey(namespace), sanitizeKey(key)+".json")
}

// sanitizeKey ensures the key is safe for use as a filename.
func sanitizeKey(key string) string {
	// Very long keys are hashed to avoid filesystem limits.
	if len(key) > 200 {
		hash := md5.Sum([]byte(key))
		return fmt.Sprintf("hash_%x", hash)
	}

	unsafe := []string{"/", "\\", ":", "?", "&", "=", "#", "<", ">", "|", "*", "\"", " "}
	result := key
	for _, char := range unsafe {
		result = strings.ReplaceAll(result, char, "_")
	}

	return result
}
