package enrich

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Cache is a file-backed map of normalized game name to release date.
// A nil value means the name was looked up and the service had no date,
// which is distinct from the name never having been looked up at all.
// Every Put flushes to disk, so a crash loses at most one in-flight
// lookup and restarts never repeat a resolved query.
type Cache struct {
	path string

	mu      sync.Mutex
	entries map[string]*string
}

// OpenCache loads the cache at path. A missing file yields an empty
// cache; an unreadable or corrupt file is a startup error.
func OpenCache(path string) (*Cache, error) {
	c := &Cache{
		path:    path,
		entries: make(map[string]*string),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("corrupt cache %s: %w", path, err)
	}
	if c.entries == nil {
		c.entries = make(map[string]*string)
	}
	return c, nil
}

// Get returns the cached result for name. ok reports whether the name
// has ever been looked up; date is nil for a cached "not found".
func (c *Cache) Get(name string) (date *string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	date, ok = c.entries[CacheKey(name)]
	return date, ok
}

// Put records a lookup result and flushes the cache to disk.
func (c *Cache) Put(name string, date *string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[CacheKey(name)] = date
	return c.flushLocked()
}

// Len returns the number of cached lookups.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) flushLocked() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache directory %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write cache %s: %w", c.path, err)
	}
	return nil
}

// CacheKey normalizes a game name into its cache key.
func CacheKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
