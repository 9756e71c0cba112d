package metadata

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Entry is one cached lookup result.
type Entry struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
}

// Cache persists lookup results as a JSON file so repeated runs skip the
// network. Concurrent runs each hold their own copy; the file is rewritten
// after every store and the last writer wins, which is acceptable because
// entries for the same guess converge on the same value.
type Cache struct {
	path    string
	logger  *slog.Logger
	mu      sync.Mutex
	entries map[string]Entry
}

// OpenCache loads the cache at path, tolerating a missing or corrupt file.
func OpenCache(path string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	cache := &Cache{path: path, logger: logger, entries: make(map[string]Entry)}
	data, err := os.ReadFile(path)
	if err != nil {
		return cache
	}
	if err := json.Unmarshal(data, &cache.entries); err != nil {
		logger.Warn("discarding unreadable title cache",
			slog.String("path", path),
			slog.String("error", err.Error()))
		cache.entries = make(map[string]Entry)
	}
	return cache
}

func cacheKey(guess string) string {
	return strings.ToLower(strings.TrimSpace(guess))
}

// Get returns the cached entry for guess.
func (c *Cache) Get(guess string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[cacheKey(guess)]
	return entry, ok
}

// Put stores an entry and rewrites the backing file.
func (c *Cache) Put(guess string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(guess)] = entry
	c.save()
}

func (c *Cache) save() {
	data, err := json.Marshal(c.entries)
	if err != nil {
		c.logger.Warn("encode title cache", slog.String("error", err.Error()))
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		c.logger.Warn("create title cache dir", slog.String("error", err.Error()))
		return
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		c.logger.Warn("write title cache",
			slog.String("path", c.path),
			slog.String("error", err.Error()))
	}
}
