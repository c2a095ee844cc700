package artwork

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"marquee/internal/logging"
)

// maxCacheEntries bounds the on-disk cache; the oldest entries are evicted
// once the limit is reached.
const maxCacheEntries = 256

// Entry represents a cached mapping from library item to resolved artwork.
type Entry struct {
	ItemID   string    `json:"item_id"`
	Art      Art       `json:"art"`
	CachedAt time.Time `json:"cached_at"`
}

// Cache provides thread-safe access to the artwork cache. Posters for a
// library item are stable, so resolved lookups are reused across playback
// sessions instead of re-querying TMDB and the Cover Art Archive.
type Cache struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewCache creates a new cache instance. If path is empty, the cache will be
// non-functional (all operations become no-ops). The cache file is created
// lazily on first Store call.
func NewCache(path string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "artwork")

	c := &Cache{
		path:    path,
		logger:  logger,
		entries: make(map[string]Entry),
	}

	if path == "" {
		return c
	}

	if err := c.load(); err != nil {
		logger.Warn("failed to load artwork cache",
			logging.String(logging.FieldEventType, "artwork_cache_load_failed"),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "cache will start empty"),
			logging.String(logging.FieldImpact, "posters will be re-fetched from TMDB and the Cover Art Archive"))
	}

	return c
}

// Lookup returns the cached artwork for the given item id if present.
func (c *Cache) Lookup(itemID string) (Art, bool) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" || c.path == "" {
		return Art{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[itemID]
	return entry.Art, found
}

// Store adds or updates an entry in the cache and persists to disk.
func (c *Cache) Store(itemID string, art Art) error {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return errors.New("item id cannot be empty")
	}
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[itemID] = Entry{ItemID: itemID, Art: art, CachedAt: time.Now()}
	c.evictLocked()

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	c.logger.Debug("cached artwork",
		logging.String(logging.FieldItemID, itemID),
		logging.String("large_image", art.LargeImage))

	return nil
}

// evictLocked drops the oldest entries once the cache exceeds its bound.
func (c *Cache) evictLocked() {
	for len(c.entries) > maxCacheEntries {
		oldestID := ""
		var oldestAt time.Time
		for id, entry := range c.entries {
			if oldestID == "" || entry.CachedAt.Before(oldestAt) {
				oldestID = id
				oldestAt = entry.CachedAt
			}
		}
		delete(c.entries, oldestID)
	}
}

// Count returns the number of entries in the cache.
func (c *Cache) Count() int {
	if c.path == "" {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Clear removes all entries and persists the empty cache.
func (c *Cache) Clear() error {
	if c.path == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)

	if err := c.save(); err != nil {
		return fmt.Errorf("persist cache: %w", err)
	}

	c.logger.Debug("cleared artwork cache")
	return nil
}

// load reads the cache from disk into memory.
func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read cache file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}

	c.entries = make(map[string]Entry, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.ItemID) != "" {
			c.entries[entry.ItemID] = entry
		}
	}

	c.logger.Debug("loaded artwork cache",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.path))

	return nil
}

// save writes the cache to disk atomically.
func (c *Cache) save() error {
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CachedAt.After(entries[j].CachedAt)
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
