package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

const (
	// DefaultCacheFileName is the SQLite file created under $HOME.
	DefaultCacheFileName = ".nomis-cache.db"

	// DefaultCacheTTL bounds how stale a cached token list may be before it
	// is rejected as a fallback.
	DefaultCacheTTL = 24 * time.Hour
)

// Cache stores raw fetched coin lists in a local SQLite database so the
// catalog can keep working across restarts when the market API is down.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

// OpenCache opens (and initializes) the catalog cache at path. An empty
// path defaults to $HOME.
func OpenCache(path string) (*Cache, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, DefaultCacheFileName)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS catalog_cache (
		key        TEXT PRIMARY KEY,
		payload    BLOB NOT NULL,
		fetched_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	return &Cache{db: db, ttl: DefaultCacheTTL}, nil
}

// SetTTL overrides the staleness bound
func (c *Cache) SetTTL(ttl time.Duration) {
	c.ttl = ttl
}

// Close closes the underlying database
func (c *Cache) Close() error {
	return c.db.Close()
}

func cacheKey(chain string, tags []string) string {
	if len(tags) == 0 {
		return chain
	}
	return chain + "|" + strings.Join(tags, ",")
}

// Put stores a fetched coin list for a (chain, tags) key
func (c *Cache) Put(chain string, tags []string, coins []apiCoin) error {
	payload, err := json.Marshal(coins)
	if err != nil {
		return fmt.Errorf("failed to marshal coins: %w", err)
	}

	_, err = c.db.Exec(
		`INSERT INTO catalog_cache (key, payload, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		cacheKey(chain, tags), payload, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// Get returns the cached coin list for a (chain, tags) key, or an error when
// absent or older than the TTL.
func (c *Cache) Get(chain string, tags []string) ([]apiCoin, error) {
	var payload []byte
	var fetchedAt int64
	err := c.db.QueryRow(
		`SELECT payload, fetched_at FROM catalog_cache WHERE key = ?`,
		cacheKey(chain, tags),
	).Scan(&payload, &fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("cache miss for %s: %w", chain, err)
	}

	if c.ttl > 0 && time.Since(time.Unix(fetchedAt, 0)) > c.ttl {
		return nil, fmt.Errorf("cache entry for %s is stale", chain)
	}

	var coins []apiCoin
	if err := json.Unmarshal(payload, &coins); err != nil {
		return nil, fmt.Errorf("failed to decode cached coins: %w", err)
	}
	return coins, nil
}
