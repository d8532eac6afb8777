// Package sqlite provides a cache.Cache backed by SQLite so several
// processes can share suggestion entries through one database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/deeplooplabs/ai-assistant/cache"
)

// Cache is a key/value suggestion cache backed by SQLite.
type Cache struct {
	db     *sql.DB
	ttl    time.Duration
	now    func() time.Time
	hits   atomic.Uint64
	misses atomic.Uint64
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS suggestion_cache (
	cache_key TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
`

// New opens (or creates) the cache database at dbPath. Writers wait on the
// file lock instead of failing, so processes and goroutines can share one file.
func New(dbPath string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

// WithNow overrides the clock used for expiry.
func (c *Cache) WithNow(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Get retrieves a cached payload. Expired rows are deleted and count as misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	var payload []byte
	var expiresAt int64

	err := c.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM suggestion_cache WHERE cache_key = ?`, key,
	).Scan(&payload, &expiresAt)
	if err != nil {
		c.misses.Add(1)
		return nil, false
	}

	if c.now().UnixNano() >= expiresAt {
		_, _ = c.db.ExecContext(ctx, `DELETE FROM suggestion_cache WHERE cache_key = ? AND expires_at = ?`, key, expiresAt)
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return payload, true
}

// Set stores a payload, replacing any previous value for key.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO suggestion_cache (cache_key, payload, expires_at) VALUES (?, ?, ?)`,
		key, value, c.now().Add(ttl).UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete removes a single key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM suggestion_cache WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM suggestion_cache`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// Stats returns entry counts and the hit/miss counters of this process.
func (c *Cache) Stats(ctx context.Context) (cache.CacheStats, error) {
	var items int64
	var size sql.NullInt64
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), SUM(LENGTH(cache_key) + LENGTH(payload)) FROM suggestion_cache`,
	).Scan(&items, &size)
	if err != nil {
		return cache.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, `SELECT cache_key FROM suggestion_cache ORDER BY cache_key`)
	if err != nil {
		return cache.CacheStats{}, fmt.Errorf("cache keys: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0, items)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return cache.CacheStats{}, fmt.Errorf("scan cache key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return cache.CacheStats{}, fmt.Errorf("cache keys: %w", err)
	}

	return cache.CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   uint64(size.Int64),
		Items:  uint64(items),
		Keys:   keys,
	}, nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

var _ cache.Cache = (*Cache)(nil)
