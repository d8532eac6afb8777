package cache

import (
	"context"
	"time"
)

// Cache is the interface for suggestion caching
type Cache interface {
	// Get retrieves a value from the cache. Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value in the cache with a TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from the cache
	Clear(ctx context.Context) error

	// Stats returns cache statistics
	Stats(ctx context.Context) (CacheStats, error)
}

// CacheStats represents cache statistics
type CacheStats struct {
	Hits   uint64   `json:"hits"`
	Misses uint64   `json:"misses"`
	Size   uint64   `json:"size"`
	Items  uint64   `json:"items"`
	Keys   []string `json:"keys"`
}

// Config holds cache configuration
type Config struct {
	// MaxSize is the maximum cache size in bytes (default: 100MB)
	MaxSize int64

	// MaxItems is the maximum number of items (default: 10000)
	MaxItems int

	// DefaultTTL is the default TTL for cached items (default: 24 hours)
	DefaultTTL time.Duration

	// Enabled indicates whether caching is enabled
	Enabled bool

	// Now returns the current time (default: time.Now)
	Now func() time.Time
}

// DefaultTTL is the lifetime of a suggestion entry for every feature
const DefaultTTL = 24 * time.Hour

// DefaultConfig returns a default cache configuration
func DefaultConfig() *Config {
	return &Config{
		MaxSize:    100 * 1024 * 1024, // 100MB
		MaxItems:   10000,
		DefaultTTL: DefaultTTL,
		Enabled:    true,
		Now:        time.Now,
	}
}

// WithNow sets the clock used for expiry
func (c *Config) WithNow(now func() time.Time) *Config {
	c.Now = now
	return c
}

// WithMaxItems sets the maximum number of items
func (c *Config) WithMaxItems(n int) *Config {
	c.MaxItems = n
	return c
}

// WithDefaultTTL sets the default TTL
func (c *Config) WithDefaultTTL(ttl time.Duration) *Config {
	c.DefaultTTL = ttl
	return c
}
