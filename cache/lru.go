package cache

import (
	"container/list"
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// lruCache implements an in-memory LRU cache with TTL support.
// Expired entries are evicted lazily on read; there is no background sweep.
type lruCache struct {
	mu      sync.Mutex
	config  *Config
	items   map[string]*list.Element
	lruList *list.List
	size    int64
	hits    uint64
	misses  uint64
}

// cacheEntry represents a single cache entry
type cacheEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
	size      int64
}

// NewLRUCache creates a new LRU cache
func NewLRUCache(config *Config) Cache {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &lruCache{
		config:  config,
		items:   make(map[string]*list.Element),
		lruList: list.New(),
	}
}

// Get retrieves a value from the cache
func (c *lruCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, found := c.items[key]
	if !found {
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}

	entry := element.Value.(*cacheEntry)

	// now >= expiresAt is a miss
	if !c.config.Now().Before(entry.expiresAt) {
		c.removeElement(element)
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}

	c.lruList.MoveToFront(element)

	atomic.AddUint64(&c.hits, 1)
	return entry.value, true
}

// Set stores a value in the cache. A second Set for the same key overwrites.
func (c *lruCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !c.config.Enabled {
		return nil
	}

	if ttl == 0 {
		ttl = c.config.DefaultTTL
	}

	entrySize := int64(len(key) + len(value))
	expiresAt := c.config.Now().Add(ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if element, found := c.items[key]; found {
		entry := element.Value.(*cacheEntry)
		c.size -= entry.size
		entry.value = value
		entry.expiresAt = expiresAt
		entry.size = entrySize
		c.size += entrySize
		c.lruList.MoveToFront(element)
		return nil
	}

	for c.size+entrySize > c.config.MaxSize || c.lruList.Len() >= c.config.MaxItems {
		if c.lruList.Len() == 0 {
			break
		}
		c.removeElement(c.lruList.Back())
	}

	entry := &cacheEntry{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
		size:      entrySize,
	}

	element := c.lruList.PushFront(entry)
	c.items[key] = element
	c.size += entrySize

	return nil
}

// Delete removes a value from the cache
func (c *lruCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, found := c.items[key]; found {
		c.removeElement(element)
	}

	return nil
}

// Clear removes all values from the cache
func (c *lruCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.lruList = list.New()
	c.size = 0

	return nil
}

// Stats returns cache statistics. Keys may include entries that have expired
// but not yet been read.
func (c *lruCache) Stats(ctx context.Context) (CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for key := range c.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return CacheStats{
		Hits:   atomic.LoadUint64(&c.hits),
		Misses: atomic.LoadUint64(&c.misses),
		Size:   uint64(c.size),
		Items:  uint64(c.lruList.Len()),
		Keys:   keys,
	}, nil
}

// removeElement removes an element from the cache (must be called with lock held)
func (c *lruCache) removeElement(element *list.Element) {
	entry := element.Value.(*cacheEntry)
	delete(c.items, entry.key)
	c.lruList.Remove(element)
	c.size -= entry.size
}
