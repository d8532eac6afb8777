package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeplooplabs/ai-assistant/usage"
	usagesqlite "github.com/deeplooplabs/ai-assistant/usage/sqlite"
)

func newTestCache(t *testing.T, now func() time.Time) *Cache {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache_test.db")
	c, err := New(dbPath, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	if now != nil {
		c.WithNow(now)
	}
	return c
}

func TestSetAndGet(t *testing.T) {
	c := newTestCache(t, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "msg:abc", []byte(`{"value":1}`), time.Hour))

	data, ok := c.Get(ctx, "msg:abc")
	require.True(t, ok)
	assert.Equal(t, `{"value":1}`, string(data))

	_, ok = c.Get(ctx, "msg:other")
	assert.False(t, ok)
}

func TestTTLBoundary(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	c := newTestCache(t, func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	now = now.Add(time.Minute - time.Nanosecond)
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok, "expected hit before expiry")

	now = now.Add(time.Nanosecond)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok, "expected miss at expiry")

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Items, "expired row should be evicted on read")
}

func TestOverwriteDeleteClear(t *testing.T) {
	c := newTestCache(t, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "a", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("3"), 0))

	data, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "2", string(data))

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, stats.Keys)
	assert.EqualValues(t, 2, stats.Items)

	require.NoError(t, c.Delete(ctx, "a"))
	_, ok = c.Get(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, c.Clear(ctx))
	stats, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats.Keys)
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
}

func TestConcurrentWritersShareOneFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "shared.db")
	ctx := context.Background()

	// Two cache handles and a usage ledger on one file, as the CLI wires them
	first, err := New(dbPath, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Close() })
	second, err := New(dbPath, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })
	ledger, err := usagesqlite.New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })

	const workers, perWorker = 8, 50
	var failures atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			c := first
			if w%2 == 1 {
				c = second
			}
			for i := 0; i < perWorker; i++ {
				if err := c.Set(ctx, fmt.Sprintf("k-%d-%d", w, i), []byte("v"), time.Hour); err != nil {
					failures.Add(1)
				}
				rec := usage.Record{
					ID:        fmt.Sprintf("r-%d-%d", w, i),
					UserID:    "u1",
					Feature:   "relationship_tip",
					CreatedAt: time.Now(),
				}
				if err := ledger.Record(ctx, rec); err != nil {
					failures.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Zero(t, failures.Load())

	stats, err := first.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, workers*perWorker, stats.Items)
}
