package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Context represents a suggestion request throughout its lifecycle
type Context struct {
	RequestID string
	UserID    string
	Feature   string
	StartTime time.Time
	Metadata  map[string]any
	mu        sync.RWMutex
}

// NewContext creates a new request context
func NewContext(userID, feature string) *Context {
	return &Context{
		RequestID: uuid.New().String(),
		UserID:    userID,
		Feature:   feature,
		StartTime: time.Now(),
		Metadata:  make(map[string]any),
	}
}

// Set stores a value in the context metadata
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Metadata[key] = value
}

// Get retrieves a value from the context metadata
func (c *Context) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Metadata[key]
}

// Elapsed returns the time since the request started
func (c *Context) Elapsed() time.Duration {
	return time.Since(c.StartTime)
}

type contextKey struct{}

// WithContext attaches the request context to ctx
func WithContext(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// FromContext returns the request context attached to ctx, if any
func FromContext(ctx context.Context) (*Context, bool) {
	rc, ok := ctx.Value(contextKey{}).(*Context)
	return rc, ok
}
