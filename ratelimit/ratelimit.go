package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is the interface for per-user request quotas
type Limiter interface {
	// CheckAndConsume counts one request for userID and reports whether it is allowed.
	// A denial is not an error.
	CheckAndConsume(ctx context.Context, userID string) (Decision, error)

	// UsageStats returns a read-only view of the user's current window
	UsageStats(ctx context.Context, userID string) (Stats, error)

	// Reset drops the window for userID
	Reset(ctx context.Context, userID string) error
}

// Decision is the outcome of CheckAndConsume
type Decision struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// Stats is the read-only projection of a user's window
type Stats struct {
	RequestsToday     int       `json:"requests_today"`
	RequestsRemaining int       `json:"requests_remaining"`
	ResetAt           time.Time `json:"reset_at"`
}

// Window is a user's fixed counting window.
// Count never exceeds the configured maximum while now < ResetAt.
type Window struct {
	UserID  string
	Count   int
	ResetAt time.Time
}

// Config holds rate limiter configuration
type Config struct {
	// Max is the number of requests allowed per window (default: 50)
	Max int

	// Window is the length of a counting window (default: 24h)
	Window time.Duration

	// Disabled turns the quota off; the zero value enforces it
	Disabled bool

	// Now returns the current time (default: time.Now)
	Now func() time.Time
}

// DefaultConfig returns a default rate limiter configuration
func DefaultConfig() *Config {
	return &Config{
		Max:    50,
		Window: 24 * time.Hour,
		Now:    time.Now,
	}
}

// WithNow sets the clock
func (c *Config) WithNow(now func() time.Time) *Config {
	c.Now = now
	return c
}

// WithMax sets the per-window quota
func (c *Config) WithMax(n int) *Config {
	c.Max = n
	return c
}

// Normalize fills unset fields with defaults
func (c *Config) Normalize() *Config {
	if c.Max <= 0 {
		c.Max = 50
	}
	if c.Window <= 0 {
		c.Window = 24 * time.Hour
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Consume applies one request to w at time now. exists is false when the
// user has no window yet. The window resets entirely once now >= ResetAt.
func Consume(w Window, exists bool, now time.Time, cfg *Config) (Window, Decision) {
	if !exists || !now.Before(w.ResetAt) {
		w.Count = 1
		w.ResetAt = now.Add(cfg.Window)
		return w, Decision{Allowed: true, Remaining: cfg.Max - 1, ResetAt: w.ResetAt}
	}

	if w.Count >= cfg.Max {
		return w, Decision{Allowed: false, Remaining: 0, ResetAt: w.ResetAt}
	}

	w.Count++
	return w, Decision{Allowed: true, Remaining: cfg.Max - w.Count, ResetAt: w.ResetAt}
}

// Project returns the stats view of w at time now
func Project(w Window, exists bool, now time.Time, cfg *Config) Stats {
	if !exists || !now.Before(w.ResetAt) {
		return Stats{
			RequestsToday:     0,
			RequestsRemaining: cfg.Max,
			ResetAt:           now.Add(cfg.Window),
		}
	}

	remaining := cfg.Max - w.Count
	if remaining < 0 {
		remaining = 0
	}
	return Stats{
		RequestsToday:     w.Count,
		RequestsRemaining: remaining,
		ResetAt:           w.ResetAt,
	}
}

// fixedWindow implements Limiter in process memory.
// Windows are created lazily and live for the process lifetime.
type fixedWindow struct {
	mu      sync.Mutex
	config  *Config
	windows map[string]*Window
}

// NewFixedWindow creates a new in-memory fixed window limiter
func NewFixedWindow(config *Config) Limiter {
	if config == nil {
		config = DefaultConfig()
	}

	return &fixedWindow{
		config:  config.Normalize(),
		windows: make(map[string]*Window),
	}
}

// CheckAndConsume implements Limiter
func (fw *fixedWindow) CheckAndConsume(ctx context.Context, userID string) (Decision, error) {
	if fw.config.Disabled {
		return Decision{Allowed: true, Remaining: fw.config.Max}, nil
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	current, exists := fw.windows[userID]
	w := Window{UserID: userID}
	if exists {
		w = *current
	}

	next, decision := Consume(w, exists, fw.config.Now(), fw.config)
	fw.windows[userID] = &next

	return decision, nil
}

// UsageStats implements Limiter
func (fw *fixedWindow) UsageStats(ctx context.Context, userID string) (Stats, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	w, exists := fw.windows[userID]
	if !exists {
		return Project(Window{UserID: userID}, false, fw.config.Now(), fw.config), nil
	}
	return Project(*w, true, fw.config.Now(), fw.config), nil
}

// Reset implements Limiter
func (fw *fixedWindow) Reset(ctx context.Context, userID string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	delete(fw.windows, userID)
	return nil
}
