package provider

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	// MaxAttempts is the total number of tries, including the first (default: 3)
	MaxAttempts int

	// RateLimitDelay is used when the provider rate limits without a Retry-After (default: 5s)
	RateLimitDelay time.Duration

	// BackoffStep is the linear backoff unit; attempt n waits n*BackoffStep (default: 1s)
	BackoffStep time.Duration

	// Enabled indicates whether retries are enabled
	Enabled bool
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:    3,
		RateLimitDelay: 5 * time.Second,
		BackoffStep:    time.Second,
		Enabled:        true,
	}
}

// attempts returns the effective attempt budget
func (rc *RetryConfig) attempts() int {
	if rc == nil || !rc.Enabled || rc.MaxAttempts < 1 {
		return 1
	}
	return rc.MaxAttempts
}

// newBackOff returns the delay schedule for one Send call. It yields
// step, 2*step, ... and then backoff.Stop once the attempt budget is spent.
func (rc *RetryConfig) newBackOff() backoff.BackOff {
	step := time.Second
	if rc != nil && rc.BackoffStep > 0 {
		step = rc.BackoffStep
	}
	return backoff.WithMaxRetries(&linearBackOff{step: step}, uint64(rc.attempts()-1))
}

// linearBackOff implements backoff.BackOff with a linearly growing delay
type linearBackOff struct {
	step time.Duration
	n    int
}

// NextBackOff implements backoff.BackOff
func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

// Reset implements backoff.BackOff
func (b *linearBackOff) Reset() {
	b.n = 0
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// sleepContext is the default SleepFunc
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

type retryHintKey struct{}

// retryHint carries the Retry-After value of a 429 response back to the retry loop
type retryHint struct {
	delay time.Duration
}

func withRetryHint(ctx context.Context, hint *retryHint) context.Context {
	return context.WithValue(ctx, retryHintKey{}, hint)
}

// parseRetryAfter reads retry-after-ms or Retry-After (seconds or HTTP date)
func parseRetryAfter(header http.Header, now time.Time) time.Duration {
	if ms := header.Get("Retry-After-Ms"); ms != "" {
		if v, err := strconv.ParseFloat(ms, 64); err == nil && v > 0 {
			return time.Duration(v * float64(time.Millisecond))
		}
	}

	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
