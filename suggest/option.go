package suggest

import (
	"log/slog"
	"time"

	"github.com/deeplooplabs/ai-assistant/cache"
	"github.com/deeplooplabs/ai-assistant/content"
	"github.com/deeplooplabs/ai-assistant/hook"
	"github.com/deeplooplabs/ai-assistant/model"
	"github.com/deeplooplabs/ai-assistant/provider"
	"github.com/deeplooplabs/ai-assistant/ratelimit"
	"github.com/deeplooplabs/ai-assistant/usage"
)

// Option configures the Service
type Option func(*Service)

// WithCache sets the cache store
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLimiter sets the per-user rate limiter
func WithLimiter(l ratelimit.Limiter) Option {
	return func(s *Service) {
		s.limiter = l
	}
}

// WithProvider sets the generative provider
func WithProvider(p provider.Provider) Option {
	return func(s *Service) {
		s.provider = p
	}
}

// WithContent sets the content repository
func WithContent(r content.Repository) Option {
	return func(s *Service) {
		s.content = r
	}
}

// WithTracker sets the usage tracker
func WithTracker(t *usage.Tracker) Option {
	return func(s *Service) {
		s.tracker = t
	}
}

// WithRegistry sets the feature profile registry
func WithRegistry(r model.Registry) Option {
	return func(s *Service) {
		s.registry = r
	}
}

// WithHooks sets the hook registry. A nil registry resets to an empty one.
func WithHooks(hooks *hook.Registry) Option {
	return func(s *Service) {
		if hooks == nil {
			hooks = hook.NewRegistry()
		}
		s.hooks = hooks
	}
}

// WithHook registers a single hook
func WithHook(h hook.Hook) Option {
	return func(s *Service) {
		s.hooks.Register(h)
	}
}

// WithMetrics sets the Prometheus metrics
func WithMetrics(metrics *Metrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCacheTTL sets the lifetime of cached suggestions (default: 24h)
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithCacheFallbacks controls whether fallbacks caused by provider-stage
// failures are cached (default: true)
func WithCacheFallbacks(enabled bool) Option {
	return func(s *Service) {
		s.cacheFallbacks = enabled
	}
}

// WithNow sets the clock used by default collaborators and prompts
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}
