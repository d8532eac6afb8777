// Package suggest composes quota, cache, content, provider, parser and
// fallback catalog into the four suggestion generators.
//
// Every generator runs the same pipeline:
//
//	quota -> cache -> content -> provider -> parse -> cache + usage
//
// and never returns an error: any failure yields the feature's fallback
// content, marked Degraded with a Reason.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	assistant "github.com/deeplooplabs/ai-assistant"
	"github.com/deeplooplabs/ai-assistant/cache"
	"github.com/deeplooplabs/ai-assistant/content"
	"github.com/deeplooplabs/ai-assistant/hook"
	"github.com/deeplooplabs/ai-assistant/model"
	"github.com/deeplooplabs/ai-assistant/parse"
	"github.com/deeplooplabs/ai-assistant/provider"
	"github.com/deeplooplabs/ai-assistant/ratelimit"
	"github.com/deeplooplabs/ai-assistant/usage"
)

// Service runs suggestion requests
type Service struct {
	cache          cache.Cache
	limiter        ratelimit.Limiter
	provider       provider.Provider
	content        content.Repository
	tracker        *usage.Tracker
	registry       model.Registry
	hooks          *hook.Registry
	metrics        *Metrics
	logger         *slog.Logger
	ttl            time.Duration
	cacheFallbacks bool
	now            func() time.Time
}

// New creates a service. Unset collaborators default to in-memory
// implementations and an absent provider, so every request degrades.
func New(opts ...Option) *Service {
	s := &Service{
		hooks:          hook.NewRegistry(),
		registry:       model.DefaultRegistry(),
		logger:         slog.Default(),
		ttl:            cache.DefaultTTL,
		cacheFallbacks: true,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cache == nil {
		s.cache = cache.NewLRUCache(cache.DefaultConfig().WithNow(s.now))
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NewFixedWindow(ratelimit.DefaultConfig().WithNow(s.now))
	}
	if s.provider == nil {
		s.provider = provider.NewClient(provider.DefaultConfig(), provider.WithLogger(s.logger))
	}
	if s.content == nil {
		s.content = content.NewMemoryRepository().WithNow(s.now)
	}

	return s
}

// request describes one feature's pipeline
type request[T any] struct {
	feature model.Feature
	userID  string
	params  cache.Params
	// prompt loads content and builds the provider messages
	prompt   func(ctx context.Context) ([]provider.Message, error)
	fallback func() T
}

// Request metadata visible to hooks through assistant.FromContext
const (
	MetaCacheKey  = "cache_key"
	MetaMaxTokens = "max_tokens"
)

func run[T any](ctx context.Context, s *Service, req request[T]) Result[T] {
	rc := assistant.NewContext(req.userID, string(req.feature))
	ctx = assistant.WithContext(ctx, rc)
	defer s.observe(req.feature, rc)

	decision, err := s.limiter.CheckAndConsume(ctx, req.userID)
	if err != nil {
		return degrade(ctx, s, req, "", err)
	}
	if !decision.Allowed {
		if s.metrics != nil {
			s.metrics.QuotaDenied.WithLabelValues(string(req.feature)).Inc()
		}
		return degrade(ctx, s, req, "", assistant.NewQuotaError("daily suggestion quota used up"))
	}

	key := cache.Key(req.feature.CachePrefix(), req.params)
	rc.Set(MetaCacheKey, key)
	if res, ok := lookup[T](ctx, s, req.feature, key); ok {
		return res
	}

	msgs, err := req.prompt(ctx)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			err = assistant.NewNotFoundError("contact not found", err)
		}
		return degrade(ctx, s, req, "", err)
	}

	profile, ok := s.registry.Resolve(req.feature)
	if !ok {
		return degrade(ctx, s, req, key, assistant.NewConfigurationError("no profile for feature "+string(req.feature)))
	}
	rc.Set(MetaMaxTokens, profile.MaxTokens)

	for _, h := range s.hooks.ProviderHooks() {
		if err := h.BeforeProvider(ctx, req.feature, msgs); err != nil {
			return degrade(ctx, s, req, key, assistant.NewProviderError("provider hook "+h.Name(), err))
		}
	}

	completion, err := s.provider.Send(ctx, msgs, provider.Options{
		MaxTokens:   profile.MaxTokens,
		Temperature: profile.Temperature,
	})
	for _, h := range s.hooks.ProviderHooks() {
		h.AfterProvider(ctx, req.feature, completion, err)
	}
	if err != nil {
		return degrade(ctx, s, req, key, err)
	}

	value, err := parse.Decode[T](completion.Text, profile.Shape)
	if err != nil {
		return degrade(ctx, s, req, key, err)
	}

	s.store(ctx, key, value, false, "")

	tokens := usage.EstimateTokens(completion.TotalTokens, promptText(msgs), completion.Text)
	s.tracker.Record(req.userID, tokens, string(req.feature))
	if s.metrics != nil {
		s.metrics.TokensUsed.WithLabelValues(string(req.feature)).Add(float64(tokens))
		s.metrics.RequestsTotal.WithLabelValues(string(req.feature), string(SourceLive)).Inc()
	}

	s.logger.InfoContext(ctx, "suggestion generated",
		"request_id", rc.RequestID,
		"user_id", req.userID,
		"feature", string(req.feature),
		"tokens", tokens,
	)

	return Result[T]{Value: value, Source: SourceLive, RequestID: rc.RequestID}
}

// lookup returns the cached result for key. An unreadable entry is dropped
// and treated as a miss.
func lookup[T any](ctx context.Context, s *Service, feature model.Feature, key string) (Result[T], bool) {
	var res Result[T]

	data, ok := s.cache.Get(ctx, key)
	if !ok {
		if s.metrics != nil {
			s.metrics.CacheMisses.WithLabelValues(string(feature)).Inc()
		}
		return res, false
	}

	var entry cachedEntry
	err := json.Unmarshal(data, &entry)
	if err == nil {
		err = json.Unmarshal(entry.Value, &res.Value)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "dropping unreadable cache entry", "key", key, "error", err)
		_ = s.cache.Delete(ctx, key)
		if s.metrics != nil {
			s.metrics.CacheMisses.WithLabelValues(string(feature)).Inc()
		}
		return res, false
	}

	if s.metrics != nil {
		s.metrics.CacheHits.WithLabelValues(string(feature)).Inc()
		s.metrics.RequestsTotal.WithLabelValues(string(feature), string(SourceCached)).Inc()
	}
	for _, h := range s.hooks.CacheHooks() {
		h.OnCacheHit(ctx, feature, key)
	}

	res.Source = SourceCached
	res.Degraded = entry.Degraded
	res.Reason = entry.Reason
	if rc, ok := assistant.FromContext(ctx); ok {
		res.RequestID = rc.RequestID
	}
	return res, true
}

// degrade answers from the fallback catalog. A non-empty key caches the
// fallback when cacheFallbacks is set.
func degrade[T any](ctx context.Context, s *Service, req request[T], key string, err error) Result[T] {
	reason := assistant.KindOf(err).String()
	value := req.fallback()

	var requestID string
	if rc, ok := assistant.FromContext(ctx); ok {
		requestID = rc.RequestID
	}

	s.logger.WarnContext(ctx, "serving fallback suggestion",
		"request_id", requestID,
		"user_id", req.userID,
		"feature", string(req.feature),
		"reason", reason,
		"error", err,
	)

	for _, h := range s.hooks.DegradeHooks() {
		h.OnDegrade(ctx, req.feature, reason, err)
	}
	if s.metrics != nil {
		s.metrics.FallbacksTotal.WithLabelValues(string(req.feature), reason).Inc()
		s.metrics.RequestsTotal.WithLabelValues(string(req.feature), string(SourceFallback)).Inc()
	}

	if key != "" && s.cacheFallbacks {
		s.store(ctx, key, value, true, reason)
	}

	return Result[T]{
		Value:     value,
		Source:    SourceFallback,
		Degraded:  true,
		Reason:    reason,
		RequestID: requestID,
	}
}

func (s *Service) store(ctx context.Context, key string, value any, degraded bool, reason string) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.ErrorContext(ctx, "encode cache entry", "key", key, "error", err)
		return
	}
	data, err := json.Marshal(cachedEntry{Value: raw, Degraded: degraded, Reason: reason})
	if err != nil {
		s.logger.ErrorContext(ctx, "encode cache entry", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}

func (s *Service) observe(feature model.Feature, rc *assistant.Context) {
	if s.metrics == nil {
		return
	}
	s.metrics.RequestDuration.WithLabelValues(string(feature)).Observe(rc.Elapsed().Seconds())
}
