package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/deeplooplabs/ai-assistant/cache"
	cachesqlite "github.com/deeplooplabs/ai-assistant/cache/sqlite"
	"github.com/deeplooplabs/ai-assistant/config"
	contentsqlite "github.com/deeplooplabs/ai-assistant/content/sqlite"
	"github.com/deeplooplabs/ai-assistant/provider"
	"github.com/deeplooplabs/ai-assistant/ratelimit"
	ratelimitsqlite "github.com/deeplooplabs/ai-assistant/ratelimit/sqlite"
	"github.com/deeplooplabs/ai-assistant/suggest"
	"github.com/deeplooplabs/ai-assistant/usage"
	usagesqlite "github.com/deeplooplabs/ai-assistant/usage/sqlite"
)

// app holds the wired service and the resources to release on exit
type app struct {
	cfg     *config.Config
	service *suggest.Service
	closers []func() error
	logger  *slog.Logger
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	config.ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newApp wires every collaborator from cfg. reg receives Prometheus metrics
// and may be nil to skip them.
func newApp(cfg *config.Config, reg prometheus.Registerer) (_ *app, err error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	var c cache.Cache
	switch cfg.Cache.Backend {
	case config.BackendSQLite:
		sc, err := cachesqlite.New(cfg.DBPath, cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("init cache: %w", err)
		}
		a.closers = append(a.closers, sc.Close)
		c = sc
	default:
		c = cache.NewLRUCache(cache.DefaultConfig().
			WithMaxItems(cfg.Cache.MaxItems).
			WithDefaultTTL(cfg.Cache.TTL))
	}

	limitCfg := &ratelimit.Config{Max: cfg.RateLimit.Max, Window: cfg.RateLimit.Window}
	var limiter ratelimit.Limiter
	switch cfg.RateLimit.Backend {
	case config.BackendSQLite:
		sl, err := ratelimitsqlite.New(cfg.DBPath, limitCfg)
		if err != nil {
			return nil, fmt.Errorf("init rate limiter: %w", err)
		}
		a.closers = append(a.closers, sl.Close)
		limiter = sl
	default:
		limiter = ratelimit.NewFixedWindow(limitCfg)
	}

	repo, err := contentsqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("init content: %w", err)
	}
	a.closers = append(a.closers, repo.Close)

	var tracker *usage.Tracker
	if cfg.Usage.Enabled {
		ledger, err := usagesqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("init usage ledger: %w", err)
		}
		a.closers = append(a.closers, ledger.Close)
		tracker = usage.NewTracker(ledger, &usage.Config{Buffer: cfg.Usage.Buffer, Enabled: true}, logger)
	}

	providerOpts := []provider.Option{provider.WithLogger(logger)}
	serviceOpts := []suggest.Option{
		suggest.WithCache(c),
		suggest.WithLimiter(limiter),
		suggest.WithContent(repo),
		suggest.WithTracker(tracker),
		suggest.WithLogger(logger),
		suggest.WithCacheTTL(cfg.Cache.TTL),
		suggest.WithCacheFallbacks(cfg.Cache.CacheFallbacks),
	}
	if reg != nil {
		providerOpts = append(providerOpts, provider.WithMetrics(provider.NewMetrics("assistant", reg)))
		serviceOpts = append(serviceOpts, suggest.WithMetrics(suggest.NewMetrics("assistant", reg)))
	}

	client := provider.NewClient(providerConfig(cfg.Provider), providerOpts...)
	if !client.Available() {
		logger.Warn("no provider credential configured; every suggestion will use fallback content")
	}
	serviceOpts = append(serviceOpts, suggest.WithProvider(client))

	a.service = suggest.New(serviceOpts...)
	return a, nil
}

func providerConfig(pc config.ProviderConfig) *provider.Config {
	retry := provider.DefaultRetryConfig()
	if pc.MaxAttempts > 0 {
		retry.MaxAttempts = pc.MaxAttempts
	}
	if pc.RateLimitDelay > 0 {
		retry.RateLimitDelay = pc.RateLimitDelay
	}
	if pc.BackoffStep > 0 {
		retry.BackoffStep = pc.BackoffStep
	}

	cfg := provider.DefaultConfig().
		WithBaseURL(pc.BaseURL).
		WithAPIKey(pc.APIKey).
		WithRequestsPerSecond(pc.RequestsPerSecond).
		WithRetryConfig(retry)
	if pc.Model != "" {
		cfg.WithModel(pc.Model)
	}
	if pc.Timeout > 0 {
		cfg.WithTimeout(pc.Timeout)
	}
	return cfg
}

// close flushes pending usage records, then releases databases
func (a *app) close(ctx context.Context) {
	if a.service != nil {
		if err := a.service.Close(ctx); err != nil {
			a.logger.Warn("flush usage records", "error", err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close resource", "error", err)
		}
	}
}
