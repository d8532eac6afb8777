package hook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deeplooplabs/ai-assistant/model"
	"github.com/deeplooplabs/ai-assistant/provider"
)

// Hook is the base interface for all hooks
type Hook interface {
	// Name returns the unique name of this hook
	Name() string
}

// ProviderHook is called before/after the provider call of a generation
type ProviderHook interface {
	Hook
	// BeforeProvider is called with the prompt messages (can modify message content).
	// An error aborts the provider call and the request degrades to the fallback.
	BeforeProvider(ctx context.Context, feature model.Feature, messages []provider.Message) error
	// AfterProvider is called with the completion or the provider error
	AfterProvider(ctx context.Context, feature model.Feature, completion *provider.Completion, err error)
}

// DegradeHook is called when a request is answered from the fallback catalog
type DegradeHook interface {
	Hook
	// OnDegrade receives the reason the live path was abandoned
	OnDegrade(ctx context.Context, feature model.Feature, reason string, err error)
}

// CacheHook is called when a request is served from the cache
type CacheHook interface {
	Hook
	// OnCacheHit receives the cache key that was hit
	OnCacheHit(ctx context.Context, feature model.Feature, key string)
}

// Registry manages registered hooks
type Registry struct {
	hooks         []Hook
	providerHooks []ProviderHook
	degradeHooks  []DegradeHook
	cacheHooks    []CacheHook
}

// NewRegistry creates a new hook registry
func NewRegistry() *Registry {
	return &Registry{
		hooks:         make([]Hook, 0),
		providerHooks: make([]ProviderHook, 0),
		degradeHooks:  make([]DegradeHook, 0),
		cacheHooks:    make([]CacheHook, 0),
	}
}

// Register registers a hook based on its concrete type.
// A hook implementing several interfaces is added to each list.
func (r *Registry) Register(hooks ...Hook) {
	for _, hook := range hooks {
		r.hooks = append(r.hooks, hook)

		known := false
		if h, ok := hook.(ProviderHook); ok {
			r.providerHooks = append(r.providerHooks, h)
			known = true
		}
		if h, ok := hook.(DegradeHook); ok {
			r.degradeHooks = append(r.degradeHooks, h)
			known = true
		}
		if h, ok := hook.(CacheHook); ok {
			r.cacheHooks = append(r.cacheHooks, h)
			known = true
		}
		if !known {
			slog.Warn(fmt.Sprintf("unknown hook type: %T", hook))
		}
	}
}

// ProviderHooks returns all provider hooks
func (r *Registry) ProviderHooks() []ProviderHook {
	if r == nil {
		return nil
	}
	return r.providerHooks
}

// DegradeHooks returns all degrade hooks
func (r *Registry) DegradeHooks() []DegradeHook {
	if r == nil {
		return nil
	}
	return r.degradeHooks
}

// CacheHooks returns all cache hooks
func (r *Registry) CacheHooks() []CacheHook {
	if r == nil {
		return nil
	}
	return r.cacheHooks
}

// All returns all registered hooks
func (r *Registry) All() []Hook {
	if r == nil {
		return nil
	}
	return r.hooks
}
