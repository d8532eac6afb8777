package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/deeplooplabs/ai-assistant/model"
	"github.com/deeplooplabs/ai-assistant/provider"
)

// mockHook implements Hook interface for testing
type mockHook struct {
	name string
}

func (m *mockHook) Name() string {
	return m.name
}

func TestHookRegistry_Register(t *testing.T) {
	registry := NewRegistry()

	h1 := &mockHook{name: "hook1"}
	h2 := &mockHook{name: "hook2"}

	registry.Register(h1)
	registry.Register(h2)

	if len(registry.All()) != 2 {
		t.Errorf("expected 2 hooks, got %d", len(registry.All()))
	}
	if len(registry.ProviderHooks()) != 0 || len(registry.DegradeHooks()) != 0 || len(registry.CacheHooks()) != 0 {
		t.Error("plain hooks should not be added to typed lists")
	}
}

// mockProviderHook implements ProviderHook
type mockProviderHook struct {
	mockHook
	beforeFunc func(ctx context.Context, feature model.Feature, messages []provider.Message) error
	afterErr   error
	afterCalls int
}

func (m *mockProviderHook) BeforeProvider(ctx context.Context, feature model.Feature, messages []provider.Message) error {
	if m.beforeFunc != nil {
		return m.beforeFunc(ctx, feature, messages)
	}
	return nil
}

func (m *mockProviderHook) AfterProvider(ctx context.Context, feature model.Feature, completion *provider.Completion, err error) {
	m.afterCalls++
	m.afterErr = err
}

func TestProviderHook(t *testing.T) {
	h := &mockProviderHook{
		mockHook: mockHook{name: "provider"},
		beforeFunc: func(ctx context.Context, feature model.Feature, messages []provider.Message) error {
			messages[0].Content = "modified"
			return nil
		},
	}

	registry := NewRegistry()
	registry.Register(h)

	if len(registry.ProviderHooks()) != 1 {
		t.Fatalf("expected 1 provider hook, got %d", len(registry.ProviderHooks()))
	}

	messages := []provider.Message{{Role: provider.RoleSystem, Content: "original"}}
	for _, ph := range registry.ProviderHooks() {
		if err := ph.BeforeProvider(context.Background(), model.FeatureRelationshipTip, messages); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if messages[0].Content != "modified" {
		t.Error("BeforeProvider should modify messages")
	}

	boom := errors.New("boom")
	registry.ProviderHooks()[0].AfterProvider(context.Background(), model.FeatureRelationshipTip, nil, boom)
	if h.afterCalls != 1 || !errors.Is(h.afterErr, boom) {
		t.Error("AfterProvider should receive the provider error")
	}
}

// multiHook implements DegradeHook and CacheHook
type multiHook struct {
	mockHook
	reasons []string
	keys    []string
}

func (m *multiHook) OnDegrade(ctx context.Context, feature model.Feature, reason string, err error) {
	m.reasons = append(m.reasons, reason)
}

func (m *multiHook) OnCacheHit(ctx context.Context, feature model.Feature, key string) {
	m.keys = append(m.keys, key)
}

func TestRegistry_MultipleInterfaces(t *testing.T) {
	h := &multiHook{mockHook: mockHook{name: "multi"}}

	registry := NewRegistry()
	registry.Register(h)

	if len(registry.DegradeHooks()) != 1 {
		t.Errorf("expected 1 degrade hook, got %d", len(registry.DegradeHooks()))
	}
	if len(registry.CacheHooks()) != 1 {
		t.Errorf("expected 1 cache hook, got %d", len(registry.CacheHooks()))
	}

	registry.DegradeHooks()[0].OnDegrade(context.Background(), model.FeatureEventIdeas, "quota_exceeded", nil)
	registry.CacheHooks()[0].OnCacheHit(context.Background(), model.FeatureEventIdeas, "events:abc")

	if len(h.reasons) != 1 || h.reasons[0] != "quota_exceeded" {
		t.Errorf("unexpected reasons: %v", h.reasons)
	}
	if len(h.keys) != 1 || h.keys[0] != "events:abc" {
		t.Errorf("unexpected keys: %v", h.keys)
	}
}

func TestRegistry_Nil(t *testing.T) {
	var registry *Registry

	if registry.All() != nil || registry.ProviderHooks() != nil {
		t.Error("nil registry should return no hooks")
	}
}
