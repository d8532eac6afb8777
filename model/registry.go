package model

import (
	"sync"

	"github.com/deeplooplabs/ai-assistant/parse"
)

// Feature identifies one of the suggestion types
type Feature string

const (
	FeatureMessageSuggestions   Feature = "message_suggestions"
	FeatureEventIdeas           Feature = "event_ideas"
	FeatureConversationStarters Feature = "conversation_starters"
	FeatureRelationshipTip      Feature = "relationship_tip"
)

// Features lists every feature in a stable order
var Features = []Feature{
	FeatureMessageSuggestions,
	FeatureEventIdeas,
	FeatureConversationStarters,
	FeatureRelationshipTip,
}

// CachePrefix returns the cache key tag for the feature
func (f Feature) CachePrefix() string {
	switch f {
	case FeatureMessageSuggestions:
		return "msg"
	case FeatureEventIdeas:
		return "events"
	case FeatureConversationStarters:
		return "starters"
	case FeatureRelationshipTip:
		return "tip"
	default:
		return string(f)
	}
}

// Profile holds the per-feature generation parameters
type Profile struct {
	Feature     Feature
	MaxTokens   int
	Temperature float32
	Shape       parse.Shape
}

// Registry resolves features to profiles
type Registry interface {
	// Resolve returns the profile for a feature
	Resolve(feature Feature) (Profile, bool)
}

// MapRegistry is an in-memory profile registry
type MapRegistry struct {
	mu       sync.RWMutex
	profiles map[Feature]Profile
}

// NewMapRegistry creates an empty registry
func NewMapRegistry() *MapRegistry {
	return &MapRegistry{
		profiles: make(map[Feature]Profile),
	}
}

// DefaultRegistry returns a registry holding the built-in profiles
func DefaultRegistry() *MapRegistry {
	r := NewMapRegistry()
	r.Register(Profile{Feature: FeatureMessageSuggestions, MaxTokens: 500, Temperature: 0.8, Shape: parse.Object})
	r.Register(Profile{Feature: FeatureEventIdeas, MaxTokens: 1000, Temperature: 0.8, Shape: parse.Array})
	r.Register(Profile{Feature: FeatureConversationStarters, MaxTokens: 400, Temperature: 0.8, Shape: parse.Array})
	r.Register(Profile{Feature: FeatureRelationshipTip, MaxTokens: 200, Temperature: 0.7, Shape: parse.Object})
	return r
}

// Register registers or replaces a profile
func (r *MapRegistry) Register(p Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.Feature] = p
}

// Resolve returns the profile for a feature
func (r *MapRegistry) Resolve(feature Feature) (Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[feature]
	return p, ok
}
