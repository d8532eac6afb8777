package suggest

import (
	"context"
	"fmt"

	"github.com/deeplooplabs/ai-assistant/cache"
	"github.com/deeplooplabs/ai-assistant/model"
	"github.com/deeplooplabs/ai-assistant/ratelimit"
)

// UsageStats returns the user's quota usage in the current window
func (s *Service) UsageStats(ctx context.Context, userID string) (ratelimit.Stats, error) {
	return s.limiter.UsageStats(ctx, userID)
}

// ClearCache removes every cached suggestion
func (s *Service) ClearCache(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	s.logger.InfoContext(ctx, "suggestion cache cleared")
	return nil
}

// CacheStats returns cache size, keys and hit counters
func (s *Service) CacheStats(ctx context.Context) (cache.CacheStats, error) {
	return s.cache.Stats(ctx)
}

// EvictParams identifies a cached request for Evict
type EvictParams struct {
	UserID    string
	ContactID string
	// Context is the message situation or the conversation topic
	Context string
	Event   EventIdeasRequest
}

// Evict removes the cached result of one logical request
func (s *Service) Evict(ctx context.Context, feature model.Feature, p EvictParams) error {
	var params cache.Params
	switch feature {
	case model.FeatureMessageSuggestions:
		params = messageParams(p.UserID, p.ContactID, p.Context)
	case model.FeatureEventIdeas:
		params = eventParams(p.Event)
	case model.FeatureConversationStarters:
		params = starterParams(p.UserID, p.ContactID, p.Context)
	case model.FeatureRelationshipTip:
		params = tipParams(p.UserID)
	default:
		return fmt.Errorf("unknown feature %q", feature)
	}
	return s.cache.Delete(ctx, cache.Key(feature.CachePrefix(), params))
}

// Close flushes pending usage records
func (s *Service) Close(ctx context.Context) error {
	return s.tracker.Close(ctx)
}
