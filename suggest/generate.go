package suggest

import (
	"context"
	"sort"
	"strings"

	"github.com/deeplooplabs/ai-assistant/cache"
	"github.com/deeplooplabs/ai-assistant/content"
	"github.com/deeplooplabs/ai-assistant/fallback"
	"github.com/deeplooplabs/ai-assistant/model"
	"github.com/deeplooplabs/ai-assistant/provider"
)

// GenerateMessageSuggestions drafts messages to send to a contact.
// situation is free text such as "birthday" and may be empty.
func (s *Service) GenerateMessageSuggestions(ctx context.Context, userID, contactID, situation string) Result[model.MessageSuggestions] {
	return run(ctx, s, request[model.MessageSuggestions]{
		feature: model.FeatureMessageSuggestions,
		userID:  userID,
		params:  messageParams(userID, contactID, situation),
		prompt: func(ctx context.Context) ([]provider.Message, error) {
			c, err := s.content.GetContactWithDetails(ctx, userID, contactID)
			if err != nil {
				return nil, err
			}
			return messageSuggestionsPrompt(c, situation, s.now()), nil
		},
		fallback: fallback.MessageSuggestions,
	})
}

// GenerateEventIdeas suggests activities. With a ContactID the contact's
// interests are merged into the request interests.
func (s *Service) GenerateEventIdeas(ctx context.Context, req EventIdeasRequest) Result[model.EventIdeaList] {
	return run(ctx, s, request[model.EventIdeaList]{
		feature: model.FeatureEventIdeas,
		userID:  req.UserID,
		params:  eventParams(req),
		prompt: func(ctx context.Context) ([]provider.Message, error) {
			var c *content.ContactDetails
			interests := req.Interests
			if req.ContactID != "" {
				var err error
				c, err = s.content.GetContactWithDetails(ctx, req.UserID, req.ContactID)
				if err != nil {
					return nil, err
				}
				interests = mergeInterests(req.Interests, c.Interests)
			}
			return eventIdeasPrompt(req, c, interests, s.now()), nil
		},
		fallback: fallback.EventIdeas,
	})
}

// GenerateConversationStarters suggests openers for a contact.
// topic may be empty.
func (s *Service) GenerateConversationStarters(ctx context.Context, userID, contactID, topic string) Result[model.ConversationStarterList] {
	return run(ctx, s, request[model.ConversationStarterList]{
		feature: model.FeatureConversationStarters,
		userID:  userID,
		params:  starterParams(userID, contactID, topic),
		prompt: func(ctx context.Context) ([]provider.Message, error) {
			c, err := s.content.GetContactWithDetails(ctx, userID, contactID)
			if err != nil {
				return nil, err
			}
			return conversationStartersPrompt(c, topic, s.now()), nil
		},
		fallback: fallback.ConversationStarters,
	})
}

// GenerateRelationshipTip builds a tip from the user's relationship statistics
func (s *Service) GenerateRelationshipTip(ctx context.Context, userID string) Result[model.RelationshipTip] {
	return run(ctx, s, request[model.RelationshipTip]{
		feature: model.FeatureRelationshipTip,
		userID:  userID,
		params:  tipParams(userID),
		prompt: func(ctx context.Context) ([]provider.Message, error) {
			stats, err := s.content.RelationshipStats(ctx, userID)
			if err != nil {
				return nil, err
			}
			return relationshipTipPrompt(stats), nil
		},
		fallback: fallback.RelationshipTip,
	})
}

// Contact-scoped keys carry the user id so one user's contact never answers
// from another user's cache entry.

func messageParams(userID, contactID, situation string) cache.Params {
	return cache.Params{"user_id": userID, "contact_id": contactID, "context": situation}
}

func eventParams(req EventIdeasRequest) cache.Params {
	p := cache.Params{
		"budget":     strings.ToLower(strings.TrimSpace(req.Budget)),
		"group_size": req.GroupSize,
		"interests":  req.Interests,
	}
	if req.ContactID != "" {
		p["user_id"] = req.UserID
		p["contact_id"] = req.ContactID
	}
	return p
}

func starterParams(userID, contactID, topic string) cache.Params {
	return cache.Params{"user_id": userID, "contact_id": contactID, "topic": topic}
}

func tipParams(userID string) cache.Params {
	return cache.Params{"user_id": userID}
}

func mergeInterests(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, interest := range list {
			k := strings.ToLower(strings.TrimSpace(interest))
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, strings.TrimSpace(interest))
		}
	}
	sort.Strings(out)
	return out
}
