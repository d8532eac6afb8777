// Package fallback holds the static content returned whenever a suggestion
// cannot be generated live. Each accessor returns a fresh copy so callers may
// mutate the result without touching the catalog.
package fallback

import (
	"github.com/deeplooplabs/ai-assistant/model"
)

var messageSuggestions = []model.MessageSuggestion{
	{Tone: "warm", Message: "Hey! I was just thinking about you and wanted to say hi. How have you been?"},
	{Tone: "casual", Message: "It's been a little while! Want to catch up sometime this week?"},
	{Tone: "thoughtful", Message: "I hope things are going well for you. I'd love to hear what's new in your life."},
}

var eventIdeas = []model.EventIdea{
	{Title: "Coffee catch-up", Description: "Meet at a favorite cafe for an hour of conversation.", EstimatedCost: "$", Duration: "1 hour", Category: "food"},
	{Title: "Walk in the park", Description: "Take a relaxed walk through a local park or trail.", EstimatedCost: "free", Duration: "1-2 hours", Category: "outdoors"},
	{Title: "Home movie night", Description: "Pick a film together and share some snacks at home.", EstimatedCost: "$", Duration: "2-3 hours", Category: "entertainment"},
	{Title: "Cook a meal together", Description: "Choose a simple recipe and cook it side by side.", EstimatedCost: "$$", Duration: "2 hours", Category: "food"},
	{Title: "Board game afternoon", Description: "Dust off a few board or card games for friendly competition.", EstimatedCost: "free", Duration: "2-3 hours", Category: "games"},
}

var conversationStarters = []model.ConversationStarter{
	{Topic: "recent highlights", Starter: "What's been the best part of your week so far?"},
	{Topic: "plans", Starter: "Do you have anything fun coming up that you're looking forward to?"},
	{Topic: "interests", Starter: "Have you read, watched, or listened to anything great lately?"},
	{Topic: "memories", Starter: "Remember the last time we got together? What's changed since then?"},
	{Topic: "goals", Starter: "Is there something new you've been wanting to try this year?"},
}

var relationshipTip = model.RelationshipTip{
	Title:    "Small, regular check-ins",
	Tip:      "Relationships grow through consistent small moments. A quick message to someone you haven't spoken to in a while can mean more than you think.",
	Category: "connection",
	ActionItems: []string{
		"Pick one person you haven't contacted this month",
		"Send them a short, specific message",
		"Set a reminder to follow up in two weeks",
	},
}

// MessageSuggestions returns the fallback message suggestions
func MessageSuggestions() model.MessageSuggestions {
	return model.MessageSuggestions{Suggestions: append([]model.MessageSuggestion(nil), messageSuggestions...)}
}

// EventIdeas returns the fallback event ideas
func EventIdeas() model.EventIdeaList {
	return append(model.EventIdeaList(nil), eventIdeas...)
}

// ConversationStarters returns the fallback conversation starters
func ConversationStarters() model.ConversationStarterList {
	return append(model.ConversationStarterList(nil), conversationStarters...)
}

// RelationshipTip returns the fallback relationship tip
func RelationshipTip() model.RelationshipTip {
	tip := relationshipTip
	tip.ActionItems = append([]string(nil), relationshipTip.ActionItems...)
	return tip
}

// For returns the fallback value for a feature, or nil for an unknown feature
func For(feature model.Feature) any {
	switch feature {
	case model.FeatureMessageSuggestions:
		return MessageSuggestions()
	case model.FeatureEventIdeas:
		return EventIdeas()
	case model.FeatureConversationStarters:
		return ConversationStarters()
	case model.FeatureRelationshipTip:
		return RelationshipTip()
	default:
		return nil
	}
}
