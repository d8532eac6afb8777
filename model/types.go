package model

import (
	"errors"
	"fmt"
	"strings"
)

// MessageSuggestion is one drafted message in a given tone
type MessageSuggestion struct {
	Tone    string `json:"tone"`
	Message string `json:"message"`
}

// MessageSuggestions is the result of the message suggestions feature
type MessageSuggestions struct {
	Suggestions []MessageSuggestion `json:"suggestions"`
}

// Validate checks required fields
func (m *MessageSuggestions) Validate() error {
	if len(m.Suggestions) == 0 {
		return errors.New("suggestions: at least one required")
	}
	for i, s := range m.Suggestions {
		if blank(s.Tone) || blank(s.Message) {
			return fmt.Errorf("suggestions[%d]: tone and message are required", i)
		}
	}
	return nil
}

// EventIdea is one suggested activity
type EventIdea struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	EstimatedCost string `json:"estimatedCost,omitempty"`
	Duration      string `json:"duration,omitempty"`
	Category      string `json:"category,omitempty"`
}

// EventIdeaList is the result of the event ideas feature
type EventIdeaList []EventIdea

// Validate checks required fields
func (l *EventIdeaList) Validate() error {
	if len(*l) == 0 {
		return errors.New("event ideas: at least one required")
	}
	for i, idea := range *l {
		if blank(idea.Title) || blank(idea.Description) {
			return fmt.Errorf("event ideas[%d]: title and description are required", i)
		}
	}
	return nil
}

// ConversationStarter is one opener with the topic it touches
type ConversationStarter struct {
	Topic   string `json:"topic"`
	Starter string `json:"starter"`
}

// ConversationStarterList is the result of the conversation starters feature
type ConversationStarterList []ConversationStarter

// Validate checks required fields
func (l *ConversationStarterList) Validate() error {
	if len(*l) == 0 {
		return errors.New("conversation starters: at least one required")
	}
	for i, s := range *l {
		if blank(s.Starter) {
			return fmt.Errorf("conversation starters[%d]: starter is required", i)
		}
	}
	return nil
}

// RelationshipTip is the result of the relationship tip feature
type RelationshipTip struct {
	Title       string   `json:"title"`
	Tip         string   `json:"tip"`
	ActionItems []string `json:"actionItems,omitempty"`
	Category    string   `json:"category,omitempty"`
}

// Validate checks required fields
func (t *RelationshipTip) Validate() error {
	if blank(t.Title) || blank(t.Tip) {
		return errors.New("relationship tip: title and tip are required")
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
