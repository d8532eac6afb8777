package provider

import (
	"context"
)

// Role values for prompt messages
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged prompt message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tunes a single completion request
type Options struct {
	MaxTokens   int
	Temperature float32
}

// Completion is the first textual completion returned by the provider
type Completion struct {
	Text string
	// TotalTokens is the provider-reported token usage, 0 when not reported
	TotalTokens int
}

// Provider sends a structured prompt to a generative text provider
type Provider interface {
	// Send returns the completion or a classified *assistant.Error
	Send(ctx context.Context, messages []Message, opts Options) (*Completion, error)
}
