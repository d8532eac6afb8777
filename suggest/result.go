package suggest

import (
	"encoding/json"
)

// Source tells where a result came from
type Source string

const (
	SourceLive     Source = "live"
	SourceCached   Source = "cached"
	SourceFallback Source = "fallback"
)

// Result wraps a suggestion with the path that produced it.
// Value is always fully populated; Degraded and Reason are for tests and
// monitoring, not for display.
type Result[T any] struct {
	Value     T      `json:"value"`
	Source    Source `json:"source"`
	Degraded  bool   `json:"degraded"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id"`
}

// cachedEntry is the cache payload. A cached fallback keeps its marker.
type cachedEntry struct {
	Value    json.RawMessage `json:"value"`
	Degraded bool            `json:"degraded,omitempty"`
	Reason   string          `json:"reason,omitempty"`
}

// EventIdeasRequest holds the inputs of GenerateEventIdeas
type EventIdeasRequest struct {
	UserID string `json:"user_id"`
	// ContactID is optional; when set the contact's interests are added
	ContactID string   `json:"contact_id,omitempty"`
	Budget    string   `json:"budget,omitempty"`
	GroupSize int      `json:"group_size,omitempty"`
	Interests []string `json:"interests,omitempty"`
}
