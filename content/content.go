package content

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrNotFound is returned when a contact does not exist for the user
var ErrNotFound = errors.New("contact not found")

// Relationship tiers
const (
	TierInnerCircle  = "inner_circle"
	TierClose        = "close"
	TierAcquaintance = "acquaintance"
)

// RecentInteractionWindow is how far back an interaction counts as recent
const RecentInteractionWindow = 30 * 24 * time.Hour

// MaxUnderContacted caps the under-contacted names in Stats
const MaxUnderContacted = 5

// Relationship describes how the user relates to a contact
type Relationship struct {
	Tier            string     `json:"tier"`
	Type            string     `json:"type"`
	LastContactDate *time.Time `json:"lastContactDate,omitempty"`
}

// ContactDetails are the facts needed to build a contact prompt
type ContactDetails struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Relationship Relationship `json:"relationship"`
	Interests    []string     `json:"interests"`
	Notes        string       `json:"notes"`
}

// Stats are the aggregates behind the relationship tip
type Stats struct {
	ContactCount           int      `json:"contactCount"`
	InnerCircleCount       int      `json:"innerCircleCount"`
	RecentInteractionCount int      `json:"recentInteractionCount"`
	UnderContacted         []string `json:"underContacted"`
}

// Repository is the read-only content lookup used to build prompts
type Repository interface {
	// GetContactWithDetails returns ErrNotFound when the contact does not belong to userID
	GetContactWithDetails(ctx context.Context, userID, contactID string) (*ContactDetails, error)

	// RelationshipStats returns aggregate statistics for userID
	RelationshipStats(ctx context.Context, userID string) (*Stats, error)
}

// ContactCadence returns how long a contact in tier may go without contact
// before counting as under-contacted
func ContactCadence(tier string) time.Duration {
	switch tier {
	case TierInnerCircle:
		return 14 * 24 * time.Hour
	case TierClose:
		return 30 * 24 * time.Hour
	default:
		return 90 * 24 * time.Hour
	}
}

// underContacted returns the names of overdue contacts, longest overdue first.
// A contact never contacted is the most overdue.
func underContacted(contacts []ContactDetails, now time.Time) []string {
	type overdue struct {
		name  string
		since time.Duration
	}

	var list []overdue
	for _, c := range contacts {
		last := c.Relationship.LastContactDate
		if last == nil {
			list = append(list, overdue{name: c.Name, since: time.Duration(1<<63 - 1)})
			continue
		}
		since := now.Sub(*last)
		if since > ContactCadence(c.Relationship.Tier) {
			list = append(list, overdue{name: c.Name, since: since})
		}
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].since == list[j].since {
			return list[i].name < list[j].name
		}
		return list[i].since > list[j].since
	})

	names := make([]string, 0, MaxUnderContacted)
	for i := 0; i < len(list) && i < MaxUnderContacted; i++ {
		names = append(names, list[i].name)
	}
	return names
}

// BuildStats computes Stats from a user's contacts and interaction times
func BuildStats(contacts []ContactDetails, interactions []time.Time, now time.Time) *Stats {
	stats := &Stats{ContactCount: len(contacts)}
	for _, c := range contacts {
		if c.Relationship.Tier == TierInnerCircle {
			stats.InnerCircleCount++
		}
	}
	cutoff := now.Add(-RecentInteractionWindow)
	for _, at := range interactions {
		if !at.Before(cutoff) {
			stats.RecentInteractionCount++
		}
	}
	stats.UnderContacted = underContacted(contacts, now)
	return stats
}
