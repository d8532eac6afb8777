package content

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func daysAgo(now time.Time, days int) *time.Time {
	t := now.Add(-time.Duration(days) * 24 * time.Hour)
	return &t
}

func TestMemoryRepository_GetContact(t *testing.T) {
	repo := NewMemoryRepository()
	repo.PutContact("u1", ContactDetails{ID: "c1", Name: "Ada", Interests: []string{"chess"}})
	ctx := context.Background()

	c, err := repo.GetContactWithDetails(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", c.Name)

	_, err = repo.GetContactWithDetails(ctx, "u1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// Contacts are scoped to their owner
	_, err = repo.GetContactWithDetails(ctx, "u2", "c1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_Stats(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository().WithNow(func() time.Time { return now })

	repo.PutContact("u1", ContactDetails{ID: "c1", Name: "Ada", Relationship: Relationship{Tier: TierInnerCircle, LastContactDate: daysAgo(now, 3)}})
	repo.PutContact("u1", ContactDetails{ID: "c2", Name: "Grace", Relationship: Relationship{Tier: TierInnerCircle, LastContactDate: daysAgo(now, 20)}})
	repo.PutContact("u1", ContactDetails{ID: "c3", Name: "Linus", Relationship: Relationship{Tier: TierClose, LastContactDate: daysAgo(now, 45)}})
	repo.PutContact("u1", ContactDetails{ID: "c4", Name: "Ken", Relationship: Relationship{Tier: TierAcquaintance, LastContactDate: daysAgo(now, 60)}})
	repo.PutContact("u1", ContactDetails{ID: "c5", Name: "Barbara", Relationship: Relationship{Tier: TierClose}})
	repo.AddInteraction("u1", now.Add(-24*time.Hour))
	repo.AddInteraction("u1", now.Add(-40*24*time.Hour))

	stats, err := repo.RelationshipStats(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 5, stats.ContactCount)
	assert.Equal(t, 2, stats.InnerCircleCount)
	assert.Equal(t, 1, stats.RecentInteractionCount)
	assert.Equal(t, []string{"Barbara", "Linus", "Grace"}, stats.UnderContacted)
}

func TestMemoryRepository_EmptyStats(t *testing.T) {
	stats, err := NewMemoryRepository().RelationshipStats(context.Background(), "nobody")

	require.NoError(t, err)
	assert.Zero(t, stats.ContactCount)
	assert.Empty(t, stats.UnderContacted)
}

func TestUnderContacted_Cap(t *testing.T) {
	now := time.Now()
	var contacts []ContactDetails
	for i := 0; i < 8; i++ {
		contacts = append(contacts, ContactDetails{Name: string(rune('A' + i)), Relationship: Relationship{Tier: TierInnerCircle, LastContactDate: daysAgo(now, 30+i)}})
	}

	names := underContacted(contacts, now)
	assert.Len(t, names, MaxUnderContacted)
	assert.Equal(t, "H", names[0], "longest overdue first")
}
