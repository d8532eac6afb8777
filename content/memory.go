package content

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository
type MemoryRepository struct {
	mu           sync.RWMutex
	contacts     map[string]map[string]ContactDetails // userID -> contactID -> details
	interactions map[string][]time.Time
	now          func() time.Time
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		contacts:     make(map[string]map[string]ContactDetails),
		interactions: make(map[string][]time.Time),
		now:          time.Now,
	}
}

// WithNow overrides the clock used for aggregate statistics
func (r *MemoryRepository) WithNow(now func() time.Time) *MemoryRepository {
	r.now = now
	return r
}

// PutContact stores or replaces a contact for userID
func (r *MemoryRepository) PutContact(userID string, c ContactDetails) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.contacts[userID] == nil {
		r.contacts[userID] = make(map[string]ContactDetails)
	}
	c.Interests = append([]string(nil), c.Interests...)
	r.contacts[userID][c.ID] = c
}

// AddInteraction records an interaction at the given time
func (r *MemoryRepository) AddInteraction(userID string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interactions[userID] = append(r.interactions[userID], at)
}

// GetContactWithDetails implements Repository
func (r *MemoryRepository) GetContactWithDetails(ctx context.Context, userID, contactID string) (*ContactDetails, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contacts[userID][contactID]
	if !ok {
		return nil, ErrNotFound
	}
	c.Interests = append([]string(nil), c.Interests...)
	return &c, nil
}

// RelationshipStats implements Repository
func (r *MemoryRepository) RelationshipStats(ctx context.Context, userID string) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	contacts := make([]ContactDetails, 0, len(r.contacts[userID]))
	for _, c := range r.contacts[userID] {
		contacts = append(contacts, c)
	}
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].ID < contacts[j].ID })

	return BuildStats(contacts, r.interactions[userID], r.now()), nil
}

var _ Repository = (*MemoryRepository)(nil)
