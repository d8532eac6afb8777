package usage

import (
	"context"
	"sync"
	"time"
)

// Record is one append-only accounting entry
type Record struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	TokensEstimate int       `json:"tokens_estimate"`
	Feature        string    `json:"feature"`
	CreatedAt      time.Time `json:"created_at"`
}

// Ledger persists usage records
type Ledger interface {
	// Record appends a usage record
	Record(ctx context.Context, rec Record) error
}

// MemoryLedger is an in-memory Ledger, mainly for tests and single-process tools
type MemoryLedger struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

// Record implements Ledger
func (l *MemoryLedger) Record(ctx context.Context, rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

// Records returns a copy of all records
func (l *MemoryLedger) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Record(nil), l.records...)
}

// EstimateTokens returns reported when positive, otherwise a rough
// four-characters-per-token estimate of the prompt and completion text.
func EstimateTokens(reported int, texts ...string) int {
	if reported > 0 {
		return reported
	}
	chars := 0
	for _, t := range texts {
		chars += len(t)
	}
	return (chars + 3) / 4
}
