// Package sqlite provides a usage.Ledger backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/deeplooplabs/ai-assistant/usage"
)

// Ledger appends usage records to a SQLite table read by downstream reporting.
type Ledger struct {
	db *sql.DB
}

const createUsageTable = `
CREATE TABLE IF NOT EXISTS ai_usage_records (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	tokens_estimate INTEGER NOT NULL,
	feature TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ai_usage_user_time ON ai_usage_records(user_id, created_at);
`

// New opens (or creates) the ledger database at dbPath and runs migrations.
func New(dbPath string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}

	if _, err := db.Exec(createUsageTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate usage db: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Record implements usage.Ledger.
func (l *Ledger) Record(ctx context.Context, rec usage.Record) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO ai_usage_records (id, user_id, tokens_estimate, feature, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.TokensEstimate, rec.Feature, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

var _ usage.Ledger = (*Ledger)(nil)
