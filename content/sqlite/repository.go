// Package sqlite provides a content.Repository over the contacts schema.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/deeplooplabs/ai-assistant/content"
)

// Repository reads contacts, relationships, interests and interactions.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

const createContentTables = `
CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_contacts_user ON contacts(user_id);
CREATE TABLE IF NOT EXISTS relationships (
	contact_id TEXT PRIMARY KEY REFERENCES contacts(id) ON DELETE CASCADE,
	tier TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL DEFAULT '',
	last_contact_date INTEGER
);
CREATE TABLE IF NOT EXISTS contact_interests (
	contact_id TEXT NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	interest TEXT NOT NULL,
	PRIMARY KEY (contact_id, interest)
);
CREATE TABLE IF NOT EXISTS interactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	contact_id TEXT NOT NULL,
	occurred_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interactions_user_time ON interactions(user_id, occurred_at);
`

// New opens (or creates) the content database at dbPath and runs migrations.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open content db: %w", err)
	}

	if _, err := db.Exec(createContentTables); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate content db: %w", err)
	}

	return &Repository{db: db, now: time.Now}, nil
}

// WithNow overrides the clock used for aggregate statistics.
func (r *Repository) WithNow(now func() time.Time) *Repository {
	r.now = now
	return r
}

// PutContact inserts or replaces a contact with its relationship and interests.
func (r *Repository) PutContact(ctx context.Context, userID string, c content.ContactDetails) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin content tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO contacts (id, user_id, name, notes) VALUES (?, ?, ?, ?)`,
		c.ID, userID, c.Name, c.Notes,
	); err != nil {
		return fmt.Errorf("save contact: %w", err)
	}

	var last sql.NullInt64
	if c.Relationship.LastContactDate != nil {
		last = sql.NullInt64{Int64: c.Relationship.LastContactDate.UnixNano(), Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO relationships (contact_id, tier, type, last_contact_date) VALUES (?, ?, ?, ?)`,
		c.ID, c.Relationship.Tier, c.Relationship.Type, last,
	); err != nil {
		return fmt.Errorf("save relationship: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM contact_interests WHERE contact_id = ?`, c.ID); err != nil {
		return fmt.Errorf("clear interests: %w", err)
	}
	for _, interest := range c.Interests {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO contact_interests (contact_id, interest) VALUES (?, ?)`, c.ID, interest,
		); err != nil {
			return fmt.Errorf("save interest: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit content tx: %w", err)
	}
	return nil
}

// AddInteraction records an interaction with a contact.
func (r *Repository) AddInteraction(ctx context.Context, userID, contactID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO interactions (user_id, contact_id, occurred_at) VALUES (?, ?, ?)`,
		userID, contactID, at.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save interaction: %w", err)
	}
	return nil
}

// GetContactWithDetails implements content.Repository.
func (r *Repository) GetContactWithDetails(ctx context.Context, userID, contactID string) (*content.ContactDetails, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.name, c.notes, COALESCE(r.tier, ''), COALESCE(r.type, ''), r.last_contact_date
		FROM contacts c LEFT JOIN relationships r ON r.contact_id = c.id
		WHERE c.id = ? AND c.user_id = ?`, contactID, userID)

	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load contact: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT interest FROM contact_interests WHERE contact_id = ? ORDER BY interest`, contactID)
	if err != nil {
		return nil, fmt.Errorf("load interests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var interest string
		if err := rows.Scan(&interest); err != nil {
			return nil, fmt.Errorf("scan interest: %w", err)
		}
		c.Interests = append(c.Interests, interest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load interests: %w", err)
	}

	return c, nil
}

// RelationshipStats implements content.Repository.
func (r *Repository) RelationshipStats(ctx context.Context, userID string) (*content.Stats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.notes, COALESCE(r.tier, ''), COALESCE(r.type, ''), r.last_contact_date
		FROM contacts c LEFT JOIN relationships r ON r.contact_id = c.id
		WHERE c.user_id = ? ORDER BY c.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	defer rows.Close()

	var contacts []content.ContactDetails
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}

	now := r.now()
	cutoff := now.Add(-content.RecentInteractionWindow)
	irows, err := r.db.QueryContext(ctx,
		`SELECT occurred_at FROM interactions WHERE user_id = ? AND occurred_at >= ?`, userID, cutoff.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	defer irows.Close()

	var interactions []time.Time
	for irows.Next() {
		var at int64
		if err := irows.Scan(&at); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		interactions = append(interactions, time.Unix(0, at))
	}
	if err := irows.Err(); err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}

	return content.BuildStats(contacts, interactions, now), nil
}

// Close releases the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(s scanner) (*content.ContactDetails, error) {
	var c content.ContactDetails
	var last sql.NullInt64
	if err := s.Scan(&c.ID, &c.Name, &c.Notes, &c.Relationship.Tier, &c.Relationship.Type, &last); err != nil {
		return nil, err
	}
	if last.Valid {
		t := time.Unix(0, last.Int64)
		c.Relationship.LastContactDate = &t
	}
	return &c, nil
}

var _ content.Repository = (*Repository)(nil)
