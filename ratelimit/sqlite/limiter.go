// Package sqlite provides a ratelimit.Limiter whose windows live in SQLite,
// so several processes sharing one database file share one quota per user.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/deeplooplabs/ai-assistant/ratelimit"
)

// Limiter is a fixed-window limiter backed by SQLite.
type Limiter struct {
	db     *sql.DB
	config *ratelimit.Config
}

const createWindowsTable = `
CREATE TABLE IF NOT EXISTS rate_limit_windows (
	user_id TEXT PRIMARY KEY,
	count INTEGER NOT NULL,
	reset_at INTEGER NOT NULL
);
`

// New opens (or creates) the limiter database at dbPath. Transactions take the
// write lock up front so concurrent processes serialize on each window.
func New(dbPath string, config *ratelimit.Config) (*Limiter, error) {
	if config == nil {
		config = ratelimit.DefaultConfig()
	}

	db, err := sql.Open("sqlite", dbPath+"?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open rate limit db: %w", err)
	}

	if _, err := db.Exec(createWindowsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate rate limit db: %w", err)
	}

	return &Limiter{db: db, config: config.Normalize()}, nil
}

// CheckAndConsume implements ratelimit.Limiter.
func (l *Limiter) CheckAndConsume(ctx context.Context, userID string) (ratelimit.Decision, error) {
	if l.config.Disabled {
		return ratelimit.Decision{Allowed: true, Remaining: l.config.Max}, nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return ratelimit.Decision{}, fmt.Errorf("begin rate limit tx: %w", err)
	}
	defer tx.Rollback()

	w, exists, err := loadWindow(ctx, tx, userID)
	if err != nil {
		return ratelimit.Decision{}, err
	}

	next, decision := ratelimit.Consume(w, exists, l.config.Now(), l.config)

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO rate_limit_windows (user_id, count, reset_at) VALUES (?, ?, ?)`,
		userID, next.Count, next.ResetAt.UnixNano(),
	)
	if err != nil {
		return ratelimit.Decision{}, fmt.Errorf("save rate limit window: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ratelimit.Decision{}, fmt.Errorf("commit rate limit tx: %w", err)
	}
	return decision, nil
}

// UsageStats implements ratelimit.Limiter.
func (l *Limiter) UsageStats(ctx context.Context, userID string) (ratelimit.Stats, error) {
	w, exists, err := loadWindow(ctx, l.db, userID)
	if err != nil {
		return ratelimit.Stats{}, err
	}
	return ratelimit.Project(w, exists, l.config.Now(), l.config), nil
}

// Reset implements ratelimit.Limiter.
func (l *Limiter) Reset(ctx context.Context, userID string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM rate_limit_windows WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("reset rate limit window: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (l *Limiter) Close() error {
	return l.db.Close()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadWindow(ctx context.Context, q queryer, userID string) (ratelimit.Window, bool, error) {
	w := ratelimit.Window{UserID: userID}
	var resetAt int64

	err := q.QueryRowContext(ctx,
		`SELECT count, reset_at FROM rate_limit_windows WHERE user_id = ?`, userID,
	).Scan(&w.Count, &resetAt)
	if errors.Is(err, sql.ErrNoRows) {
		return w, false, nil
	}
	if err != nil {
		return w, false, fmt.Errorf("load rate limit window: %w", err)
	}

	w.ResetAt = time.Unix(0, resetAt)
	return w, true, nil
}

var _ ratelimit.Limiter = (*Limiter)(nil)
