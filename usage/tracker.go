package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	assistant "github.com/deeplooplabs/ai-assistant"
)

// Config holds tracker configuration
type Config struct {
	// Buffer is the number of records that may wait for the writer (default: 256)
	Buffer int

	// WriteTimeout bounds a single ledger write (default: 5s)
	WriteTimeout time.Duration

	// Enabled indicates whether usage is recorded
	Enabled bool
}

// DefaultConfig returns a default tracker configuration
func DefaultConfig() *Config {
	return &Config{
		Buffer:       256,
		WriteTimeout: 5 * time.Second,
		Enabled:      true,
	}
}

// Tracker records usage without ever blocking or failing the caller.
// A single writer goroutine drains a bounded buffer into the ledger.
type Tracker struct {
	ledger  Ledger
	config  *Config
	logger  *slog.Logger
	now     func() time.Time
	records chan Record
	done    chan struct{}
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
}

// NewTracker creates a tracker and starts its writer
func NewTracker(ledger Ledger, config *Config, logger *slog.Logger) *Tracker {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Buffer <= 0 {
		config.Buffer = 256
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	t := &Tracker{
		ledger:  ledger,
		config:  config,
		logger:  logger,
		now:     time.Now,
		records: make(chan Record, config.Buffer),
		done:    make(chan struct{}),
	}

	go t.run()
	return t
}

// Record queues a usage record. It returns immediately; a full buffer or a
// closed tracker drops the record with a log line.
func (t *Tracker) Record(userID string, tokensEstimate int, feature string) {
	if t == nil || !t.config.Enabled || t.ledger == nil {
		return
	}

	rec := Record{
		ID:             uuid.New().String(),
		UserID:         userID,
		TokensEstimate: tokensEstimate,
		Feature:        feature,
		CreatedAt:      t.now().UTC(),
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		t.logger.Warn("usage tracker closed, dropping record", "user_id", userID, "feature", feature)
		return
	}

	select {
	case t.records <- rec:
	default:
		t.logger.Warn("usage buffer full, dropping record", "user_id", userID, "feature", feature)
	}
}

// Close stops accepting records and waits until queued records are written
// or ctx is done.
func (t *Tracker) Close(ctx context.Context) error {
	if t == nil {
		return nil
	}
	t.once.Do(func() {
		t.mu.Lock()
		t.closed = true
		close(t.records)
		t.mu.Unlock()
	})

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) run() {
	defer close(t.done)

	for rec := range t.records {
		t.write(rec)
	}
}

func (t *Tracker) write(rec Record) {
	ctx, cancel := context.WithTimeout(context.Background(), t.config.WriteTimeout)
	defer cancel()

	if err := t.ledger.Record(ctx, rec); err != nil {
		lerr := assistant.NewLedgerError("record usage", err)
		t.logger.Error("usage ledger write failed",
			"user_id", rec.UserID,
			"feature", rec.Feature,
			"error", lerr,
		)
	}
}
