package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	dErrors "adviserd/pkg/domain-errors"
)

// Recorder writes audit entries with fail-closed semantics: the caller blocks
// until persistence succeeds or fails, and on failure the calling operation
// must fail too. The audit trail is part of the correctness contract, not a
// best-effort side channel.
type Recorder struct {
	store  Store
	logger *slog.Logger

	mu   sync.Mutex
	last time.Time
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithLogger sets a logger for failure reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// NewRecorder creates a fail-closed audit recorder over the given store.
func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record assigns id and timestamp, persists the entry, and returns the stored
// copy. Timestamps are clamped to be non-decreasing across the process even
// if the wall clock steps backwards.
func (r *Recorder) Record(ctx context.Context, entry Entry) (Entry, error) {
	if entry.Action == "" {
		return Entry{}, dErrors.New(dErrors.CodeValidation, "audit entry requires an action")
	}
	if entry.EntityType == "" {
		return Entry{}, dErrors.New(dErrors.CodeValidation, "audit entry requires an entity type")
	}

	entry.ID = uuid.New()
	entry.Timestamp = r.nextTimestamp()

	if err := r.store.Append(ctx, entry); err != nil {
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "CRITICAL: audit append failed",
				"action", entry.Action,
				"entity_type", entry.EntityType,
				"entity_id", entry.EntityID,
				"error", err,
			)
		}
		return Entry{}, dErrors.Wrap(err, dErrors.CodeInternal, "audit persistence failed")
	}
	return entry, nil
}

// Query returns stored entries matching the supplied filters.
func (r *Recorder) Query(ctx context.Context, q Query) ([]Entry, error) {
	entries, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "audit query failed")
	}
	return entries, nil
}

func (r *Recorder) nextTimestamp() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if now.Before(r.last) {
		now = r.last
	}
	r.last = now
	return now
}
