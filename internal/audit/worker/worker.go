// Package worker drains asynchronously emitted audit entries. Read-path
// access entries go through here so the synchronous fail-closed recorder
// stays reserved for state changes.
package worker

import (
	"context"
	"log/slog"

	"adviserd/internal/audit"
)

// Worker consumes audit entries from a channel and records them. A failed
// append on this path is logged, never silently dropped, and does not stop
// the worker: access entries must not take the platform down.
type Worker struct {
	recorder *audit.Recorder
	inbox    <-chan audit.Entry
	logger   *slog.Logger
}

func New(recorder *audit.Recorder, inbox <-chan audit.Entry, logger *slog.Logger) *Worker {
	return &Worker{recorder: recorder, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if _, err := w.recorder.Record(ctx, entry); err != nil {
				if w.logger != nil {
					w.logger.ErrorContext(ctx, "async audit record failed",
						"action", entry.Action,
						"entity_type", entry.EntityType,
						"error", err,
					)
				}
			}
		}
	}
}
