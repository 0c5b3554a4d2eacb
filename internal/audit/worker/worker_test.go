package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adviserd/internal/audit"
)

// flakyStore fails a fixed number of appends before accepting entries.
type flakyStore struct {
	mu       sync.Mutex
	failures int
	entries  []audit.Entry
}

func (s *flakyStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("transient append failure")
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *flakyStore) Query(context.Context, audit.Query) ([]audit.Entry, error) {
	return nil, nil
}

func (s *flakyStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestWorkerRecordsInboxEntries(t *testing.T) {
	store := &flakyStore{}
	inbox := make(chan audit.Entry, 4)
	worker := New(audit.NewRecorder(store), inbox, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	inbox <- audit.Entry{Action: string(audit.ActionChecksListed), EntityType: "compliance_check"}
	inbox <- audit.Entry{Action: string(audit.ActionAuditQueried), EntityType: "audit_log"}

	waitFor(t, func() bool { return store.count() == 2 })

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkerSurvivesAppendFailures(t *testing.T) {
	store := &flakyStore{failures: 1}
	inbox := make(chan audit.Entry, 4)
	worker := New(audit.NewRecorder(store), inbox, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	// First entry hits the failing append and is dropped; the worker keeps going.
	inbox <- audit.Entry{Action: string(audit.ActionAuditQueried), EntityType: "audit_log"}
	inbox <- audit.Entry{Action: string(audit.ActionAuditQueried), EntityType: "audit_log"}

	waitFor(t, func() bool { return store.count() == 1 })
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	store := &flakyStore{}
	inbox := make(chan audit.Entry)
	worker := New(audit.NewRecorder(store), inbox, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
