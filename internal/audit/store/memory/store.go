package memory

import (
	"context"
	"sync"

	"adviserd/internal/audit"
)

// Store is the in-memory audit store. Appends preserve arrival order; reads
// return copies so callers can never mutate stored entries.
type Store struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, entry audit.Entry) error {
	if entry.Details != nil {
		details := make(map[string]any, len(entry.Details))
		for k, v := range entry.Details {
			details[k] = v
		}
		entry.Details = details
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *Store) Query(_ context.Context, q audit.Query) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []audit.Entry{}
	for _, entry := range s.entries {
		if q.Matches(entry) {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}
