package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"adviserd/internal/compliance"
	"adviserd/pkg/platform/sentinel"
)

// InMemory is the reference check store. A single RWMutex serializes all
// mutations, which trivially satisfies the per-record serialization contract;
// reads hand out deep copies so callers never alias stored state.
type InMemory struct {
	mu     sync.RWMutex
	checks []*compliance.Check
	byID   map[uuid.UUID]*compliance.Check
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[uuid.UUID]*compliance.Check)}
}

func (s *InMemory) Save(_ context.Context, check *compliance.Check) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[check.ID]; exists {
		return sentinel.ErrConflict
	}
	stored := check.Clone()
	s.checks = append(s.checks, stored)
	s.byID[stored.ID] = stored
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*compliance.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	check, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return check.Clone(), nil
}

func (s *InMemory) FindAll(_ context.Context, status *compliance.Status) ([]*compliance.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []*compliance.Check{}
	for _, check := range s.checks {
		if status != nil && check.Status != *status {
			continue
		}
		matched = append(matched, check.Clone())
	}
	return matched, nil
}

func (s *InMemory) Execute(_ context.Context, id uuid.UUID, fn func(check *compliance.Check) error) (*compliance.Check, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	// Mutate a copy so a failing callback leaves the stored check untouched.
	working := stored.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	*stored = *working
	return working.Clone(), nil
}
