// Package store persists compliance checks. Swap with concrete storage
// without touching the service.
package store

import (
	"context"

	"github.com/google/uuid"

	"adviserd/internal/compliance"
)

// Store is the persistence seam for compliance checks.
//
// FindAll returns checks in creation order; a status filter never reorders.
// Execute serializes the read-modify-write of a single check: the callback
// runs under the record's write lock, and the mutated check is persisted
// before Execute returns a snapshot. Concurrent Execute calls on the same id
// never interleave partial writes. Readers always observe a consistent
// snapshot: a check is either fully before or fully after a mutation.
type Store interface {
	Save(ctx context.Context, check *compliance.Check) error
	FindByID(ctx context.Context, id uuid.UUID) (*compliance.Check, error)
	FindAll(ctx context.Context, status *compliance.Status) ([]*compliance.Check, error)
	Execute(ctx context.Context, id uuid.UUID, fn func(check *compliance.Check) error) (*compliance.Check, error)
}
