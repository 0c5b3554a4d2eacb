// Package audit is the platform-wide, append-only record of state-changing
// actions. Entries are never mutated or deleted once written; the store
// supports append and filtered read only. This is a regulatory
// non-repudiation requirement, not a debugging convenience.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names a state-changing verb recorded against an entity.
type Action string

const (
	// Compliance engine actions
	ActionCheckCreated   Action = "compliance_check_created"
	ActionCheckApproved  Action = "compliance_check_approved"
	ActionCheckRejected  Action = "compliance_check_rejected"
	ActionCheckEscalated Action = "compliance_check_escalated"

	// Read-path access actions, recorded asynchronously by the worker
	ActionChecksListed  Action = "compliance_checks_listed"
	ActionAuditQueried  Action = "audit_log_queried"
	ActionEntryRecorded Action = "audit_entry_recorded"
)

// Entry is one audit log record. Timestamp is assigned at write time and is
// monotonically non-decreasing across the process.
type Entry struct {
	ID         uuid.UUID      `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	UserID     string         `json:"user_id"`
	UserRole   string         `json:"user_role,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
}

// Query filters audit reads. Zero-valued fields are no-ops; supplied fields
// apply as a conjunction.
type Query struct {
	EntityType string
	EntityID   string
	Start      time.Time
	End        time.Time
}

// Matches reports whether the entry satisfies every supplied filter.
func (q Query) Matches(entry Entry) bool {
	if q.EntityType != "" && entry.EntityType != q.EntityType {
		return false
	}
	if q.EntityID != "" && entry.EntityID != q.EntityID {
		return false
	}
	if !q.Start.IsZero() && entry.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && entry.Timestamp.After(q.End) {
		return false
	}
	return true
}

// Store persists audit entries. Implementations must be append-only: no
// update or delete operation exists by design. Appends are safe for
// concurrent callers and never share locks with other stores.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	Query(ctx context.Context, q Query) ([]Entry, error)
}
