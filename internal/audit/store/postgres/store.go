package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"adviserd/internal/audit"
)

// Store is the durable audit store. The table is append-only: no UPDATE or
// DELETE statement exists anywhere in this package by design.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id          UUID PRIMARY KEY,
	timestamp   TIMESTAMPTZ NOT NULL,
	action      TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id   TEXT NOT NULL DEFAULT '',
	user_id     TEXT NOT NULL DEFAULT '',
	user_role   TEXT NOT NULL DEFAULT '',
	details     JSONB,
	ip_address  TEXT NOT NULL DEFAULT '',
	user_agent  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_audit_entries_entity ON audit_entries (entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_audit_entries_timestamp ON audit_entries (timestamp);
`

// EnsureSchema creates the audit table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	var details []byte
	if entry.Details != nil {
		var err error
		details, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
	}

	query := `
		INSERT INTO audit_entries (
			id, timestamp, action, entity_type, entity_id,
			user_id, user_role, details, ip_address, user_agent
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.Timestamp,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.UserID,
		entry.UserRole,
		details,
		entry.IPAddress,
		entry.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, q audit.Query) ([]audit.Entry, error) {
	query := `
		SELECT id, timestamp, action, entity_type, entity_id,
		       user_id, user_role, details, ip_address, user_agent
		FROM audit_entries
		WHERE 1=1
	`
	var args []any
	if q.EntityType != "" {
		args = append(args, q.EntityType)
		query += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	if q.EntityID != "" {
		args = append(args, q.EntityID)
		query += fmt.Sprintf(" AND entity_id = $%d", len(args))
	}
	if !q.Start.IsZero() {
		args = append(args, q.Start)
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if !q.End.IsZero() {
		args = append(args, q.End)
		query += fmt.Sprintf(" AND timestamp <= $%d", len(args))
	}
	query += " ORDER BY timestamp, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := []audit.Entry{}
	for rows.Next() {
		var entry audit.Entry
		var details []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.Timestamp,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&entry.UserID,
			&entry.UserRole,
			&details,
			&entry.IPAddress,
			&entry.UserAgent,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
