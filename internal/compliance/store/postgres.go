package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"adviserd/internal/compliance"
	"adviserd/pkg/platform/sentinel"
)

// Postgres is the durable check store. Execute serializes per-check
// read-modify-write with SELECT ... FOR UPDATE; the seq column preserves
// creation order for FindAll. Checks are never deleted, mirroring the
// platform-wide retention requirement.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const checksSchema = `
CREATE TABLE IF NOT EXISTS compliance_checks (
	id              UUID PRIMARY KEY,
	seq             BIGSERIAL,
	rule_type       TEXT NOT NULL,
	target_type     TEXT NOT NULL,
	target_id       TEXT NOT NULL,
	status          TEXT NOT NULL,
	severity        TEXT NOT NULL,
	findings        TEXT[] NOT NULL DEFAULT '{}',
	recommendations TEXT[] NOT NULL DEFAULT '{}',
	reviewed_by     TEXT NOT NULL DEFAULT '',
	reviewed_at     TIMESTAMPTZ,
	escalated_to    TEXT NOT NULL DEFAULT '',
	escalated_at    TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_compliance_checks_status ON compliance_checks (status);
`

// EnsureSchema creates the checks table if it does not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, checksSchema); err != nil {
		return fmt.Errorf("ensure checks schema: %w", err)
	}
	return nil
}

const checkColumns = `
	id, rule_type, target_type, target_id, status, severity,
	findings, recommendations, reviewed_by, reviewed_at,
	escalated_to, escalated_at, created_at, updated_at
`

func (s *Postgres) Save(ctx context.Context, check *compliance.Check) error {
	query := `
		INSERT INTO compliance_checks (` + checkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query,
		check.ID,
		check.RuleType,
		check.TargetType,
		check.TargetID,
		check.Status,
		check.Severity,
		pq.Array(check.Findings),
		pq.Array(check.Recommendations),
		check.ReviewedBy,
		check.ReviewedAt,
		check.EscalatedTo,
		check.EscalatedAt,
		check.CreatedAt,
		check.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert compliance check: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*compliance.Check, error) {
	query := `SELECT ` + checkColumns + ` FROM compliance_checks WHERE id = $1`
	check, err := scanCheck(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return check, err
}

func (s *Postgres) FindAll(ctx context.Context, status *compliance.Status) ([]*compliance.Check, error) {
	query := `SELECT ` + checkColumns + ` FROM compliance_checks`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query compliance checks: %w", err)
	}
	defer rows.Close()

	checks := []*compliance.Check{}
	for rows.Next() {
		check, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}
	return checks, rows.Err()
}

func (s *Postgres) Execute(ctx context.Context, id uuid.UUID, fn func(check *compliance.Check) error) (*compliance.Check, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin check transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + checkColumns + ` FROM compliance_checks WHERE id = $1 FOR UPDATE`
	check, err := scanCheck(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := fn(check); err != nil {
		return nil, err
	}

	update := `
		UPDATE compliance_checks SET
			status = $2, findings = $3, reviewed_by = $4, reviewed_at = $5,
			escalated_to = $6, escalated_at = $7, updated_at = $8
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, update,
		check.ID,
		check.Status,
		pq.Array(check.Findings),
		check.ReviewedBy,
		check.ReviewedAt,
		check.EscalatedTo,
		check.EscalatedAt,
		check.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update compliance check: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit check transaction: %w", err)
	}
	return check, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheck(row rowScanner) (*compliance.Check, error) {
	var check compliance.Check
	var findings, recommendations []string
	err := row.Scan(
		&check.ID,
		&check.RuleType,
		&check.TargetType,
		&check.TargetID,
		&check.Status,
		&check.Severity,
		pq.Array(&findings),
		pq.Array(&recommendations),
		&check.ReviewedBy,
		&check.ReviewedAt,
		&check.EscalatedTo,
		&check.EscalatedAt,
		&check.CreatedAt,
		&check.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	check.Findings = findings
	check.Recommendations = recommendations
	if check.Findings == nil {
		check.Findings = []string{}
	}
	if check.Recommendations == nil {
		check.Recommendations = []string{}
	}
	return &check, nil
}
