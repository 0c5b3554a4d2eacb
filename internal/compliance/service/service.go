// Package service is the check lifecycle manager: it runs the evaluator,
// owns the status state machine, and keeps the audit trail in lockstep with
// every state change.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"adviserd/internal/audit"
	"adviserd/internal/compliance"
	"adviserd/internal/compliance/evaluator"
	"adviserd/internal/compliance/store"
	"adviserd/internal/platform/metrics"
	dErrors "adviserd/pkg/domain-errors"
	"adviserd/pkg/platform/middleware/metadata"
	"adviserd/pkg/platform/sentinel"
)

// AuditRecorder persists audit entries with fail-closed semantics. A failed
// record fails the operation that triggered it; the trail is part of the
// correctness contract.
type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) (audit.Entry, error)
}

// Service orchestrates check creation, review, and escalation.
type Service struct {
	checks  store.Store
	auditor AuditRecorder
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(checks store.Store, auditor AuditRecorder, opts ...Option) *Service {
	s := &Service{checks: checks, auditor: auditor}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateRequest carries everything needed to evaluate content and open a check.
type ValidateRequest struct {
	RuleType   compliance.RuleType
	TargetType compliance.TargetType
	TargetID   string
	Content    string
	// ActorID and ActorRole attribute the audit entry to the caller.
	ActorID   string
	ActorRole string
}

// ValidateContent evaluates content under one rule type and persists the
// resulting check. Invalid input is rejected before any state mutation or
// audit write. A check with findings is always pending; a clean check is
// auto-approved at low severity.
func (s *Service) ValidateContent(ctx context.Context, req ValidateRequest) (*compliance.Check, error) {
	if !req.RuleType.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown rule type "+string(req.RuleType))
	}
	if !req.TargetType.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown target type "+string(req.TargetType))
	}
	if strings.TrimSpace(req.TargetID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "target id is required")
	}

	start := time.Now()
	result, err := evaluator.Evaluate(req.RuleType, req.Content)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	}

	now := time.Now().UTC()
	check := compliance.NewCheck(
		uuid.New(),
		req.RuleType,
		req.TargetType,
		req.TargetID,
		result.Findings,
		result.Recommendations,
		result.Severity,
		now,
	)

	if err := s.checks.Save(ctx, check); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save check")
	}

	if err := s.recordAudit(ctx, audit.ActionCheckCreated, check, req.ActorID, req.ActorRole, map[string]any{
		"rule_type":      check.RuleType,
		"status":         check.Status,
		"severity":       check.Severity,
		"findings_count": len(check.Findings),
	}); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "compliance check created",
			"check_id", check.ID,
			"rule_type", check.RuleType,
			"status", check.Status,
			"severity", check.Severity,
		)
	}
	if s.metrics != nil {
		s.metrics.ChecksCreated.WithLabelValues(string(check.RuleType), string(check.Severity)).Inc()
	}
	return check, nil
}

// GetCheck returns a single check by id.
func (s *Service) GetCheck(ctx context.Context, id uuid.UUID) (*compliance.Check, error) {
	check, err := s.checks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "check not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load check")
	}
	return check, nil
}

// ListChecks returns checks in creation order, optionally filtered by status.
func (s *Service) ListChecks(ctx context.Context, status *compliance.Status) ([]*compliance.Check, error) {
	if status != nil && !status.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown status "+string(*status))
	}
	checks, err := s.checks.FindAll(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list checks")
	}
	return checks, nil
}

// ReviewRequest carries a human review outcome for a pending or escalated check.
type ReviewRequest struct {
	Status     compliance.Status
	ReviewerID string
	Notes      string
	ActorRole  string
}

// ReviewCheck applies a review outcome. Terminal checks reject the transition
// with an invalid-transition error, distinct from not-found. Notes are
// appended to the findings log as "Review notes: ...".
func (s *Service) ReviewCheck(ctx context.Context, id uuid.UUID, req ReviewRequest) (*compliance.Check, error) {
	if strings.TrimSpace(req.ReviewerID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reviewer id is required")
	}

	now := time.Now().UTC()
	check, err := s.checks.Execute(ctx, id, func(check *compliance.Check) error {
		if err := check.CanReview(req.Status); err != nil {
			return err
		}
		check.ApplyReview(req.Status, req.ReviewerID, req.Notes, now)
		return nil
	})
	if err != nil {
		return nil, s.translateMutationErr(err)
	}

	action := reviewAction(req.Status)
	details := map[string]any{"outcome": req.Status}
	if req.Notes != "" {
		details["notes"] = req.Notes
	}
	if err := s.recordAudit(ctx, action, check, req.ReviewerID, req.ActorRole, details); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "compliance check reviewed",
			"check_id", check.ID,
			"outcome", req.Status,
			"reviewer", req.ReviewerID,
		)
	}
	if s.metrics != nil {
		s.metrics.Reviews.WithLabelValues(string(req.Status)).Inc()
	}
	return check, nil
}

// EscalateCheck hands a check to a higher-authority reviewer without
// resolving it. Re-escalating an escalated check overwrites the target.
func (s *Service) EscalateCheck(ctx context.Context, id uuid.UUID, escalatedTo, actorID, actorRole string) (*compliance.Check, error) {
	if strings.TrimSpace(escalatedTo) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "escalation target is required")
	}

	now := time.Now().UTC()
	check, err := s.checks.Execute(ctx, id, func(check *compliance.Check) error {
		if err := check.CanEscalate(); err != nil {
			return err
		}
		check.ApplyEscalation(escalatedTo, now)
		return nil
	})
	if err != nil {
		return nil, s.translateMutationErr(err)
	}

	if err := s.recordAudit(ctx, audit.ActionCheckEscalated, check, actorID, actorRole, map[string]any{
		"escalated_to": escalatedTo,
	}); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "compliance check escalated",
			"check_id", check.ID,
			"escalated_to", escalatedTo,
		)
	}
	if s.metrics != nil {
		s.metrics.Escalations.Inc()
	}
	return check, nil
}

// GetStats folds the current check collection into dashboard counts.
// Recomputed per call; the store is the single source of truth.
func (s *Service) GetStats(ctx context.Context) (compliance.Stats, error) {
	checks, err := s.checks.FindAll(ctx, nil)
	if err != nil {
		return compliance.Stats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load checks")
	}
	return compliance.ComputeStats(checks), nil
}

func (s *Service) translateMutationErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "check not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update check")
}

func (s *Service) recordAudit(ctx context.Context, action audit.Action, check *compliance.Check, actorID, actorRole string, details map[string]any) error {
	userAgent := metadata.GetUserAgent(ctx)
	if summary := metadata.ClientSummary(userAgent); summary != "" {
		details["client"] = summary
	}
	_, err := s.auditor.Record(ctx, audit.Entry{
		Action:     string(action),
		EntityType: "compliance_check",
		EntityID:   check.ID.String(),
		UserID:     actorID,
		UserRole:   actorRole,
		Details:    details,
		IPAddress:  metadata.GetClientIP(ctx),
		UserAgent:  userAgent,
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.AuditFailures.Inc()
		}
		return err
	}
	if s.metrics != nil {
		s.metrics.AuditEntries.Inc()
	}
	return nil
}

func reviewAction(status compliance.Status) audit.Action {
	switch status {
	case compliance.StatusApproved:
		return audit.ActionCheckApproved
	case compliance.StatusRejected:
		return audit.ActionCheckRejected
	default:
		return audit.ActionCheckEscalated
	}
}
