// Package compliance holds the domain model for the compliance validation
// and review engine: rule types, check lifecycle, and severity ordering.
package compliance

import (
	"time"

	"github.com/google/uuid"

	dErrors "adviserd/pkg/domain-errors"
)

// RuleType is the closed set of regulatory rule frameworks a check can be
// evaluated under. A type is never inferred from content; callers supply it.
type RuleType string

const (
	RuleSECMarketing   RuleType = "SEC_MARKETING_206_4_1"
	RuleFINRA2210      RuleType = "FINRA_2210"
	RuleGLBASafeguards RuleType = "GLBA_SAFEGUARDS"
	RuleSECRegSP       RuleType = "SEC_REG_S_P"
	RuleAMLKYC         RuleType = "AML_KYC"
)

// RuleTypes returns all known rule types in a stable order.
func RuleTypes() []RuleType {
	return []RuleType{RuleSECMarketing, RuleFINRA2210, RuleGLBASafeguards, RuleSECRegSP, RuleAMLKYC}
}

func (r RuleType) Valid() bool {
	switch r {
	case RuleSECMarketing, RuleFINRA2210, RuleGLBASafeguards, RuleSECRegSP, RuleAMLKYC:
		return true
	}
	return false
}

// TargetType identifies what kind of entity a check reviews.
type TargetType string

const (
	TargetDocument      TargetType = "document"
	TargetCommunication TargetType = "communication"
	TargetClient        TargetType = "client"
	TargetTransaction   TargetType = "transaction"
)

func (t TargetType) Valid() bool {
	switch t {
	case TargetDocument, TargetCommunication, TargetClient, TargetTransaction:
		return true
	}
	return false
}

// Severity is the automated criticality assessment assigned once at check
// creation. It drives review prioritization, not validity, and never changes
// after creation.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// MaxSeverity returns the more severe of a and b. Once critical, always
// critical: later evaluation steps can never downgrade an earlier match.
func MaxSeverity(a, b Severity) Severity {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

// Status is the lifecycle state of a check.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusEscalated Status = "escalated"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusEscalated:
		return true
	}
	return false
}

// statusTransitions is the explicit transition table for the check state
// machine. Approved and rejected are terminal; escalated may be re-escalated
// to a different party.
var statusTransitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected, StatusEscalated},
	StatusEscalated: {StatusApproved, StatusRejected, StatusEscalated},
}

// CanTransitionTo reports whether the state machine allows moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return len(statusTransitions[s]) == 0 && s.Valid()
}

// Check is the unit of work: one evaluation of one piece of content against
// one rule type, plus its subsequent human review history.
//
// Invariants:
//   - ID, RuleType, TargetType, TargetID, Severity and CreatedAt are immutable
//     after construction
//   - Empty findings at creation always means Status=approved, Severity=low;
//     non-empty findings always means Status=pending (automated evaluation
//     flags, it never adjudicates)
//   - Findings are append-only; review notes are appended, never replace
//   - ReviewedBy/ReviewedAt are set exactly once, by the first review
//   - EscalatedTo/EscalatedAt may be overwritten by re-escalation
//   - Approved and rejected are terminal; a second review of a resolved check
//     fails with an invalid transition instead of rewriting history
//   - UpdatedAt advances on every mutation
type Check struct {
	ID              uuid.UUID  `json:"id"`
	RuleType        RuleType   `json:"rule_type"`
	TargetType      TargetType `json:"target_type"`
	TargetID        string     `json:"target_id"`
	Status          Status     `json:"status"`
	Severity        Severity   `json:"severity"`
	Findings        []string   `json:"findings"`
	Recommendations []string   `json:"recommendations"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	EscalatedTo     string     `json:"escalated_to,omitempty"`
	EscalatedAt     *time.Time `json:"escalated_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewCheck constructs a check from an automated evaluation, applying the
// creation invariant: no findings means auto-approved at low severity, any
// finding parks the check pending human review.
func NewCheck(id uuid.UUID, ruleType RuleType, targetType TargetType, targetID string, findings, recommendations []string, severity Severity, now time.Time) *Check {
	status := StatusPending
	if len(findings) == 0 {
		status = StatusApproved
		severity = SeverityLow
	}
	if findings == nil {
		findings = []string{}
	}
	if recommendations == nil {
		recommendations = []string{}
	}
	return &Check{
		ID:              id,
		RuleType:        ruleType,
		TargetType:      targetType,
		TargetID:        targetID,
		Status:          status,
		Severity:        severity,
		Findings:        findings,
		Recommendations: recommendations,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// CanReview checks whether a review transition to next is allowed.
// Returns an error for terminal checks and for non-review target states.
func (c *Check) CanReview(next Status) error {
	switch next {
	case StatusApproved, StatusRejected, StatusEscalated:
	default:
		return dErrors.New(dErrors.CodeValidation, "review status must be approved, rejected or escalated")
	}
	if !c.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvalidTransition, "check in status "+string(c.Status)+" cannot transition to "+string(next))
	}
	return nil
}

// ApplyReview records a human review outcome. ReviewedBy/ReviewedAt are
// first-write-only; a later review reached from escalated keeps the original
// reviewer stamp. Notes, when present, are appended to the findings log so
// the check carries its full narrative. Call CanReview first.
func (c *Check) ApplyReview(next Status, reviewerID, notes string, now time.Time) {
	c.Status = next
	if c.ReviewedBy == "" {
		c.ReviewedBy = reviewerID
		reviewedAt := now
		c.ReviewedAt = &reviewedAt
	}
	if next == StatusEscalated {
		escalatedAt := now
		c.EscalatedAt = &escalatedAt
	}
	if notes != "" {
		c.Findings = append(c.Findings, "Review notes: "+notes)
	}
	c.UpdatedAt = now
}

// CanEscalate checks whether the check may be handed to a higher authority.
// Re-escalation of an already-escalated check is allowed.
func (c *Check) CanEscalate() error {
	if !c.Status.CanTransitionTo(StatusEscalated) {
		return dErrors.New(dErrors.CodeInvalidTransition, "check in status "+string(c.Status)+" cannot be escalated")
	}
	return nil
}

// ApplyEscalation hands the check to the named party, overwriting any prior
// escalation target. Call CanEscalate first.
func (c *Check) ApplyEscalation(escalatedTo string, now time.Time) {
	c.Status = StatusEscalated
	c.EscalatedTo = escalatedTo
	escalatedAt := now
	c.EscalatedAt = &escalatedAt
	c.UpdatedAt = now
}

// Clone returns a deep copy so store snapshots never share finding slices
// with callers.
func (c *Check) Clone() *Check {
	clone := *c
	clone.Findings = append([]string{}, c.Findings...)
	clone.Recommendations = append([]string{}, c.Recommendations...)
	if c.ReviewedAt != nil {
		reviewedAt := *c.ReviewedAt
		clone.ReviewedAt = &reviewedAt
	}
	if c.EscalatedAt != nil {
		escalatedAt := *c.EscalatedAt
		clone.EscalatedAt = &escalatedAt
	}
	return &clone
}

// Stats summarizes the check collection for dashboards. It is recomputed on
// demand from the store; it holds no independent state.
type Stats struct {
	Total      int              `json:"total"`
	Pending    int              `json:"pending"`
	Approved   int              `json:"approved"`
	Rejected   int              `json:"rejected"`
	Escalated  int              `json:"escalated"`
	BySeverity map[Severity]int `json:"by_severity"`
	ByType     map[RuleType]int `json:"by_type"`
}

// ComputeStats folds the given checks into dashboard counts.
func ComputeStats(checks []*Check) Stats {
	stats := Stats{
		BySeverity: make(map[Severity]int),
		ByType:     make(map[RuleType]int),
	}
	for _, check := range checks {
		stats.Total++
		switch check.Status {
		case StatusPending:
			stats.Pending++
		case StatusApproved:
			stats.Approved++
		case StatusRejected:
			stats.Rejected++
		case StatusEscalated:
			stats.Escalated++
		}
		stats.BySeverity[check.Severity]++
		stats.ByType[check.RuleType]++
	}
	return stats
}
