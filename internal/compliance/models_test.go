package compliance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "adviserd/pkg/domain-errors"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusEscalated, true},
		{StatusEscalated, StatusApproved, true},
		{StatusEscalated, StatusRejected, true},
		{StatusEscalated, StatusEscalated, true},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusEscalated, false},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusEscalated, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}

	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusEscalated.Terminal())
}

func TestNewCheckCreationInvariant(t *testing.T) {
	now := time.Now()

	t.Run("no findings auto-approves at low severity", func(t *testing.T) {
		check := NewCheck(uuid.New(), RuleFINRA2210, TargetCommunication, "c1", nil, nil, SeverityHigh, now)
		assert.Equal(t, StatusApproved, check.Status)
		assert.Equal(t, SeverityLow, check.Severity)
		assert.NotNil(t, check.Findings)
		assert.NotNil(t, check.Recommendations)
	})

	t.Run("findings park the check pending", func(t *testing.T) {
		check := NewCheck(uuid.New(), RuleSECMarketing, TargetDocument, "d1",
			[]string{"a finding"}, nil, SeverityCritical, now)
		assert.Equal(t, StatusPending, check.Status)
		assert.Equal(t, SeverityCritical, check.Severity)
	})
}

func TestReviewGuards(t *testing.T) {
	now := time.Now()
	check := NewCheck(uuid.New(), RuleSECMarketing, TargetDocument, "d1",
		[]string{"a finding"}, nil, SeverityHigh, now)

	t.Run("review to pending is invalid", func(t *testing.T) {
		err := check.CanReview(StatusPending)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("notes append to findings", func(t *testing.T) {
		require.NoError(t, check.CanReview(StatusRejected))
		before := len(check.Findings)
		check.ApplyReview(StatusRejected, "officer-1", "contains prohibited terms", now.Add(time.Minute))

		assert.Equal(t, StatusRejected, check.Status)
		assert.Equal(t, "officer-1", check.ReviewedBy)
		require.NotNil(t, check.ReviewedAt)
		require.Len(t, check.Findings, before+1)
		assert.Equal(t, "Review notes: contains prohibited terms", check.Findings[before])
	})

	t.Run("terminal checks reject further transitions", func(t *testing.T) {
		err := check.CanReview(StatusApproved)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		err = check.CanEscalate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func TestReviewerStampIsFirstWriteOnly(t *testing.T) {
	now := time.Now()
	check := NewCheck(uuid.New(), RuleSECMarketing, TargetDocument, "d1",
		[]string{"a finding"}, nil, SeverityHigh, now)

	require.NoError(t, check.CanReview(StatusEscalated))
	check.ApplyReview(StatusEscalated, "officer-1", "", now.Add(time.Minute))
	firstReviewedAt := *check.ReviewedAt

	require.NoError(t, check.CanReview(StatusApproved))
	check.ApplyReview(StatusApproved, "cco", "", now.Add(2*time.Minute))

	assert.Equal(t, "officer-1", check.ReviewedBy)
	assert.Equal(t, firstReviewedAt, *check.ReviewedAt)
	assert.Equal(t, StatusApproved, check.Status)
}

func TestEscalationOverwritesTarget(t *testing.T) {
	now := time.Now()
	check := NewCheck(uuid.New(), RuleSECMarketing, TargetDocument, "d1",
		[]string{"a finding"}, nil, SeverityHigh, now)

	require.NoError(t, check.CanEscalate())
	check.ApplyEscalation("cco", now.Add(time.Minute))
	assert.Equal(t, StatusEscalated, check.Status)
	assert.Equal(t, "cco", check.EscalatedTo)
	firstEscalatedAt := *check.EscalatedAt

	require.NoError(t, check.CanEscalate())
	check.ApplyEscalation("outside-counsel", now.Add(2*time.Minute))
	assert.Equal(t, "outside-counsel", check.EscalatedTo)
	assert.True(t, check.EscalatedAt.After(firstEscalatedAt))
}

func TestCloneIsIndependent(t *testing.T) {
	now := time.Now()
	check := NewCheck(uuid.New(), RuleSECMarketing, TargetDocument, "d1",
		[]string{"a finding"}, []string{"a recommendation"}, SeverityHigh, now)

	clone := check.Clone()
	clone.Findings[0] = "mutated"
	clone.Status = StatusApproved

	assert.Equal(t, "a finding", check.Findings[0])
	assert.Equal(t, StatusPending, check.Status)
}

func TestMaxSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, MaxSeverity(SeverityCritical, SeverityLow))
	assert.Equal(t, SeverityCritical, MaxSeverity(SeverityLow, SeverityCritical))
	assert.Equal(t, SeverityHigh, MaxSeverity(SeverityMedium, SeverityHigh))
	assert.Equal(t, SeverityLow, MaxSeverity(SeverityLow, SeverityLow))
}

func TestComputeStats(t *testing.T) {
	now := time.Now()
	critical := NewCheck(uuid.New(), RuleSECMarketing, TargetDocument, "d1",
		[]string{"a finding"}, nil, SeverityCritical, now)
	clean := NewCheck(uuid.New(), RuleSECMarketing, TargetDocument, "d2", nil, nil, SeverityLow, now)

	stats := ComputeStats([]*Check{critical, clean})

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Approved)
	assert.Equal(t, 0, stats.Rejected)
	assert.Equal(t, 0, stats.Escalated)
	assert.Equal(t, 1, stats.BySeverity[SeverityCritical])
	assert.Equal(t, 1, stats.BySeverity[SeverityLow])
	assert.Equal(t, 2, stats.ByType[RuleSECMarketing])
}
