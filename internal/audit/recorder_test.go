package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "adviserd/pkg/domain-errors"
)

// captureStore records appended entries in memory for assertions.
type captureStore struct {
	entries   []Entry
	appendErr error
}

func (s *captureStore) Append(_ context.Context, entry Entry) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *captureStore) Query(_ context.Context, q Query) ([]Entry, error) {
	matched := []Entry{}
	for _, entry := range s.entries {
		if q.Matches(entry) {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func TestRecordAssignsIdentityAndTimestamp(t *testing.T) {
	store := &captureStore{}
	recorder := NewRecorder(store)

	before := time.Now().UTC()
	stored, err := recorder.Record(context.Background(), Entry{
		Action:     string(ActionCheckCreated),
		EntityType: "compliance_check",
		EntityID:   "check-1",
		UserID:     "analyst-1",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, stored.ID)
	assert.False(t, stored.Timestamp.Before(before))
	require.Len(t, store.entries, 1)
	assert.Equal(t, stored.ID, store.entries[0].ID)
}

func TestRecordValidatesEntry(t *testing.T) {
	recorder := NewRecorder(&captureStore{})

	_, err := recorder.Record(context.Background(), Entry{EntityType: "compliance_check"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = recorder.Record(context.Background(), Entry{Action: string(ActionCheckCreated)})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestRecordFailsClosedOnStoreError(t *testing.T) {
	recorder := NewRecorder(&captureStore{appendErr: errors.New("disk full")})

	_, err := recorder.Record(context.Background(), Entry{
		Action:     string(ActionCheckCreated),
		EntityType: "compliance_check",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestTimestampsAreNonDecreasing(t *testing.T) {
	store := &captureStore{}
	recorder := NewRecorder(store)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		_, err := recorder.Record(ctx, Entry{
			Action:     string(ActionCheckCreated),
			EntityType: "compliance_check",
		})
		require.NoError(t, err)
	}

	for i := 1; i < len(store.entries); i++ {
		assert.False(t, store.entries[i].Timestamp.Before(store.entries[i-1].Timestamp),
			"entry %d went backwards", i)
	}
}

func TestQueryAppliesConjunctionOfFilters(t *testing.T) {
	store := &captureStore{}
	recorder := NewRecorder(store)
	ctx := context.Background()

	record := func(entityType, entityID string) Entry {
		stored, err := recorder.Record(ctx, Entry{
			Action:     string(ActionCheckCreated),
			EntityType: entityType,
			EntityID:   entityID,
		})
		require.NoError(t, err)
		return stored
	}

	first := record("compliance_check", "check-1")
	record("compliance_check", "check-2")
	record("client_profile", "check-1")

	t.Run("no filters returns everything", func(t *testing.T) {
		entries, err := recorder.Query(ctx, Query{})
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("entity type alone", func(t *testing.T) {
		entries, err := recorder.Query(ctx, Query{EntityType: "compliance_check"})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("entity type and id combine as AND", func(t *testing.T) {
		entries, err := recorder.Query(ctx, Query{EntityType: "compliance_check", EntityID: "check-1"})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, first.ID, entries[0].ID)
	})

	t.Run("time window bounds are inclusive", func(t *testing.T) {
		entries, err := recorder.Query(ctx, Query{Start: first.Timestamp, End: first.Timestamp})
		require.NoError(t, err)
		for _, entry := range entries {
			assert.True(t, entry.Timestamp.Equal(first.Timestamp))
		}
		assert.NotEmpty(t, entries)
	})

	t.Run("future window matches nothing", func(t *testing.T) {
		entries, err := recorder.Query(ctx, Query{Start: time.Now().Add(time.Hour)})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
