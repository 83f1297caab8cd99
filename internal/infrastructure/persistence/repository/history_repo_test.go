package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/domain/entity"
)

func TestHistoryRepository_AppendAndGet(t *testing.T) {
	db := newTestDB(t)
	cases := NewCaseRepository(db, zap.NewNop())
	history := NewHistoryRepository(db, zap.NewNop())
	ctx := context.Background()

	// workflow_history carries a foreign key to the case.
	require.NoError(t, cases.Create(ctx, freshCase("c1", "L-2026-00001")))

	first := &entity.WorkflowHistoryEntry{
		CaseID:     "c1",
		FromStatus: "reception",
		ToStatus:   "cad_design",
		StartTime:  time.Now().UTC().Truncate(time.Second),
		ActorID:    "front-1",
	}
	require.NoError(t, history.Append(ctx, first))
	assert.NotZero(t, first.ID)

	second := &entity.WorkflowHistoryEntry{
		CaseID:          "c1",
		FromStatus:      "quality_control",
		ToStatus:        "finishing",
		StartTime:       time.Now().UTC().Truncate(time.Second),
		RejectionReason: "margin defect",
		ActorID:         "qc-1",
		Override:        false,
	}
	require.NoError(t, history.Append(ctx, second))

	entries, err := history.GetByCaseID(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "cad_design", entries[0].ToStatus)
	assert.Equal(t, "margin defect", entries[1].RejectionReason)
	assert.Greater(t, entries[1].ID, entries[0].ID)

	entries, err = history.GetByCaseID(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSequenceRepository_Next(t *testing.T) {
	db := newTestDB(t)
	sequences := NewSequenceRepository(db, zap.NewNop())
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := sequences.Next(ctx, 2026)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Each year counts independently.
	got, err := sequences.Next(ctx, 2027)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}
