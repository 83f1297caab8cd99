package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/domain/entity"
)

func TestCADService_SaveData(t *testing.T) {
	caseRepo := newFakeCaseRepo(newTestCase("c1", "cad_design"))
	svc := NewCADService(caseRepo, nil, zap.NewNop())

	op := Operator{ID: "t-3", Name: "Mika"}
	updated, err := svc.SaveData(context.Background(), "c1", CADInput{
		Operator:       op,
		DesignSoftware: "exocad",
		ScanRef:        "scan-001",
	})
	require.NoError(t, err)

	data := updated.CADData
	require.NotNil(t, data)
	assert.Equal(t, entity.RecordStatusInProgress, data.Status)
	assert.Equal(t, "exocad", data.DesignSoftware)
	assert.Equal(t, "t-3", data.OperatorID)
	require.NotNil(t, data.StartTime)
	assert.Nil(t, data.EndTime)

	// Saving does not move the case
	assert.Equal(t, "cad_design", updated.CurrentStatus)
}

func TestCADService_SaveDataIdempotent(t *testing.T) {
	caseRepo := newFakeCaseRepo(newTestCase("c1", "cad_design"))
	svc := NewCADService(caseRepo, nil, zap.NewNop())

	input := CADInput{Operator: Operator{ID: "t-3"}, DesignSoftware: "exocad"}
	first, err := svc.SaveData(context.Background(), "c1", input)
	require.NoError(t, err)
	second, err := svc.SaveData(context.Background(), "c1", input)
	require.NoError(t, err)

	assert.Equal(t, first.CADData.DesignSoftware, second.CADData.DesignSoftware)
	assert.Equal(t, first.CADData.Status, second.CADData.Status)
	assert.True(t, first.CADData.StartTime.Equal(*second.CADData.StartTime),
		"start time stamped once")
}

func TestCADService_CompleteWork(t *testing.T) {
	caseRepo := newFakeCaseRepo(newTestCase("c1", "cad_design"))
	svc := NewCADService(caseRepo, nil, zap.NewNop())

	updated, err := svc.CompleteWork(context.Background(), "c1", CADInput{
		Operator:      Operator{ID: "t-3"},
		DesignFileRef: "design-042.stl",
	})
	require.NoError(t, err)

	data := updated.CADData
	require.NotNil(t, data)
	assert.Equal(t, entity.RecordStatusCompleted, data.Status)
	require.NotNil(t, data.EndTime)
	// Completion never transfers; that is an explicit separate action
	assert.Equal(t, "cad_design", updated.CurrentStatus)
}
