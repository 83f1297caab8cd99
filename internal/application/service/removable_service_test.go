package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/domain/entity"
	domainwf "github.com/dentalworks/labflow/internal/domain/workflow"
)

func newRemovableFixture() (*RemovableService, *fakeCaseRepo) {
	c := newTestCase("c1", "removable")
	c.WorkType = entity.WorkTypeDenture
	caseRepo := newFakeCaseRepo(c)
	return NewRemovableService(caseRepo, nil, zap.NewNop()), caseRepo
}

func TestRemovableService_SaveData(t *testing.T) {
	svc, _ := newRemovableFixture()

	updated, err := svc.SaveData(context.Background(), "c1", RemovableInput{
		Operator:       Operator{ID: "t-2"},
		ProstheticType: "full denture",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.RemovableData)
	assert.Equal(t, "full denture", updated.RemovableData.ProstheticType)
	assert.Equal(t, entity.RecordStatusInProgress, updated.RemovableData.Status)
}

func TestRemovableService_PauseAndResume(t *testing.T) {
	svc, caseRepo := newRemovableFixture()

	updated, err := svc.Pause(context.Background(), "c1", "clinic try-in", "t-2")
	require.NoError(t, err)
	require.NotNil(t, updated.RemovableData.CurrentPause)
	assert.Equal(t, "clinic try-in", updated.RemovableData.CurrentPause.Reason)
	assert.Equal(t, "t-2", updated.RemovableData.CurrentPause.PausedBy)

	c, _ := caseRepo.GetByID(context.Background(), "c1")
	assert.True(t, c.IsPaused())

	updated, err = svc.Resume(context.Background(), "c1", "sup-1", entity.RoleSupervisor)
	require.NoError(t, err)
	assert.Nil(t, updated.RemovableData.CurrentPause)
	require.Len(t, updated.RemovableData.PauseHistory, 1)

	closed := updated.RemovableData.PauseHistory[0]
	assert.Equal(t, "clinic try-in", closed.Reason)
	require.NotNil(t, closed.ResumedAt)
	assert.Equal(t, "sup-1", closed.ResumedBy)
}

func TestRemovableService_PauseRequiresReason(t *testing.T) {
	svc, _ := newRemovableFixture()

	_, err := svc.Pause(context.Background(), "c1", "", "t-2")
	var verr *entity.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestRemovableService_DoublePauseRejected(t *testing.T) {
	svc, _ := newRemovableFixture()

	_, err := svc.Pause(context.Background(), "c1", "try-in", "t-2")
	require.NoError(t, err)
	_, err = svc.Pause(context.Background(), "c1", "second hold", "t-2")
	require.ErrorIs(t, err, domainwf.ErrCasePaused)
}

func TestRemovableService_ResumeRoleGated(t *testing.T) {
	svc, _ := newRemovableFixture()

	_, err := svc.Pause(context.Background(), "c1", "try-in", "t-2")
	require.NoError(t, err)

	_, err = svc.Resume(context.Background(), "c1", "t-2", entity.RoleTechnician)
	require.Error(t, err, "technician cannot lift a hold")

	_, err = svc.Resume(context.Background(), "c1", "adm-1", entity.RoleAdmin)
	require.NoError(t, err)
}

func TestRemovableService_ResumeWithoutPause(t *testing.T) {
	svc, _ := newRemovableFixture()

	_, err := svc.Resume(context.Background(), "c1", "adm-1", entity.RoleAdmin)
	var verr *entity.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestRemovableService_CompleteBlockedWhilePaused(t *testing.T) {
	svc, _ := newRemovableFixture()

	_, err := svc.Pause(context.Background(), "c1", "try-in", "t-2")
	require.NoError(t, err)

	_, err = svc.CompleteWork(context.Background(), "c1", RemovableInput{Operator: Operator{ID: "t-2"}})
	require.ErrorIs(t, err, domainwf.ErrCasePaused)
}
