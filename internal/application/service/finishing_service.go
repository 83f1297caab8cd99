package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/port"
	"github.com/dentalworks/labflow/internal/domain/entity"
)

// FinishingInput carries the finishing department record fields.
type FinishingInput struct {
	Operator Operator `json:"operator"`
	Notes    string   `json:"notes"`
}

// FinishingService is the finishing department handler. Besides the
// shared save/complete contract it manages the internal ten-stage
// sub-pipeline. Stage bookkeeping never touches the case's
// CurrentStatus; only the final ready_for_qc stage makes the case a
// candidate for transfer.
type FinishingService struct {
	caseRepo port.CaseRepository
	audit    port.AuditLogger
	logger   *zap.Logger
	now      func() time.Time
}

// NewFinishingService creates the finishing department service.
func NewFinishingService(caseRepo port.CaseRepository, audit port.AuditLogger, logger *zap.Logger) *FinishingService {
	return &FinishingService{caseRepo: caseRepo, audit: audit, logger: logger, now: time.Now}
}

// SaveData upserts the finishing sub-record, initializing the stage
// pipeline on first touch.
func (s *FinishingService) SaveData(ctx context.Context, caseID string, input FinishingInput) (*entity.DentalCase, error) {
	data, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}

	beginRecord(&data.DepartmentRecord, input.Operator, s.now())
	if input.Notes != "" {
		data.Notes = input.Notes
	}

	return s.persist(ctx, caseID, data, input.Operator.ID)
}

// CompleteWork marks the department record completed. All stages must
// have finished first.
func (s *FinishingService) CompleteWork(ctx context.Context, caseID string, input FinishingInput) (*entity.DentalCase, error) {
	data, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}

	for _, stage := range data.Stages {
		if stage.Status != entity.StageStatusCompleted {
			return nil, entity.NewValidationError("stages",
				fmt.Sprintf("stage %s is %s, all stages must be completed", stage.Name, stage.Status))
		}
	}

	now := s.now()
	beginRecord(&data.DepartmentRecord, input.Operator, now)
	if input.Notes != "" {
		data.Notes = input.Notes
	}
	completeRecord(&data.DepartmentRecord, now)

	return s.persist(ctx, caseID, data, input.Operator.ID)
}

// StartStage moves a stage to in_progress. Stages may only start once
// every earlier stage has completed.
func (s *FinishingService) StartStage(ctx context.Context, caseID, stageName string, op Operator) (*entity.DentalCase, error) {
	data, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}

	idx := entity.StageIndex(stageName)
	if idx < 0 {
		return nil, entity.NewValidationError("stage", fmt.Sprintf("unknown finishing stage %q", stageName))
	}

	for i := 0; i < idx; i++ {
		if data.Stages[i].Status != entity.StageStatusCompleted {
			return nil, entity.NewValidationError("stage",
				fmt.Sprintf("stage %s cannot start before %s completes", stageName, data.Stages[i].Name))
		}
	}

	now := s.now()
	beginRecord(&data.DepartmentRecord, op, now)
	stage := &data.Stages[idx]
	stage.Status = entity.StageStatusInProgress
	if stage.StartedAt == nil {
		t := now
		stage.StartedAt = &t
	}
	stage.OperatorID = op.ID

	return s.persist(ctx, caseID, data, op.ID)
}

// CompleteStage marks an in-progress stage completed.
func (s *FinishingService) CompleteStage(ctx context.Context, caseID, stageName string, op Operator, notes string) (*entity.DentalCase, error) {
	data, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}

	idx := entity.StageIndex(stageName)
	if idx < 0 {
		return nil, entity.NewValidationError("stage", fmt.Sprintf("unknown finishing stage %q", stageName))
	}

	stage := &data.Stages[idx]
	if stage.Status != entity.StageStatusInProgress {
		return nil, entity.NewValidationError("stage",
			fmt.Sprintf("stage %s is %s, only an in_progress stage can complete", stageName, stage.Status))
	}

	now := s.now()
	stage.Status = entity.StageStatusCompleted
	t := now
	stage.CompletedAt = &t
	if notes != "" {
		stage.Notes = notes
	}

	return s.persist(ctx, caseID, data, op.ID)
}

// RejectStage marks a stage rejected and moves the previous stage back
// to in_progress for rework. Rejecting the first stage reworks the
// stage itself. The local rework loop never touches the department
// record status or the case status.
func (s *FinishingService) RejectStage(ctx context.Context, caseID, stageName string, op Operator, notes string) (*entity.DentalCase, error) {
	data, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}

	idx := entity.StageIndex(stageName)
	if idx < 0 {
		return nil, entity.NewValidationError("stage", fmt.Sprintf("unknown finishing stage %q", stageName))
	}

	stage := &data.Stages[idx]
	stage.Status = entity.StageStatusRejected
	stage.CompletedAt = nil
	if notes != "" {
		stage.Notes = notes
	}

	rework := idx - 1
	if rework < 0 {
		rework = 0
	}
	prev := &data.Stages[rework]
	prev.Status = entity.StageStatusInProgress
	prev.CompletedAt = nil

	s.logger.Info("Finishing stage rejected",
		zap.String("case_id", caseID),
		zap.String("stage", stageName),
		zap.String("rework_stage", prev.Name))

	return s.persist(ctx, caseID, data, op.ID)
}

// load fetches the case's finishing data, initializing the stage
// pipeline when the department has not touched the case yet.
func (s *FinishingService) load(ctx context.Context, caseID string) (*entity.FinishingData, error) {
	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	data := c.FinishingData
	if data == nil {
		data = &entity.FinishingData{}
	}
	if len(data.Stages) == 0 {
		data.Stages = entity.NewFinishingStages()
	}
	return data, nil
}

func (s *FinishingService) persist(ctx context.Context, caseID string, data *entity.FinishingData, actorID string) (*entity.DentalCase, error) {
	if err := s.caseRepo.UpdateDepartmentData(ctx, caseID, entity.DepartmentFinishing, data); err != nil {
		return nil, fmt.Errorf("failed to save finishing data: %w", err)
	}

	departmentAudit(ctx, s.audit, s.logger, "department_data_saved", caseID, actorID, entity.DepartmentFinishing)

	return s.caseRepo.GetByID(ctx, caseID)
}
