package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/port"
	"github.com/dentalworks/labflow/internal/domain/entity"
	domainwf "github.com/dentalworks/labflow/internal/domain/workflow"
)

// RemovableInput carries the removable-prosthetics department fields.
type RemovableInput struct {
	Operator       Operator `json:"operator"`
	ProstheticType string   `json:"prosthetic_type"`
	Notes          string   `json:"notes"`
}

// RemovableService is the removable-prosthetics department handler. It
// additionally owns the clinical try-in pause: an open pause blocks
// transfers, and resuming it is admin-gated.
type RemovableService struct {
	caseRepo port.CaseRepository
	audit    port.AuditLogger
	logger   *zap.Logger
	now      func() time.Time
}

// NewRemovableService creates the removable department service.
func NewRemovableService(caseRepo port.CaseRepository, audit port.AuditLogger, logger *zap.Logger) *RemovableService {
	return &RemovableService{caseRepo: caseRepo, audit: audit, logger: logger, now: time.Now}
}

// SaveData upserts the removable sub-record.
func (s *RemovableService) SaveData(ctx context.Context, caseID string, input RemovableInput) (*entity.DentalCase, error) {
	return s.apply(ctx, caseID, input, false)
}

// CompleteWork saves the data and marks the sub-record completed. An
// open pause must be resumed first.
func (s *RemovableService) CompleteWork(ctx context.Context, caseID string, input RemovableInput) (*entity.DentalCase, error) {
	return s.apply(ctx, caseID, input, true)
}

func (s *RemovableService) apply(ctx context.Context, caseID string, input RemovableInput, complete bool) (*entity.DentalCase, error) {
	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	data := c.RemovableData
	if data == nil {
		data = &entity.RemovableData{}
	}

	if complete && data.CurrentPause != nil {
		return nil, fmt.Errorf("%w: case %s", domainwf.ErrCasePaused, c.CaseNumber)
	}

	now := s.now()
	beginRecord(&data.DepartmentRecord, input.Operator, now)
	if input.ProstheticType != "" {
		data.ProstheticType = input.ProstheticType
	}
	if input.Notes != "" {
		data.Notes = input.Notes
	}
	if complete {
		completeRecord(&data.DepartmentRecord, now)
	}

	return s.persist(ctx, caseID, data, input.Operator.ID)
}

// Pause opens a hold on the case, e.g. for a clinical try-in. Fails if
// a pause is already open.
func (s *RemovableService) Pause(ctx context.Context, caseID, reason, actorID string) (*entity.DentalCase, error) {
	if reason == "" {
		return nil, entity.NewValidationError("reason", "pause reason is required")
	}

	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	data := c.RemovableData
	if data == nil {
		data = &entity.RemovableData{}
	}
	if data.CurrentPause != nil {
		return nil, fmt.Errorf("%w: case %s already holds an open pause", domainwf.ErrCasePaused, c.CaseNumber)
	}

	data.CurrentPause = &entity.PauseRecord{
		Reason:   reason,
		PausedAt: s.now(),
		PausedBy: actorID,
	}

	s.logger.Info("Case paused",
		zap.String("case_number", c.CaseNumber),
		zap.String("reason", reason))

	return s.persist(ctx, caseID, data, actorID)
}

// Resume closes the open pause, moving it into the pause history.
// Admin-gated: a technician cannot lift a hold.
func (s *RemovableService) Resume(ctx context.Context, caseID, actorID, actorRole string) (*entity.DentalCase, error) {
	if actorRole != entity.RoleAdmin && actorRole != entity.RoleSupervisor {
		return nil, fmt.Errorf("resume requires the %s or %s role, got %q", entity.RoleAdmin, entity.RoleSupervisor, actorRole)
	}

	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	data := c.RemovableData
	if data == nil || data.CurrentPause == nil {
		return nil, entity.NewValidationError("pause", "case holds no open pause")
	}

	closed := *data.CurrentPause
	t := s.now()
	closed.ResumedAt = &t
	closed.ResumedBy = actorID
	data.PauseHistory = append(data.PauseHistory, closed)
	data.CurrentPause = nil

	s.logger.Info("Case resumed",
		zap.String("case_number", c.CaseNumber),
		zap.String("actor", actorID))

	return s.persist(ctx, caseID, data, actorID)
}

func (s *RemovableService) persist(ctx context.Context, caseID string, data *entity.RemovableData, actorID string) (*entity.DentalCase, error) {
	if err := s.caseRepo.UpdateDepartmentData(ctx, caseID, entity.DepartmentRemovable, data); err != nil {
		return nil, fmt.Errorf("failed to save removable data: %w", err)
	}

	departmentAudit(ctx, s.audit, s.logger, "department_data_saved", caseID, actorID, entity.DepartmentRemovable)

	return s.caseRepo.GetByID(ctx, caseID)
}
