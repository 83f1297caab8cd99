package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/port"
	"github.com/dentalworks/labflow/internal/domain/entity"
)

// CADInput carries the design department fields a technician edits.
type CADInput struct {
	Operator       Operator `json:"operator"`
	DesignSoftware string   `json:"design_software"`
	DesignFileRef  string   `json:"design_file_ref"`
	ScanRef        string   `json:"scan_ref"`
	Notes          string   `json:"notes"`
}

// CADService is the design department handler. Saving and completing
// never change the case's CurrentStatus.
type CADService struct {
	caseRepo port.CaseRepository
	audit    port.AuditLogger
	logger   *zap.Logger
	now      func() time.Time
}

// NewCADService creates the CAD department service.
func NewCADService(caseRepo port.CaseRepository, audit port.AuditLogger, logger *zap.Logger) *CADService {
	return &CADService{caseRepo: caseRepo, audit: audit, logger: logger, now: time.Now}
}

// SaveData upserts the CAD sub-record. Idempotent: saving the same
// input twice leaves the case unchanged.
func (s *CADService) SaveData(ctx context.Context, caseID string, input CADInput) (*entity.DentalCase, error) {
	return s.apply(ctx, caseID, input, false)
}

// CompleteWork saves the data and marks the sub-record completed.
func (s *CADService) CompleteWork(ctx context.Context, caseID string, input CADInput) (*entity.DentalCase, error) {
	return s.apply(ctx, caseID, input, true)
}

func (s *CADService) apply(ctx context.Context, caseID string, input CADInput, complete bool) (*entity.DentalCase, error) {
	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	data := c.CADData
	if data == nil {
		data = &entity.CADData{}
	}

	now := s.now()
	beginRecord(&data.DepartmentRecord, input.Operator, now)
	if input.DesignSoftware != "" {
		data.DesignSoftware = input.DesignSoftware
	}
	if input.DesignFileRef != "" {
		data.DesignFileRef = input.DesignFileRef
	}
	if input.ScanRef != "" {
		data.ScanRef = input.ScanRef
	}
	if input.Notes != "" {
		data.Notes = input.Notes
	}
	if complete {
		completeRecord(&data.DepartmentRecord, now)
	}

	if err := s.caseRepo.UpdateDepartmentData(ctx, caseID, entity.DepartmentCAD, data); err != nil {
		return nil, fmt.Errorf("failed to save cad data: %w", err)
	}

	departmentAudit(ctx, s.audit, s.logger, "department_data_saved", caseID, input.Operator.ID, entity.DepartmentCAD)

	return s.caseRepo.GetByID(ctx, caseID)
}
