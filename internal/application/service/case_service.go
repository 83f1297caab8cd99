package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/port"
	"github.com/dentalworks/labflow/internal/domain/entity"
	domainwf "github.com/dentalworks/labflow/internal/domain/workflow"
	"github.com/dentalworks/labflow/pkg/utils"
)

// CaseService owns case intake, lookup and department-data persistence.
// It never mutates CurrentStatus; that is the transition engine's job.
type CaseService interface {
	// CreateCase validates intake input, assigns a case number and
	// persists the case at reception
	CreateCase(ctx context.Context, input entity.CreateCaseInput) (*entity.DentalCase, error)

	// GetCase retrieves a case, port.ErrCaseNotFound if absent
	GetCase(ctx context.Context, id string) (*entity.DentalCase, error)

	// GetCaseByNumber retrieves a case by its human-readable number,
	// the one printed on the work ticket
	GetCaseByNumber(ctx context.Context, caseNumber string) (*entity.DentalCase, error)

	// ListCases retrieves cases matching the filter, newest first
	ListCases(ctx context.Context, filter entity.CaseFilter) ([]*entity.DentalCase, error)

	// UpdateDepartmentData shallow-merges partial data into the named
	// department sub-record without touching CurrentStatus
	UpdateDepartmentData(ctx context.Context, id, department string, partial map[string]interface{}, actorID string) (*entity.DentalCase, error)

	// UpdateExpectedDelivery changes the mutable expected delivery date
	UpdateExpectedDelivery(ctx context.Context, id string, t time.Time) error

	// GetHistory retrieves a case's workflow history in append order
	GetHistory(ctx context.Context, id string) ([]*entity.WorkflowHistoryEntry, error)
}

type caseService struct {
	caseRepo    port.CaseRepository
	historyRepo port.HistoryRepository
	numbers     *CaseNumberService
	doctors     port.DoctorDirectory
	audit       port.AuditLogger
	metrics     CreationRecorder
	logger      *zap.Logger
	now         func() time.Time
}

// CreationRecorder counts case intakes. Satisfied by the metrics
// package; a nil recorder disables counting.
type CreationRecorder interface {
	RecordCaseCreated()
}

// CaseServiceOption configures the case service
type CaseServiceOption func(*caseService)

// WithCreationRecorder sets the metrics recorder
func WithCreationRecorder(r CreationRecorder) CaseServiceOption {
	return func(s *caseService) {
		s.metrics = r
	}
}

// NewCaseService creates the case service.
func NewCaseService(
	caseRepo port.CaseRepository,
	historyRepo port.HistoryRepository,
	numbers *CaseNumberService,
	doctors port.DoctorDirectory,
	audit port.AuditLogger,
	logger *zap.Logger,
	opts ...CaseServiceOption,
) CaseService {
	s := &caseService{
		caseRepo:    caseRepo,
		historyRepo: historyRepo,
		numbers:     numbers,
		doctors:     doctors,
		audit:       audit,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCase validates input and persists a new case at reception.
func (s *caseService) CreateCase(ctx context.Context, input entity.CreateCaseInput) (*entity.DentalCase, error) {
	// Intake comes straight off the front-desk form; strip control
	// characters before validating.
	input.PatientName = utils.SanitizeString(input.PatientName)

	verr := &entity.ValidationError{}

	if input.DoctorID == "" {
		verr.Add("doctor_id", "is required")
	}
	if err := utils.ValidatePatientName(input.PatientName); err != nil {
		verr.Add("patient_name", err.Error())
	}
	if err := utils.ValidateTeethNumbers(input.TeethNumbers); err != nil {
		verr.Add("teeth_numbers", err.Error())
	}
	if !entity.ValidWorkTypes[input.WorkType] {
		verr.Add("work_type", fmt.Sprintf("unknown work type %q", input.WorkType))
	}
	if input.Priority == "" {
		input.Priority = entity.PriorityNormal
	} else if !entity.ValidPriorities[input.Priority] {
		verr.Add("priority", fmt.Sprintf("unknown priority %q", input.Priority))
	}
	if verr.HasErrors() {
		return nil, verr
	}

	doctorName, err := s.doctors.GetDoctorName(ctx, input.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve doctor %s: %w", input.DoctorID, err)
	}

	caseNumber, err := s.numbers.GenerateCaseNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &entity.DentalCase{
		ID:                   uuid.NewString(),
		CaseNumber:           caseNumber,
		DoctorID:             input.DoctorID,
		DoctorName:           doctorName,
		PatientName:          input.PatientName,
		TeethNumbers:         input.TeethNumbers,
		WorkType:             input.WorkType,
		Priority:             input.Priority,
		CurrentStatus:        domainwf.StateReception.String(),
		ReceivedDate:         now,
		ExpectedDeliveryDate: input.ExpectedDeliveryDate,
		TotalCostCents:       input.TotalCostCents,
	}

	if err := s.caseRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create case: %w", err)
	}

	s.logger.Info("Case created",
		zap.String("case_number", c.CaseNumber),
		zap.String("work_type", c.WorkType),
		zap.String("doctor", c.DoctorName))

	if s.metrics != nil {
		s.metrics.RecordCaseCreated()
	}

	s.recordAudit(ctx, "case_created", c.ID, "", map[string]interface{}{
		"case_number": c.CaseNumber,
		"work_type":   c.WorkType,
	})

	return c, nil
}

// GetCase retrieves a case by ID.
func (s *caseService) GetCase(ctx context.Context, id string) (*entity.DentalCase, error) {
	return s.caseRepo.GetByID(ctx, id)
}

// GetCaseByNumber retrieves a case by its human-readable number.
func (s *caseService) GetCaseByNumber(ctx context.Context, caseNumber string) (*entity.DentalCase, error) {
	return s.caseRepo.GetByCaseNumber(ctx, caseNumber)
}

// ListCases retrieves cases matching the filter.
func (s *caseService) ListCases(ctx context.Context, filter entity.CaseFilter) ([]*entity.DentalCase, error) {
	return s.caseRepo.List(ctx, filter)
}

// UpdateDepartmentData shallow-merges partial data into the named
// sub-record. The merge happens at the top level of the sub-record
// only; nested values are replaced wholesale.
func (s *caseService) UpdateDepartmentData(ctx context.Context, id, department string, partial map[string]interface{}, actorID string) (*entity.DentalCase, error) {
	if !entity.ValidDepartments[department] {
		return nil, entity.NewValidationError("department", fmt.Sprintf("unknown department %q", department))
	}

	c, err := s.caseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged, err := mergeDepartmentData(c, department, partial)
	if err != nil {
		return nil, err
	}

	if err := s.caseRepo.UpdateDepartmentData(ctx, id, department, merged); err != nil {
		return nil, fmt.Errorf("failed to update %s data: %w", department, err)
	}

	s.recordAudit(ctx, "department_data_saved", id, actorID, map[string]interface{}{
		"case_number": c.CaseNumber,
		"department":  department,
	})

	return s.caseRepo.GetByID(ctx, id)
}

// UpdateExpectedDelivery changes the expected delivery date.
func (s *caseService) UpdateExpectedDelivery(ctx context.Context, id string, t time.Time) error {
	if _, err := s.caseRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.caseRepo.UpdateExpectedDelivery(ctx, id, t)
}

// recordAudit emits an audit record; failures never surface.
// GetHistory retrieves the workflow history for a case. The case must
// exist.
func (s *caseService) GetHistory(ctx context.Context, id string) ([]*entity.WorkflowHistoryEntry, error) {
	if _, err := s.caseRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.historyRepo.GetByCaseID(ctx, id)
}

func (s *caseService) recordAudit(ctx context.Context, action, caseID, actorID string, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("Audit logger panicked", zap.Any("panic", r))
		}
	}()
	s.audit.Record(ctx, action, "dental_case", caseID, actorID, details)
}

// mergeDepartmentData merges partial data over the case's existing
// sub-record for the department and returns the merged typed value.
func mergeDepartmentData(c *entity.DentalCase, department string, partial map[string]interface{}) (interface{}, error) {
	var existing interface{}
	var target interface{}

	switch department {
	case entity.DepartmentCAD:
		if c.CADData != nil {
			existing = c.CADData
		}
		target = &entity.CADData{}
	case entity.DepartmentCAM:
		if c.CAMData != nil {
			existing = c.CAMData
		}
		target = &entity.CAMData{}
	case entity.DepartmentFinishing:
		if c.FinishingData != nil {
			existing = c.FinishingData
		}
		target = &entity.FinishingData{}
	case entity.DepartmentRemovable:
		if c.RemovableData != nil {
			existing = c.RemovableData
		}
		target = &entity.RemovableData{}
	case entity.DepartmentQC:
		if c.QCData != nil {
			existing = c.QCData
		}
		target = &entity.QCData{}
	default:
		return nil, entity.NewValidationError("department", fmt.Sprintf("unknown department %q", department))
	}

	base := map[string]interface{}{}
	if existing != nil {
		raw, err := json.Marshal(existing)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal existing %s data: %w", department, err)
		}
		if err := json.Unmarshal(raw, &base); err != nil {
			return nil, fmt.Errorf("failed to decode existing %s data: %w", department, err)
		}
	} else {
		base["status"] = entity.RecordStatusInProgress
	}

	for k, v := range partial {
		base[k] = v
	}

	raw, err := json.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged %s data: %w", department, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, entity.NewValidationError(department, fmt.Sprintf("invalid %s data: %v", department, err))
	}

	return target, nil
}
