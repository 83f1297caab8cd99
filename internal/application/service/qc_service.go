package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/port"
	appwf "github.com/dentalworks/labflow/internal/application/workflow"
	"github.com/dentalworks/labflow/internal/domain/entity"
	domainwf "github.com/dentalworks/labflow/internal/domain/workflow"
)

// QCInput carries one quality-control inspection. Each of the four
// checks is pass, fail or conditional; the overall result is the
// inspector's explicit verdict, not derived from the checks.
type QCInput struct {
	Operator Operator `json:"operator"`

	DimensionCheck string `json:"dimension_check"`
	ColorCheck     string `json:"color_check"`
	OcclusionCheck string `json:"occlusion_check"`
	MarginCheck    string `json:"margin_check"`

	OverallResult      string `json:"overall_result"`
	RejectionReason    string `json:"rejection_reason"`
	ReturnToDepartment string `json:"return_to_department"`
	Notes              string `json:"notes"`
}

var validCheckResults = map[string]bool{
	entity.CheckResultPass:        true,
	entity.CheckResultFail:        true,
	entity.CheckResultConditional: true,
}

// QCService is the quality-control handler. A passing inspection
// triggers the transfer to accounting; a failing one records the
// rejection so the operator can transfer the case back to the chosen
// department.
type QCService struct {
	caseRepo port.CaseRepository
	engine   appwf.TransitionEngine
	audit    port.AuditLogger
	logger   *zap.Logger
	now      func() time.Time
}

// NewQCService creates the quality-control service.
func NewQCService(caseRepo port.CaseRepository, engine appwf.TransitionEngine, audit port.AuditLogger, logger *zap.Logger) *QCService {
	return &QCService{caseRepo: caseRepo, engine: engine, audit: audit, logger: logger, now: time.Now}
}

// SaveData upserts the QC sub-record without finishing the inspection.
func (s *QCService) SaveData(ctx context.Context, caseID string, input QCInput) (*entity.DentalCase, error) {
	c, data, err := s.merge(ctx, caseID, input, false)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, c.ID, data, input.Operator.ID)
}

// CompleteInspection finalizes the inspection. A pass moves the case
// to accounting; a fail records the rejection reason and return target
// and leaves the transfer to the operator.
func (s *QCService) CompleteInspection(ctx context.Context, caseID string, input QCInput) (*entity.DentalCase, error) {
	c, data, err := s.merge(ctx, caseID, input, true)
	if err != nil {
		return nil, err
	}

	completeRecord(&data.DepartmentRecord, s.now())
	if _, err := s.persist(ctx, c.ID, data, input.Operator.ID); err != nil {
		return nil, err
	}

	if data.OverallResult == entity.QCOverallPass {
		return s.engine.TransferCase(ctx, caseID, domainwf.StateAccounting, appwf.TransferOptions{
			Notes:   "quality control passed",
			ActorID: input.Operator.ID,
		})
	}

	s.logger.Info("Quality control failed",
		zap.String("case_number", c.CaseNumber),
		zap.String("return_to", data.ReturnToDepartment),
		zap.String("reason", data.RejectionReason))

	return s.caseRepo.GetByID(ctx, caseID)
}

func (s *QCService) merge(ctx context.Context, caseID string, input QCInput, final bool) (*entity.DentalCase, *entity.QCData, error) {
	verr := &entity.ValidationError{}
	for field, value := range map[string]string{
		"dimension_check": input.DimensionCheck,
		"color_check":     input.ColorCheck,
		"occlusion_check": input.OcclusionCheck,
		"margin_check":    input.MarginCheck,
	} {
		if value != "" && !validCheckResults[value] {
			verr.Add(field, fmt.Sprintf("unknown check result %q", value))
		}
	}

	if input.OverallResult != "" && input.OverallResult != entity.QCOverallPass && input.OverallResult != entity.QCOverallFail {
		verr.Add("overall_result", fmt.Sprintf("must be %s or %s", entity.QCOverallPass, entity.QCOverallFail))
	}

	if final {
		if input.OverallResult == "" {
			verr.Add("overall_result", "is required to complete an inspection")
		}
		if input.OverallResult == entity.QCOverallFail {
			if input.RejectionReason == "" {
				verr.Add("rejection_reason", "is required when the overall result is fail")
			}
			if !appwf.RejectionTargets[domainwf.State(input.ReturnToDepartment)] {
				verr.Add("return_to_department", fmt.Sprintf("%q is not a valid rejection target", input.ReturnToDepartment))
			}
		}
	}

	if verr.HasErrors() {
		return nil, nil, verr
	}

	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, nil, err
	}

	data := c.QCData
	if data == nil {
		data = &entity.QCData{}
	}

	beginRecord(&data.DepartmentRecord, input.Operator, s.now())
	if input.DimensionCheck != "" {
		data.DimensionCheck = input.DimensionCheck
	}
	if input.ColorCheck != "" {
		data.ColorCheck = input.ColorCheck
	}
	if input.OcclusionCheck != "" {
		data.OcclusionCheck = input.OcclusionCheck
	}
	if input.MarginCheck != "" {
		data.MarginCheck = input.MarginCheck
	}
	if input.OverallResult != "" {
		data.OverallResult = input.OverallResult
	}
	if input.RejectionReason != "" {
		data.RejectionReason = input.RejectionReason
	}
	if input.ReturnToDepartment != "" {
		data.ReturnToDepartment = input.ReturnToDepartment
	}
	if input.Notes != "" {
		data.Notes = input.Notes
	}

	return c, data, nil
}

func (s *QCService) persist(ctx context.Context, caseID string, data *entity.QCData, actorID string) (*entity.DentalCase, error) {
	if err := s.caseRepo.UpdateDepartmentData(ctx, caseID, entity.DepartmentQC, data); err != nil {
		return nil, fmt.Errorf("failed to save qc data: %w", err)
	}

	departmentAudit(ctx, s.audit, s.logger, "department_data_saved", caseID, actorID, entity.DepartmentQC)

	return s.caseRepo.GetByID(ctx, caseID)
}
