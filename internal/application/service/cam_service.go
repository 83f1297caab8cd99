package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/port"
	"github.com/dentalworks/labflow/internal/domain/entity"
)

// CAMInput carries the milling department fields a technician edits.
type CAMInput struct {
	Operator        Operator `json:"operator"`
	MachineID       string   `json:"machine_id"`
	BlockID         string   `json:"block_id"`
	BlockMaterial   string   `json:"block_material"`
	MillingDuration int      `json:"milling_duration_minutes"`
	Notes           string   `json:"notes"`
}

// CAMService is the milling department handler. Completing with a
// selected block deducts one unit of stock first; a failed deduction
// aborts the completion and the case stays where it is.
type CAMService struct {
	caseRepo  port.CaseRepository
	inventory port.InventoryService
	tx        port.TransactionManager
	audit     port.AuditLogger
	logger    *zap.Logger
	now       func() time.Time
}

// NewCAMService creates the CAM department service.
func NewCAMService(caseRepo port.CaseRepository, inventory port.InventoryService, tx port.TransactionManager, audit port.AuditLogger, logger *zap.Logger) *CAMService {
	return &CAMService{caseRepo: caseRepo, inventory: inventory, tx: tx, audit: audit, logger: logger, now: time.Now}
}

// SaveData upserts the CAM sub-record without completing it.
func (s *CAMService) SaveData(ctx context.Context, caseID string, input CAMInput) (*entity.DentalCase, error) {
	c, data, err := s.merge(ctx, caseID, input)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, c, data, input.Operator.ID)
}

// CompleteWork deducts the selected block from inventory, then marks
// the sub-record completed. Deduction and save run in one transaction:
// when either fails, neither the stock level nor the MaterialDeducted
// flag moves, so a retry charges the block exactly once.
func (s *CAMService) CompleteWork(ctx context.Context, caseID string, input CAMInput) (*entity.DentalCase, error) {
	c, data, err := s.merge(ctx, caseID, input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if data.BlockID != "" && !data.MaterialDeducted {
			err := s.inventory.DeductStock(txCtx, data.BlockID, 1, c.CaseNumber, "cam milling block consumption")
			if err != nil {
				return fmt.Errorf("stock deduction for block %s failed: %w", data.BlockID, err)
			}
			data.MaterialDeducted = true
			s.logger.Info("Block deducted from inventory",
				zap.String("case_number", c.CaseNumber),
				zap.String("block_id", data.BlockID))
		}

		completeRecord(&data.DepartmentRecord, s.now())
		if err := s.caseRepo.UpdateDepartmentData(txCtx, c.ID, entity.DepartmentCAM, data); err != nil {
			return fmt.Errorf("failed to save cam data: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	departmentAudit(ctx, s.audit, s.logger, "department_data_saved", c.ID, input.Operator.ID, entity.DepartmentCAM)

	return s.caseRepo.GetByID(ctx, c.ID)
}

func (s *CAMService) merge(ctx context.Context, caseID string, input CAMInput) (*entity.DentalCase, *entity.CAMData, error) {
	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, nil, err
	}

	data := c.CAMData
	if data == nil {
		data = &entity.CAMData{}
	}

	beginRecord(&data.DepartmentRecord, input.Operator, s.now())
	if input.MachineID != "" {
		data.MachineID = input.MachineID
	}
	if input.BlockID != "" && input.BlockID != data.BlockID {
		// Switching blocks resets the deduction flag so the new block
		// is charged on completion.
		data.BlockID = input.BlockID
		data.MaterialDeducted = false
	}
	if input.BlockMaterial != "" {
		data.BlockMaterial = input.BlockMaterial
	}
	if input.MillingDuration > 0 {
		data.MillingDuration = input.MillingDuration
	}
	if input.Notes != "" {
		data.Notes = input.Notes
	}

	return c, data, nil
}

func (s *CAMService) persist(ctx context.Context, c *entity.DentalCase, data *entity.CAMData, actorID string) (*entity.DentalCase, error) {
	if err := s.caseRepo.UpdateDepartmentData(ctx, c.ID, entity.DepartmentCAM, data); err != nil {
		return nil, fmt.Errorf("failed to save cam data: %w", err)
	}

	departmentAudit(ctx, s.audit, s.logger, "department_data_saved", c.ID, actorID, entity.DepartmentCAM)

	return s.caseRepo.GetByID(ctx, c.ID)
}
