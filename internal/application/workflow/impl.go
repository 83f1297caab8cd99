package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dentalworks/labflow/internal/application/port"
	"github.com/dentalworks/labflow/internal/domain/entity"
	domainwf "github.com/dentalworks/labflow/internal/domain/workflow"
	"go.uber.org/zap"
)

// engineImpl is the concrete implementation of TransitionEngine
type engineImpl struct {
	caseRepo    port.CaseRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	invoices    port.InvoiceNotifier
	audit       port.AuditLogger
	metrics     TransitionRecorder
	logger      *zap.Logger
}

// TransitionRecorder counts executed transitions. Satisfied by the
// metrics package; a nil recorder disables counting.
type TransitionRecorder interface {
	RecordTransition(fromStatus, toStatus string)
}

// EngineOption configures the transition engine
type EngineOption func(*engineImpl)

// WithInvoiceNotifier sets the invoicing collaborator signalled when a
// case enters accounting
func WithInvoiceNotifier(n port.InvoiceNotifier) EngineOption {
	return func(e *engineImpl) {
		e.invoices = n
	}
}

// WithAuditLogger sets the audit collaborator notified on every
// transition (best-effort)
func WithAuditLogger(a port.AuditLogger) EngineOption {
	return func(e *engineImpl) {
		e.audit = a
	}
}

// WithTransitionRecorder sets the metrics recorder
func WithTransitionRecorder(r TransitionRecorder) EngineOption {
	return func(e *engineImpl) {
		e.metrics = r
	}
}

// NewEngine creates a new transition engine
func NewEngine(
	caseRepo port.CaseRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	logger *zap.Logger,
	opts ...EngineOption,
) TransitionEngine {
	e := &engineImpl{
		caseRepo:    caseRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// TransferCase validates and executes a status transition
func (e *engineImpl) TransferCase(ctx context.Context, caseID string, toStatus domainwf.State, opts TransferOptions) (*entity.DentalCase, error) {
	if !toStatus.IsValid() {
		return nil, fmt.Errorf("%w: %s", domainwf.ErrInvalidState, toStatus)
	}

	c, err := e.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	fromStatus := domainwf.State(c.CurrentStatus)
	if !fromStatus.IsValid() {
		return nil, fmt.Errorf("%w: case %s holds status %s", domainwf.ErrInvalidState, caseID, c.CurrentStatus)
	}

	// An open removable pause blocks every transfer until resumed.
	if c.IsPaused() {
		return nil, fmt.Errorf("%w: case %s", domainwf.ErrCasePaused, c.CaseNumber)
	}

	machine := BuildCaseStateMachine(fromStatus)
	fireCtx := domainwf.WithRejectionReason(ctx, opts.RejectionReason)
	if err := machine.TransitionTo(fireCtx, toStatus); err != nil {
		if errors.Is(err, domainwf.ErrGuardFailed) {
			return nil, fmt.Errorf("%w: %s -> %s", domainwf.ErrRejectionReasonRequired, fromStatus, toStatus)
		}
		return nil, err
	}

	now := time.Now()
	var invoiceID string

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		ok, err := e.caseRepo.UpdateStatus(txCtx, caseID, toStatus.String(), c.Version)
		if err != nil {
			return fmt.Errorf("failed to update case status: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: case %s", domainwf.ErrCaseConflict, c.CaseNumber)
		}

		entry := &entity.WorkflowHistoryEntry{
			CaseID:          caseID,
			FromStatus:      fromStatus.String(),
			ToStatus:        toStatus.String(),
			StartTime:       now,
			Notes:           opts.Notes,
			RejectionReason: opts.RejectionReason,
			ActorID:         opts.ActorID,
		}
		if err := e.historyRepo.Append(txCtx, entry); err != nil {
			return fmt.Errorf("failed to append workflow history: %w", err)
		}

		// Destination side effects participate in the atomic unit: a
		// failure here rolls the transition back.
		switch toStatus {
		case domainwf.StateAccounting:
			if e.invoices != nil {
				invoiceID, err = e.invoices.CaseReadyForInvoicing(txCtx, port.InvoiceableCase{
					CaseID:         c.ID,
					CaseNumber:     c.CaseNumber,
					WorkType:       c.WorkType,
					Priority:       c.Priority,
					TeethCount:     teethCount(c.TeethNumbers),
					TotalCostCents: c.TotalCostCents,
				})
				if err != nil {
					return fmt.Errorf("invoice collaborator rejected case %s: %w", c.CaseNumber, err)
				}
				if invoiceID != "" {
					if err := e.caseRepo.SetInvoiceID(txCtx, caseID, invoiceID); err != nil {
						return fmt.Errorf("failed to link invoice: %w", err)
					}
				}
			}
		case domainwf.StateDelivered:
			if err := e.caseRepo.SetActualDelivery(txCtx, caseID, now); err != nil {
				return fmt.Errorf("failed to set delivery date: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Case transferred",
		zap.String("case_number", c.CaseNumber),
		zap.String("from", fromStatus.String()),
		zap.String("to", toStatus.String()),
		zap.String("actor", opts.ActorID))

	if e.metrics != nil {
		e.metrics.RecordTransition(fromStatus.String(), toStatus.String())
	}

	// Audit logging is best-effort: it never blocks the transition.
	e.recordAudit(ctx, "case_transferred", caseID, opts.ActorID, map[string]interface{}{
		"case_number":      c.CaseNumber,
		"from_status":      fromStatus.String(),
		"to_status":        toStatus.String(),
		"rejection_reason": opts.RejectionReason,
	})

	return e.caseRepo.GetByID(ctx, caseID)
}

// ForceStatus bypasses the transition table for admin overrides
func (e *engineImpl) ForceStatus(ctx context.Context, caseID string, toStatus domainwf.State, actorID, actorRole, notes string) (*entity.DentalCase, error) {
	if actorRole != entity.RoleAdmin {
		return nil, fmt.Errorf("force status requires the %s role, got %q", entity.RoleAdmin, actorRole)
	}
	if !toStatus.IsValid() {
		return nil, fmt.Errorf("%w: %s", domainwf.ErrInvalidState, toStatus)
	}

	c, err := e.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	fromStatus := c.CurrentStatus
	now := time.Now()

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		ok, err := e.caseRepo.UpdateStatus(txCtx, caseID, toStatus.String(), c.Version)
		if err != nil {
			return fmt.Errorf("failed to update case status: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: case %s", domainwf.ErrCaseConflict, c.CaseNumber)
		}

		entry := &entity.WorkflowHistoryEntry{
			CaseID:     caseID,
			FromStatus: fromStatus,
			ToStatus:   toStatus.String(),
			StartTime:  now,
			Notes:      notes,
			ActorID:    actorID,
			Override:   true,
		}
		return e.historyRepo.Append(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Warn("Case status forced",
		zap.String("case_number", c.CaseNumber),
		zap.String("from", fromStatus),
		zap.String("to", toStatus.String()),
		zap.String("actor", actorID))

	e.recordAudit(ctx, "case_status_forced", caseID, actorID, map[string]interface{}{
		"case_number": c.CaseNumber,
		"from_status": fromStatus,
		"to_status":   toStatus.String(),
	})

	return e.caseRepo.GetByID(ctx, caseID)
}

// recordAudit emits an audit record, swallowing any panic from the
// collaborator so the transition outcome is never affected.
func (e *engineImpl) recordAudit(ctx context.Context, action, caseID, actorID string, details map[string]interface{}) {
	if e.audit == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Audit logger panicked", zap.Any("panic", r))
		}
	}()
	e.audit.Record(ctx, action, "dental_case", caseID, actorID, details)
}

// teethCount counts entries in a comma-separated teeth number list.
func teethCount(teethNumbers string) int {
	if teethNumbers == "" {
		return 0
	}
	count := 1
	for _, r := range teethNumbers {
		if r == ',' {
			count++
		}
	}
	return count
}
