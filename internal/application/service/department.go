package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/port"
	"github.com/dentalworks/labflow/internal/domain/entity"
)

// Operator identifies the technician working a case in a department.
type Operator struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// beginRecord marks a department record in progress, stamping the
// start time on first touch.
func beginRecord(rec *entity.DepartmentRecord, op Operator, now time.Time) {
	if rec.Status == "" || rec.Status == entity.RecordStatusPending {
		rec.Status = entity.RecordStatusInProgress
	}
	if rec.StartTime == nil {
		t := now
		rec.StartTime = &t
	}
	if op.ID != "" {
		rec.OperatorID = op.ID
		rec.OperatorName = op.Name
	}
}

// completeRecord marks a department record completed and stamps the
// end time. The case's CurrentStatus is untouched; handing the case
// off is a separate transfer action.
func completeRecord(rec *entity.DepartmentRecord, now time.Time) {
	rec.Status = entity.RecordStatusCompleted
	if rec.EndTime == nil {
		t := now
		rec.EndTime = &t
	}
}

// departmentAudit emits a best-effort audit record for a department
// operation.
func departmentAudit(ctx context.Context, audit port.AuditLogger, logger *zap.Logger, action, caseID, actorID, department string) {
	if audit == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Audit logger panicked", zap.Any("panic", r))
		}
	}()
	audit.Record(ctx, action, "dental_case", caseID, actorID, map[string]interface{}{
		"department": department,
	})
}
