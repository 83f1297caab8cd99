package port

import (
	"context"
	"errors"
	"time"

	"github.com/dentalworks/labflow/internal/domain/entity"
)

// ErrCaseNotFound is returned when a referenced case does not exist
var ErrCaseNotFound = errors.New("case not found")

// CaseRepository defines persistence operations for DentalCase.
// CurrentStatus is never written through this interface directly;
// status moves go through UpdateStatus inside the transition engine's
// transaction, guarded by the expected version.
type CaseRepository interface {
	// Create persists a new case
	Create(ctx context.Context, c *entity.DentalCase) error

	// GetByID retrieves a case by ID, ErrCaseNotFound if absent
	GetByID(ctx context.Context, id string) (*entity.DentalCase, error)

	// GetByCaseNumber retrieves a case by its human-readable number
	GetByCaseNumber(ctx context.Context, caseNumber string) (*entity.DentalCase, error)

	// List retrieves cases matching the filter, newest first
	List(ctx context.Context, filter entity.CaseFilter) ([]*entity.DentalCase, error)

	// ListOverdue retrieves open cases whose expected delivery date has
	// passed as of the given time
	ListOverdue(ctx context.Context, asOf time.Time) ([]*entity.DentalCase, error)

	// UpdateStatus moves CurrentStatus, but only if the stored version
	// still matches expectedVersion. Returns false (and no error) when
	// the version check lost, so the caller can surface a conflict.
	UpdateStatus(ctx context.Context, id string, status string, expectedVersion int64) (bool, error)

	// UpdateDepartmentData replaces the named department sub-record
	UpdateDepartmentData(ctx context.Context, id string, department string, data interface{}) error

	// UpdateExpectedDelivery updates the mutable expected delivery date
	UpdateExpectedDelivery(ctx context.Context, id string, t time.Time) error

	// SetActualDelivery sets the delivery timestamp, once
	SetActualDelivery(ctx context.Context, id string, t time.Time) error

	// SetInvoiceID links the invoice created after QC pass
	SetInvoiceID(ctx context.Context, id string, invoiceID string) error
}

// HistoryRepository defines persistence operations for the append-only
// workflow history. There is deliberately no update or delete.
type HistoryRepository interface {
	// Append writes a new history entry
	Append(ctx context.Context, entry *entity.WorkflowHistoryEntry) error

	// GetByCaseID retrieves all entries for a case in append order
	GetByCaseID(ctx context.Context, caseID string) ([]*entity.WorkflowHistoryEntry, error)
}

// SequenceRepository hands out case-number sequence values. Next must
// be collision-free under concurrent creation.
type SequenceRepository interface {
	// Next atomically increments and returns the counter for the year
	Next(ctx context.Context, year int) (int64, error)
}

// TransactionManager executes a function within a storage transaction
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
