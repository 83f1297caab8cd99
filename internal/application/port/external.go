package port

import (
	"context"
	"errors"
)

// ErrInsufficientStock is returned by the inventory collaborator when a
// deduction cannot be satisfied. It aborts the CAM completion that
// requested it.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrDoctorNotFound is returned by the doctor directory when the
// referenced doctor does not exist.
var ErrDoctorNotFound = errors.New("doctor not found")

// DoctorDirectory resolves doctor references at case creation.
// Read-only dependency.
type DoctorDirectory interface {
	// GetDoctorName resolves a doctor ID to a display name,
	// ErrDoctorNotFound if the ID is unknown
	GetDoctorName(ctx context.Context, doctorID string) (string, error)
}

// InventoryService is the stock collaborator. DeductStock is called by
// CAM completion and is a precondition, not fire-and-forget: a failure
// aborts the completion.
type InventoryService interface {
	// DeductStock removes quantity units of an item, tagged with the
	// case number for traceability. Returns ErrInsufficientStock when
	// stock is short.
	DeductStock(ctx context.Context, itemID string, quantity int, caseNumber string, reason string) error
}

// AuditLogger records every transition and department-data save.
// Failures are best-effort: logged and swallowed, never blocking the
// underlying operation.
type AuditLogger interface {
	Record(ctx context.Context, action, entityType, entityID, userID string, details map[string]interface{})
}

// InvoiceNotifier is signalled when a case enters accounting so the
// invoicing collaborator can construct an invoice from the case's work
// type, teeth count and priority. Returns the created invoice ID.
type InvoiceNotifier interface {
	CaseReadyForInvoicing(ctx context.Context, c InvoiceableCase) (invoiceID string, err error)
}

// InvoiceableCase is the slice of case data the invoicing collaborator
// needs.
type InvoiceableCase struct {
	CaseID         string
	CaseNumber     string
	WorkType       string
	Priority       string
	TeethCount     int
	TotalCostCents int64
}
