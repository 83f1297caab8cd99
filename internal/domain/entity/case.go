package entity

import "time"

// DentalCase is the central entity: one unit of lab work tracked from
// intake to delivery. CurrentStatus is the single source of truth for
// where the case sits in the production pipeline and is only mutated
// through the workflow engine.
type DentalCase struct {
	ID         string `json:"id"`
	CaseNumber string `json:"case_number"`

	DoctorID    string `json:"doctor_id"`
	DoctorName  string `json:"doctor_name"`
	PatientName string `json:"patient_name"`

	// TeethNumbers holds FDI two-digit tooth numbers, comma separated
	// (e.g. "11,12,13").
	TeethNumbers string `json:"teeth_numbers"`
	WorkType     string `json:"work_type"`
	Priority     string `json:"priority"`

	CurrentStatus string `json:"current_status"`

	// Department sub-records. Each is nil until its department has
	// touched the case and is retained read-only afterwards.
	CADData       *CADData       `json:"cad_data,omitempty"`
	CAMData       *CAMData       `json:"cam_data,omitempty"`
	FinishingData *FinishingData `json:"finishing_data,omitempty"`
	RemovableData *RemovableData `json:"removable_data,omitempty"`
	QCData        *QCData        `json:"qc_data,omitempty"`

	ReceivedDate         time.Time  `json:"received_date"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date,omitempty"`
	ActualDeliveryDate   *time.Time `json:"actual_delivery_date,omitempty"`

	// TotalCostCents is the case cost in cents.
	TotalCostCents int64  `json:"total_cost_cents"`
	InvoiceID      string `json:"invoice_id,omitempty"`

	// Version is the optimistic concurrency counter; bumped on every
	// persisted mutation.
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPaused reports whether the case currently holds an open removable
// pause (e.g. clinical try-in). A paused case cannot be transferred.
func (c *DentalCase) IsPaused() bool {
	return c.RemovableData != nil && c.RemovableData.CurrentPause != nil
}

// CaseFilter narrows ListCases results.
type CaseFilter struct {
	Status string `json:"status"`
	// Search matches case number, patient name or doctor name.
	Search string `json:"search"`
}

// CreateCaseInput carries the fields required at reception intake.
type CreateCaseInput struct {
	DoctorID             string     `json:"doctor_id"`
	PatientName          string     `json:"patient_name"`
	TeethNumbers         string     `json:"teeth_numbers"`
	WorkType             string     `json:"work_type"`
	Priority             string     `json:"priority"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date,omitempty"`
	TotalCostCents       int64      `json:"total_cost_cents"`
}
