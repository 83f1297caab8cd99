package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/port"
	"github.com/dentalworks/labflow/internal/domain/entity"
	"github.com/dentalworks/labflow/internal/infrastructure/persistence/sqlite"
)

// departmentColumns maps department tags to their JSON columns.
var departmentColumns = map[string]string{
	entity.DepartmentCAD:       "cad_data",
	entity.DepartmentCAM:       "cam_data",
	entity.DepartmentFinishing: "finishing_data",
	entity.DepartmentRemovable: "removable_data",
	entity.DepartmentQC:        "qc_data",
}

const caseColumns = `
	id, case_number, doctor_id, doctor_name, patient_name, teeth_numbers,
	work_type, priority, current_status,
	cad_data, cam_data, finishing_data, removable_data, qc_data,
	received_date, expected_delivery_date, actual_delivery_date,
	total_cost_cents, invoice_id, version, created_at, updated_at`

// CaseRepository implements port.CaseRepository on SQLite. Department
// sub-records are stored as JSON columns; every mutation bumps the
// optimistic version counter.
type CaseRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *sqlite.DB, logger *zap.Logger) port.CaseRepository {
	return &CaseRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new case
func (r *CaseRepository) Create(ctx context.Context, c *entity.DentalCase) error {
	query := `
		INSERT INTO dental_cases (
			id, case_number, doctor_id, doctor_name, patient_name,
			teeth_numbers, work_type, priority, current_status,
			received_date, expected_delivery_date, total_cost_cents, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		c.ID,
		c.CaseNumber,
		c.DoctorID,
		c.DoctorName,
		c.PatientName,
		c.TeethNumbers,
		c.WorkType,
		c.Priority,
		c.CurrentStatus,
		c.ReceivedDate,
		c.ExpectedDeliveryDate,
		c.TotalCostCents,
	)
	if err != nil {
		r.logger.Error("Failed to create case", zap.String("case_number", c.CaseNumber), zap.Error(err))
		return fmt.Errorf("failed to create case: %w", err)
	}

	c.Version = 1
	return nil
}

// GetByID retrieves a case by ID
func (r *CaseRepository) GetByID(ctx context.Context, id string) (*entity.DentalCase, error) {
	query := `SELECT` + caseColumns + ` FROM dental_cases WHERE id = ?`
	return r.scanOne(ctx, query, id)
}

// GetByCaseNumber retrieves a case by its human-readable number
func (r *CaseRepository) GetByCaseNumber(ctx context.Context, caseNumber string) (*entity.DentalCase, error) {
	query := `SELECT` + caseColumns + ` FROM dental_cases WHERE case_number = ?`
	return r.scanOne(ctx, query, caseNumber)
}

// List retrieves cases matching the filter, newest first
func (r *CaseRepository) List(ctx context.Context, filter entity.CaseFilter) ([]*entity.DentalCase, error) {
	query := `SELECT` + caseColumns + ` FROM dental_cases WHERE 1=1`
	args := []interface{}{}

	if filter.Status != "" {
		query += ` AND current_status = ?`
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		query += ` AND (case_number LIKE ? OR patient_name LIKE ? OR doctor_name LIKE ?)`
		like := "%" + filter.Search + "%"
		args = append(args, like, like, like)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list cases", zap.Error(err))
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	var cases []*entity.DentalCase
	for rows.Next() {
		c, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}

	return cases, rows.Err()
}

// ListOverdue retrieves open cases whose expected delivery date has
// passed. Terminal cases are excluded.
func (r *CaseRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*entity.DentalCase, error) {
	query := `SELECT` + caseColumns + ` FROM dental_cases
		WHERE expected_delivery_date IS NOT NULL
		  AND expected_delivery_date < ?
		  AND actual_delivery_date IS NULL
		  AND current_status NOT IN ('delivered', 'returned', 'cancelled')
		ORDER BY expected_delivery_date ASC`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, asOf)
	if err != nil {
		r.logger.Error("Failed to list overdue cases", zap.Error(err))
		return nil, fmt.Errorf("failed to list overdue cases: %w", err)
	}
	defer rows.Close()

	var cases []*entity.DentalCase
	for rows.Next() {
		c, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}

	return cases, rows.Err()
}

// UpdateStatus moves CurrentStatus if the stored version still matches
// expectedVersion. Returns false when a concurrent writer got there
// first.
func (r *CaseRepository) UpdateStatus(ctx context.Context, id string, status string, expectedVersion int64) (bool, error) {
	query := `
		UPDATE dental_cases
		SET current_status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, status, id, expectedVersion)
	if err != nil {
		r.logger.Error("Failed to update case status", zap.String("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to update status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected == 1, nil
}

// UpdateDepartmentData replaces the named department sub-record
func (r *CaseRepository) UpdateDepartmentData(ctx context.Context, id string, department string, data interface{}) error {
	column, ok := departmentColumns[department]
	if !ok {
		return fmt.Errorf("unknown department %q", department)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s data: %w", department, err)
	}

	query := fmt.Sprintf(`
		UPDATE dental_cases
		SET %s = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, column)

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, string(raw), id)
	if err != nil {
		r.logger.Error("Failed to update department data",
			zap.String("id", id),
			zap.String("department", department),
			zap.Error(err))
		return fmt.Errorf("failed to update %s data: %w", department, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return port.ErrCaseNotFound
	}

	return nil
}

// UpdateExpectedDelivery updates the mutable expected delivery date
func (r *CaseRepository) UpdateExpectedDelivery(ctx context.Context, id string, t time.Time) error {
	query := `
		UPDATE dental_cases
		SET expected_delivery_date = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	return r.exec(ctx, query, t, id)
}

// SetActualDelivery sets the delivery timestamp once
func (r *CaseRepository) SetActualDelivery(ctx context.Context, id string, t time.Time) error {
	query := `
		UPDATE dental_cases
		SET actual_delivery_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND actual_delivery_date IS NULL
	`
	_, err := r.db.Executor(ctx).ExecContext(ctx, query, t, id)
	if err != nil {
		return fmt.Errorf("failed to set delivery date: %w", err)
	}
	return nil
}

// SetInvoiceID links the invoice created after QC pass
func (r *CaseRepository) SetInvoiceID(ctx context.Context, id string, invoiceID string) error {
	query := `
		UPDATE dental_cases
		SET invoice_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	return r.exec(ctx, query, invoiceID, id)
}

func (r *CaseRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("case update failed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return port.ErrCaseNotFound
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *CaseRepository) scanOne(ctx context.Context, query string, arg interface{}) (*entity.DentalCase, error) {
	c, err := r.scanRow(r.db.Executor(ctx).QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, port.ErrCaseNotFound
	}
	return c, err
}

func (r *CaseRepository) scanRow(row rowScanner) (*entity.DentalCase, error) {
	var c entity.DentalCase
	var cadData, camData, finishingData, removableData, qcData sql.NullString
	var expectedDelivery, actualDelivery sql.NullTime
	var invoiceID sql.NullString

	err := row.Scan(
		&c.ID,
		&c.CaseNumber,
		&c.DoctorID,
		&c.DoctorName,
		&c.PatientName,
		&c.TeethNumbers,
		&c.WorkType,
		&c.Priority,
		&c.CurrentStatus,
		&cadData,
		&camData,
		&finishingData,
		&removableData,
		&qcData,
		&c.ReceivedDate,
		&expectedDelivery,
		&actualDelivery,
		&c.TotalCostCents,
		&invoiceID,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		r.logger.Error("Failed to scan case", zap.Error(err))
		return nil, fmt.Errorf("failed to scan case: %w", err)
	}

	// invoice_id is NULL until the case reaches accounting
	c.InvoiceID = invoiceID.String

	if expectedDelivery.Valid {
		c.ExpectedDeliveryDate = &expectedDelivery.Time
	}
	if actualDelivery.Valid {
		c.ActualDeliveryDate = &actualDelivery.Time
	}

	if err := decodeJSON(cadData, &c.CADData); err != nil {
		return nil, fmt.Errorf("failed to decode cad data: %w", err)
	}
	if err := decodeJSON(camData, &c.CAMData); err != nil {
		return nil, fmt.Errorf("failed to decode cam data: %w", err)
	}
	if err := decodeJSON(finishingData, &c.FinishingData); err != nil {
		return nil, fmt.Errorf("failed to decode finishing data: %w", err)
	}
	if err := decodeJSON(removableData, &c.RemovableData); err != nil {
		return nil, fmt.Errorf("failed to decode removable data: %w", err)
	}
	if err := decodeJSON(qcData, &c.QCData); err != nil {
		return nil, fmt.Errorf("failed to decode qc data: %w", err)
	}

	return &c, nil
}

// decodeJSON unmarshals a nullable JSON column into a typed sub-record
// pointer, leaving it nil when the column is empty.
func decodeJSON(col sql.NullString, target interface{}) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), target)
}

// Verify interface compliance
var _ port.CaseRepository = (*CaseRepository)(nil)
