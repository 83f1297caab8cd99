// Package directory resolves doctor references against the local
// doctors table.
package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/port"
	"github.com/dentalworks/labflow/internal/infrastructure/persistence/sqlite"
)

// DoctorDirectory implements port.DoctorDirectory on the doctors table.
type DoctorDirectory struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewDoctorDirectory creates the directory.
func NewDoctorDirectory(db *sqlite.DB, logger *zap.Logger) *DoctorDirectory {
	return &DoctorDirectory{db: db, logger: logger}
}

// GetDoctorName resolves a doctor ID to a display name
func (d *DoctorDirectory) GetDoctorName(ctx context.Context, doctorID string) (string, error) {
	var name string
	err := d.db.Executor(ctx).QueryRowContext(ctx,
		`SELECT name FROM doctors WHERE id = ?`, doctorID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", port.ErrDoctorNotFound, doctorID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up doctor: %w", err)
	}
	return name, nil
}

// RegisterDoctor upserts a doctor record. Used by the admin surface and
// by tests to seed the directory.
func (d *DoctorDirectory) RegisterDoctor(ctx context.Context, id, name, clinic string) error {
	_, err := d.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO doctors (id, name, clinic) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, clinic = excluded.clinic
	`, id, name, clinic)
	if err != nil {
		return fmt.Errorf("failed to register doctor: %w", err)
	}
	return nil
}
