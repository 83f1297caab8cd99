package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/port"
	"github.com/dentalworks/labflow/internal/infrastructure/persistence/sqlite"
)

// SequenceRepository implements port.SequenceRepository with a per-year
// counter row. The upsert increments and returns in one statement, so
// concurrent intake requests each get a distinct value.
type SequenceRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewSequenceRepository creates a new sequence repository
func NewSequenceRepository(db *sqlite.DB, logger *zap.Logger) port.SequenceRepository {
	return &SequenceRepository{
		db:     db,
		logger: logger,
	}
}

// Next atomically increments and returns the counter for the year
func (r *SequenceRepository) Next(ctx context.Context, year int) (int64, error) {
	query := `
		INSERT INTO case_number_sequences (year, last_value)
		VALUES (?, 1)
		ON CONFLICT(year) DO UPDATE SET last_value = last_value + 1
		RETURNING last_value
	`

	var value int64
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, year).Scan(&value)
	if err != nil {
		r.logger.Error("Failed to advance case number sequence", zap.Int("year", year), zap.Error(err))
		return 0, fmt.Errorf("failed to advance sequence for %d: %w", year, err)
	}

	return value, nil
}

// Verify interface compliance
var _ port.SequenceRepository = (*SequenceRepository)(nil)
