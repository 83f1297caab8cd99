package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/port"
	"github.com/dentalworks/labflow/internal/domain/entity"
	"github.com/dentalworks/labflow/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.HistoryRepository on SQLite. The
// workflow_history table is append-only: no update or delete statement
// exists anywhere in this package.
type HistoryRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqlite.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Append writes a new history entry
func (r *HistoryRepository) Append(ctx context.Context, entry *entity.WorkflowHistoryEntry) error {
	query := `
		INSERT INTO workflow_history (
			case_id, from_status, to_status, start_time,
			notes, rejection_reason, actor_id, override
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		entry.CaseID,
		entry.FromStatus,
		entry.ToStatus,
		entry.StartTime,
		entry.Notes,
		entry.RejectionReason,
		entry.ActorID,
		entry.Override,
	)
	if err != nil {
		r.logger.Error("Failed to append history entry", zap.String("case_id", entry.CaseID), zap.Error(err))
		return fmt.Errorf("failed to append history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// GetByCaseID retrieves all entries for a case in append order
func (r *HistoryRepository) GetByCaseID(ctx context.Context, caseID string) ([]*entity.WorkflowHistoryEntry, error) {
	query := `
		SELECT id, case_id, from_status, to_status, start_time,
			notes, rejection_reason, actor_id, override
		FROM workflow_history
		WHERE case_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, caseID)
	if err != nil {
		r.logger.Error("Failed to get history", zap.String("case_id", caseID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var entries []*entity.WorkflowHistoryEntry
	for rows.Next() {
		var entry entity.WorkflowHistoryEntry
		err := rows.Scan(
			&entry.ID,
			&entry.CaseID,
			&entry.FromStatus,
			&entry.ToStatus,
			&entry.StartTime,
			&entry.Notes,
			&entry.RejectionReason,
			&entry.ActorID,
			&entry.Override,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
