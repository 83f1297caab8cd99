// Package audit writes the append-only audit trail. Entries land both
// in the structured log and the audit_log table; persistence failures
// are logged and swallowed because auditing must never block the
// operation it describes.
package audit

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/infrastructure/persistence/sqlite"
)

// Logger implements port.AuditLogger.
type Logger struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewLogger creates the audit logger.
func NewLogger(db *sqlite.DB, logger *zap.Logger) *Logger {
	return &Logger{db: db, logger: logger}
}

// Record writes one audit entry
func (l *Logger) Record(ctx context.Context, action, entityType, entityID, userID string, details map[string]interface{}) {
	var detailsJSON []byte
	if details != nil {
		detailsJSON, _ = json.Marshal(details)
	}

	l.logger.Info("audit",
		zap.String("action", action),
		zap.String("entity_type", entityType),
		zap.String("entity_id", entityID),
		zap.String("user_id", userID),
		zap.Any("details", details))

	// Deliberately not the caller's transaction: an aborted operation
	// still leaves its audit trail.
	_, err := l.db.DB.ExecContext(ctx, `
		INSERT INTO audit_log (action, entity_type, entity_id, user_id, details)
		VALUES (?, ?, ?, ?, ?)
	`, action, entityType, entityID, userID, string(detailsJSON))
	if err != nil {
		l.logger.Warn("failed to persist audit entry", zap.Error(err))
	}
}
