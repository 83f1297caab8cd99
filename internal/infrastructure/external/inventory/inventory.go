// Package inventory tracks consumable stock (milling blocks, discs) and
// records every deduction against the case that consumed it.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/port"
	"github.com/dentalworks/labflow/internal/infrastructure/persistence/sqlite"
)

// Service implements port.InventoryService on the inventory tables.
type Service struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewService creates the inventory service.
func NewService(db *sqlite.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// DeductStock removes quantity units of an item and writes a movement
// row tagged with the case number. The conditional update keeps the
// balance from going negative under concurrent deductions.
func (s *Service) DeductStock(ctx context.Context, itemID string, quantity int, caseNumber string, reason string) error {
	if quantity <= 0 {
		return fmt.Errorf("deduction quantity must be positive, got %d", quantity)
	}

	return s.db.WithTransaction(ctx, func(ctx context.Context) error {
		ex := s.db.Executor(ctx)

		result, err := ex.ExecContext(ctx, `
			UPDATE inventory_items
			SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND quantity >= ?
		`, quantity, itemID, quantity)
		if err != nil {
			return fmt.Errorf("failed to deduct stock: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if affected == 0 {
			var have int
			err := ex.QueryRowContext(ctx,
				`SELECT quantity FROM inventory_items WHERE id = ?`, itemID).Scan(&have)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: unknown item %s", port.ErrInsufficientStock, itemID)
			}
			if err != nil {
				return fmt.Errorf("failed to look up item: %w", err)
			}
			return fmt.Errorf("%w: item %s has %d, need %d", port.ErrInsufficientStock, itemID, have, quantity)
		}

		_, err = ex.ExecContext(ctx, `
			INSERT INTO inventory_movements (item_id, quantity, case_number, reason)
			VALUES (?, ?, ?, ?)
		`, itemID, -quantity, caseNumber, reason)
		if err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}

		s.logger.Info("stock deducted",
			zap.String("item_id", itemID),
			zap.Int("quantity", quantity),
			zap.String("case_number", caseNumber))
		return nil
	})
}

// AddStock receives quantity units of an item, creating the item row on
// first receipt.
func (s *Service) AddStock(ctx context.Context, itemID, name, material string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("received quantity must be positive, got %d", quantity)
	}

	return s.db.WithTransaction(ctx, func(ctx context.Context) error {
		ex := s.db.Executor(ctx)

		_, err := ex.ExecContext(ctx, `
			INSERT INTO inventory_items (id, name, material, quantity)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				quantity = quantity + excluded.quantity,
				updated_at = CURRENT_TIMESTAMP
		`, itemID, name, material, quantity)
		if err != nil {
			return fmt.Errorf("failed to add stock: %w", err)
		}

		_, err = ex.ExecContext(ctx, `
			INSERT INTO inventory_movements (item_id, quantity, case_number, reason)
			VALUES (?, ?, '', 'stock received')
		`, itemID, quantity)
		if err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}
		return nil
	})
}
