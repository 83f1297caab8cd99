// Package invoicing creates draft invoices when a case reaches
// accounting. The draft lives in the invoices table until the billing
// staff finalize it.
package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/port"
	"github.com/dentalworks/labflow/internal/infrastructure/persistence/sqlite"
)

// Notifier implements port.InvoiceNotifier.
type Notifier struct {
	db     *sqlite.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewNotifier creates the invoicing collaborator.
func NewNotifier(db *sqlite.DB, logger *zap.Logger) *Notifier {
	return &Notifier{db: db, logger: logger, now: time.Now}
}

// CaseReadyForInvoicing creates a draft invoice for the case and
// returns its ID. Runs inside the caller's transaction so a failed
// transfer leaves no orphan invoice.
func (n *Notifier) CaseReadyForInvoicing(ctx context.Context, c port.InvoiceableCase) (string, error) {
	invoiceID := fmt.Sprintf("INV-%d-%s", n.now().Year(), uuid.NewString()[:8])

	_, err := n.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO invoices (id, case_id, case_number, work_type, priority, teeth_count, amount_cents, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'draft')
	`, invoiceID, c.CaseID, c.CaseNumber, c.WorkType, c.Priority, c.TeethCount, c.TotalCostCents)
	if err != nil {
		return "", fmt.Errorf("failed to create draft invoice: %w", err)
	}

	n.logger.Info("draft invoice created",
		zap.String("invoice_id", invoiceID),
		zap.String("case_number", c.CaseNumber),
		zap.Int64("amount_cents", c.TotalCostCents))
	return invoiceID, nil
}
