package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/dentalworks/labflow/internal/application/service"
	"github.com/dentalworks/labflow/internal/domain/entity"
	domainwf "github.com/dentalworks/labflow/internal/domain/workflow"
)

// AccountingExporter builds an Excel workbook listing the cases the
// accounting department needs to bill: one row per case sitting in
// accounting or a later state, with work type, teeth count, priority
// and cost.
type AccountingExporter struct {
	cases   service.CaseService
	archive *Archive
	logger  *zap.Logger
}

// NewAccountingExporter creates an accounting report exporter. A nil
// archive disables the on-disk copy.
func NewAccountingExporter(cases service.CaseService, archive *Archive, logger *zap.Logger) *AccountingExporter {
	return &AccountingExporter{cases: cases, archive: archive, logger: logger}
}

// billableStatuses are the states included in the accounting export.
var billableStatuses = []domainwf.State{
	domainwf.StateAccounting,
	domainwf.StateReadyForDelivery,
	domainwf.StateDelivered,
}

var reportHeaders = []string{
	"Case Number", "Patient", "Doctor", "Work Type", "Teeth",
	"Priority", "Status", "Received", "Delivered", "Cost", "Invoice",
}

// Export renders the workbook and returns its bytes.
func (e *AccountingExporter) Export(ctx context.Context) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, h := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	row := 2
	for _, status := range billableStatuses {
		cases, err := e.cases.ListCases(ctx, entity.CaseFilter{Status: status.String()})
		if err != nil {
			return nil, fmt.Errorf("failed to list %s cases: %w", status, err)
		}
		for _, c := range cases {
			if err := e.writeRow(f, sheet, row, c); err != nil {
				return nil, err
			}
			row++
		}
	}

	e.logger.Info("Accounting report generated", zap.Int("cases", row-2))

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	if e.archive != nil {
		// Archiving is best-effort; the caller still gets the bytes
		if _, err := e.archive.Save("accounting.xlsx", buf.Bytes()); err != nil {
			e.logger.Warn("Failed to archive accounting report", zap.Error(err))
		}
	}

	return buf.Bytes(), nil
}

func (e *AccountingExporter) writeRow(f *excelize.File, sheet string, row int, c *entity.DentalCase) error {
	delivered := ""
	if c.ActualDeliveryDate != nil {
		delivered = c.ActualDeliveryDate.Format(time.DateOnly)
	}

	values := []interface{}{
		c.CaseNumber,
		c.PatientName,
		c.DoctorName,
		c.WorkType,
		c.TeethNumbers,
		c.Priority,
		c.CurrentStatus,
		c.ReceivedDate.Format(time.DateOnly),
		delivered,
		fmt.Sprintf("%.2f", float64(c.TotalCostCents)/100.0),
		c.InvoiceID,
	}

	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}
	return nil
}
