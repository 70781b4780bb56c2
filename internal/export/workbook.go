// Package export renders the dashboard as an xlsx workbook and optionally
// uploads it to Cloud Storage.
package export

import (
	"fmt"
	"io"

	"dealtracker/internal/core"

	"github.com/xuri/excelize/v2"
)

const (
	// Filename is the download name offered for the workbook.
	Filename    = "deals_data.xlsx"
	SheetName   = "Deals"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Write renders rows as a single "Deals" sheet: a header row with
// core.DashboardColumns followed by one row per deal. No index column.
func Write(w io.Writer, rows []core.DashboardRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(core.DashboardColumns))
	for i, c := range core.DashboardColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := r.Values()
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", r.DealID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
