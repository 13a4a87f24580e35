package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/pdf-agent/internal/entity"
)

const xlsxSheet = "Outcomes"

// WriteXLSX writes outcomes to an "Outcomes" sheet with the CSV columns plus
// extraction method and reason.
func WriteXLSX(path string, outcomes []entity.Outcome) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if index, _ := f.GetSheetIndex(xlsxSheet); index == -1 {
		if _, err := f.NewSheet(xlsxSheet); err != nil {
			return err
		}
	}
	activeIndex, _ := f.GetSheetIndex(xlsxSheet)
	f.SetActiveSheet(activeIndex)
	// drop the default sheet so the workbook opens on the outcomes
	if name := f.GetSheetName(0); name != xlsxSheet {
		_ = f.DeleteSheet(name)
	}

	headers := append(append([]string(nil), csvHeader...), "method", "reason")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(xlsxSheet, cell, h)
	}

	for i, o := range outcomes {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(xlsxSheet, cell, v)
		}
		write(1, o.Original)
		write(2, o.New)
		write(3, o.Category)
		write(4, o.Timestamp.Format(time.RFC3339))
		write(5, string(o.Status))
		write(6, o.Error)
		write(7, string(o.Method))
		write(8, string(o.Reason))
	}

	_ = f.SetColWidth(xlsxSheet, "A", "B", 60) // paths
	_ = f.SetColWidth(xlsxSheet, "C", "C", 16)
	_ = f.SetColWidth(xlsxSheet, "D", "D", 22)
	_ = f.SetColWidth(xlsxSheet, "E", "E", 12)
	_ = f.SetColWidth(xlsxSheet, "F", "F", 48)
	_ = f.SetColWidth(xlsxSheet, "G", "H", 18)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
