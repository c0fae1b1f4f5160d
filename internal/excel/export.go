package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"personnel/internal/models"
)

// WriteWorkbook renders records to a single-sheet workbook with columns in
// the given order, header row first. The internal id column is the caller's
// to exclude; this writer emits exactly what it is given.
func WriteWorkbook(w io.Writer, sheetName string, columns []string, records []models.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for rowIdx, record := range records {
		cells := make([]interface{}, len(columns))
		for i, col := range columns {
			cells[i] = record[col]
		}
		axis, err := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, axis, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", rowIdx+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
