package excel

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// errNoMergeMetadata marks a grid whose merge ranges could not be read.
// Import continues with the unresolved grid in that case.
var errNoMergeMetadata = errors.New("merge metadata unavailable")

// readGrid parses the first sheet of the workbook at path into a rectangular
// text grid (row 0 = headers) plus its merge ranges. The merge error is
// reported separately so callers can degrade instead of aborting.
func readGrid(path, ext string) ([][]string, []MergeRange, error, error) {
	switch ext {
	case ".xlsx":
		return readXLSXGrid(path)
	case ".xls":
		grid, err := readXLSGrid(path)
		// The legacy reader exposes cell values only; merged regions
		// come back as blanks around the anchor cell.
		return grid, nil, errNoMergeMetadata, err
	}
	return nil, nil, nil, fmt.Errorf("unsupported file format %q", ext)
}

func readXLSXGrid(path string) ([][]string, []MergeRange, error, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, nil, errors.New("no sheets in workbook")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read sheet: %w", err)
	}
	grid := rectangular(rows)

	var ranges []MergeRange
	var mergeErr error
	mergeCells, err := f.GetMergeCells(sheet)
	if err != nil {
		mergeErr = err
	} else {
		for _, mc := range mergeCells {
			rng, err := mergeRangeFromAxes(mc.GetStartAxis(), mc.GetEndAxis())
			if err != nil {
				mergeErr = err
				break
			}
			ranges = append(ranges, rng)
		}
	}
	if mergeErr != nil {
		ranges = nil
	}
	return grid, ranges, mergeErr, nil
}

func readXLSGrid(path string) ([][]string, error) {
	book, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open legacy workbook: %w", err)
	}
	sheet := book.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("no sheets in workbook")
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		var cells []string
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		rows = append(rows, cells)
	}
	return rectangular(rows), nil
}

// rectangular pads every row to the header width so merge resolution and row
// construction can index cells without bounds juggling. Rows longer than the
// header keep their extra cells; the header is widened to match.
func rectangular(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	grid := make([][]string, len(rows))
	for i, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		grid[i] = padded
	}
	return grid
}

// dateLayouts are the unambiguous, year-first datetime shapes that cell
// formatting can produce for date cells. Anything else is passed through
// verbatim, preserving the source text exactly (leading zeros, trailing
// zeros, decimal text).
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006年01月02日",
	"2006年1月2日",
}

// convertCellValue applies the format-preserving conversion: date-shaped text
// becomes "YYYY.MM", everything else is returned unchanged, missing cells
// become the empty string upstream.
func convertCellValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || len(trimmed) < 8 {
		return value
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.Format("2006.01")
		}
	}
	return value
}
