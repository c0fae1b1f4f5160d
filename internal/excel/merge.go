package excel

import "github.com/xuri/excelize/v2"

// MergeRange is a rectangular merged-cell region normalised to 0-based
// inclusive coordinates over the full sheet grid, row 0 being the header row.
// The two spreadsheet generations index merges differently (.xlsx ranges are
// 1-based inclusive, legacy .xls ranges are 0-based with exclusive upper
// bounds); the constructors fold both into this one convention.
type MergeRange struct {
	StartRow int
	EndRow   int
	StartCol int
	EndCol   int
}

// mergeRangeFromAxes builds a MergeRange from a pair of .xlsx cell
// references such as "A2" and "C4".
func mergeRangeFromAxes(start, end string) (MergeRange, error) {
	startCol, startRow, err := excelize.CellNameToCoordinates(start)
	if err != nil {
		return MergeRange{}, err
	}
	endCol, endRow, err := excelize.CellNameToCoordinates(end)
	if err != nil {
		return MergeRange{}, err
	}
	return MergeRange{
		StartRow: startRow - 1,
		EndRow:   endRow - 1,
		StartCol: startCol - 1,
		EndCol:   endCol - 1,
	}, nil
}

// NewLegacyMergeRange folds a legacy .xls merge tuple (0-based rows and
// columns, upper bounds exclusive) into the shared convention.
func NewLegacyMergeRange(firstRow, lastRowExclusive, firstCol, lastColExclusive int) MergeRange {
	return MergeRange{
		StartRow: firstRow,
		EndRow:   lastRowExclusive - 1,
		StartCol: firstCol,
		EndCol:   lastColExclusive - 1,
	}
}

// ResolveMerges writes the anchor (top-left) value of every merge range into
// each cell of the range, producing a fully "unmerged" grid. Ranges anchored
// on the header row are left alone, as are cells outside the grid bounds.
// A missing anchor propagates as the empty string so downstream row handling
// stays uniform.
func ResolveMerges(grid [][]string, ranges []MergeRange) {
	for _, rng := range ranges {
		if rng.StartRow <= 0 {
			// Header-anchored merges describe the column layout, not data.
			continue
		}
		anchor := ""
		if rng.StartRow < len(grid) && rng.StartCol >= 0 && rng.StartCol < len(grid[rng.StartRow]) {
			anchor = grid[rng.StartRow][rng.StartCol]
		}
		for r := rng.StartRow; r <= rng.EndRow; r++ {
			if r < 1 || r >= len(grid) {
				continue
			}
			for c := rng.StartCol; c <= rng.EndCol; c++ {
				if c < 0 || c >= len(grid[r]) {
					continue
				}
				grid[r][c] = anchor
			}
		}
	}
}
