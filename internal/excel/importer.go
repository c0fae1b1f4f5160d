package excel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"personnel/internal/models"
)

// Store is the persistence surface the importer depends on. The assessment
// year mapping is part of it: the year window is configuration owned by the
// database, not by the process.
type Store interface {
	// ImportRecords bulk-inserts records into table within one transaction,
	// dropping keys that match no schema column. It returns the inserted row
	// count and the distinct dropped column ids.
	ImportRecords(ctx context.Context, table string, records []models.Record) (int, []string, error)
	// AssessmentYears returns the persisted five-year window, nil when unset.
	AssessmentYears(ctx context.Context) ([]int, error)
	// SaveAssessmentYears persists the five-year window.
	SaveAssessmentYears(ctx context.Context, years []int) error
}

// Importer reads personnel spreadsheets into the relational store.
type Importer struct {
	store Store
}

func NewImporter(store Store) *Importer {
	return &Importer{store: store}
}

// Errors the caller can classify on. Everything else is an input validation
// or storage failure carrying its own description.
var (
	ErrYearsNotFive        = errors.New("spreadsheet must carry five annual assessment columns")
	ErrYearsNotConsecutive = errors.New("annual assessment columns must cover five consecutive years")
	ErrYearsMismatch       = errors.New("assessment year window does not match the stored configuration; clear the database before changing it")
)

// ImportFile imports the first sheet of the spreadsheet at path into the
// table for recordType. The whole file is one unit of work: any rejection
// leaves the store untouched. The returned count is the number of rows
// actually inserted.
func (imp *Importer) ImportFile(ctx context.Context, path string, recordType models.RecordType) (int, error) {
	if !recordType.Valid() {
		return 0, fmt.Errorf("invalid record type %q", recordType)
	}
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("file does not exist: %s", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xls" {
		return 0, fmt.Errorf("unsupported file format %q, expected .xlsx or .xls", ext)
	}

	grid, merges, mergeErr, err := readGrid(path, ext)
	if err != nil {
		return 0, err
	}
	if len(grid) < 2 {
		return 0, errors.New("spreadsheet is empty or contains no data rows")
	}

	// Merged regions occur in the rewards and family sheets, where one
	// person spans several child rows. Resolution is best effort: a file
	// whose merge metadata cannot be read still imports, unresolved.
	if recordType == models.RecordRewards || recordType == models.RecordFamily {
		if mergeErr != nil {
			log.Printf("excel: merge metadata for %s unavailable (%v), importing unresolved grid", filepath.Base(path), mergeErr)
		} else {
			ResolveMerges(grid, merges)
		}
	}

	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		headers[i] = CleanHeader(h)
	}

	var dataRows [][]string
	for _, row := range grid[1:] {
		if !rowEmpty(row) {
			dataRows = append(dataRows, row)
		}
	}
	if len(dataRows) == 0 {
		return 0, errors.New("no data rows remain after removing empty rows")
	}

	yearSlots := map[int]string{}
	if recordType == models.RecordBaseInfo {
		slots, err := imp.reconcileAssessmentYears(ctx, headers)
		if err != nil {
			return 0, err
		}
		yearSlots = slots
	}

	records := make([]models.Record, 0, len(dataRows))
	for _, row := range dataRows {
		record := models.Record{}
		for i, header := range headers {
			value := convertCellValue(row[i])
			if recordType == models.RecordBaseInfo {
				if year, ok := AssessmentYear(header); ok {
					if slot, mapped := yearSlots[year]; mapped {
						record[slot] = value
						continue
					}
				}
			}
			record[Normalize(header)] = value
		}
		records = append(records, record)
	}

	inserted, unmapped, err := imp.store.ImportRecords(ctx, recordType.Table(), records)
	if err != nil {
		return 0, fmt.Errorf("storing %s records: %w", recordType.Table(), err)
	}
	if len(unmapped) > 0 {
		log.Printf("excel: %d column(s) had no matching %s field and were dropped: %s",
			len(unmapped), recordType.Table(), strings.Join(unmapped, ", "))
	}
	return inserted, nil
}

// reconcileAssessmentYears validates the detected assessment year window
// against the persisted configuration and returns the year-to-slot mapping.
// A sheet without assessment columns passes through with no mapping, which
// matches partial exports that omit the block entirely.
func (imp *Importer) reconcileAssessmentYears(ctx context.Context, headers []string) (map[int]string, error) {
	var years []int
	for _, header := range headers {
		if year, ok := AssessmentYear(header); ok {
			years = append(years, year)
		}
	}
	if len(years) == 0 {
		return map[int]string{}, nil
	}

	sort.Ints(years)
	if len(years) != 5 {
		return nil, ErrYearsNotFive
	}
	for i := 1; i < 5; i++ {
		if years[i]-years[i-1] != 1 {
			return nil, ErrYearsNotConsecutive
		}
	}

	existing, err := imp.store.AssessmentYears(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading assessment year configuration: %w", err)
	}
	if existing != nil && !equalYears(existing, years) {
		return nil, fmt.Errorf("%w (stored %v, detected %v)", ErrYearsMismatch, existing, years)
	}
	if existing == nil {
		if err := imp.store.SaveAssessmentYears(ctx, years); err != nil {
			return nil, fmt.Errorf("saving assessment year configuration: %w", err)
		}
	}

	slots := make(map[int]string, 5)
	for idx, year := range years {
		slots[year] = fmt.Sprintf("assessment_%d", idx)
	}
	return slots, nil
}

func equalYears(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
