package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"personnel/internal/models"
)

// assessmentYearsKey is the system_config row holding the five-year window.
const assessmentYearsKey = "assessment_years"

// PersonnelStore persists personnel records, configuration, users and the
// operation log on one SQLite handle. Import and search never overlap in the
// single-operator deployment this serves; the store adds no locking beyond
// what the storage transaction provides.
type PersonnelStore struct {
	conn *sql.DB
}

func New(conn *sql.DB) *PersonnelStore {
	return &PersonnelStore{conn: conn}
}

// TableColumns returns the column names of table in schema order.
func (s *PersonnelStore) TableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid        int
			name       string
			colType    string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultVal, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

// ImportRecords bulk-inserts records into table in a single transaction.
// Record keys that match no schema column are dropped; their ids are returned
// so the caller can surface an aggregate diagnostic. Rows whose keys all miss
// the schema are skipped. Any insert failure rolls the whole batch back.
func (s *PersonnelStore) ImportRecords(ctx context.Context, table string, records []models.Record) (int, []string, error) {
	if len(records) == 0 {
		return 0, nil, nil
	}
	valid, err := s.TableColumns(ctx, table)
	if err != nil {
		return 0, nil, err
	}
	validSet := make(map[string]bool, len(valid))
	for _, col := range valid {
		validSet[col] = true
	}

	present := map[string]bool{}
	unmappedSet := map[string]bool{}
	for _, record := range records {
		for key := range record {
			if validSet[key] {
				present[key] = true
			} else {
				unmappedSet[key] = true
			}
		}
	}

	// Insert columns follow schema order so the generated statement is
	// deterministic across runs.
	var columns []string
	for _, col := range valid {
		if present[col] {
			columns = append(columns, col)
		}
	}
	var unmapped []string
	for key := range unmappedSet {
		unmapped = append(unmapped, key)
	}
	if len(columns) == 0 {
		return 0, unmapped, nil
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "))

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, unmapped, err
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return 0, unmapped, err
	}
	defer stmt.Close()

	inserted := 0
	for _, record := range records {
		hasValue := false
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			// Absent keys insert as NULL so storage constraints (such as
			// the required name) apply exactly as declared.
			if value, ok := record[col]; ok {
				args[i] = value
				hasValue = true
			}
		}
		if !hasValue {
			continue
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			tx.Rollback()
			return 0, unmapped, fmt.Errorf("insert into %s: %w", table, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, unmapped, err
	}
	return inserted, unmapped, nil
}

// AssessmentYears returns the persisted assessment year window, or nil when
// no import has established one yet.
func (s *PersonnelStore) AssessmentYears(ctx context.Context) ([]int, error) {
	var raw string
	err := s.conn.QueryRowContext(ctx,
		"SELECT config_value FROM system_config WHERE config_key = ?", assessmentYearsKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var years []int
	if err := json.Unmarshal([]byte(raw), &years); err != nil {
		return nil, fmt.Errorf("corrupt %s configuration: %w", assessmentYearsKey, err)
	}
	return years, nil
}

// SaveAssessmentYears persists the assessment year window, replacing any
// previous value.
func (s *PersonnelStore) SaveAssessmentYears(ctx context.Context, years []int) error {
	raw, err := json.Marshal(years)
	if err != nil {
		return err
	}
	_, err = s.conn.ExecContext(ctx,
		"REPLACE INTO system_config (config_key, config_value) VALUES (?, ?)", assessmentYearsKey, string(raw))
	return err
}

// Search runs the multi-predicate personnel query: matched base rows first,
// then the child tables restricted to the matched names. The two phases are
// separate reads on purpose; the name association is a soft join and callers
// needing a consistent snapshot must bring their own transaction.
func (s *PersonnelStore) Search(ctx context.Context, filters models.SearchFilters) (models.SearchResult, error) {
	result := models.SearchResult{
		BaseInfo: []models.Record{},
		Rewards:  []models.Record{},
		Family:   []models.Record{},
		Resume:   []models.Record{},
	}

	var conditions []string
	var params []interface{}

	if filters.Name != "" {
		conditions = append(conditions, "name LIKE ?")
		params = append(params, "%"+filters.Name+"%")
	}
	if len(filters.Grades) > 0 {
		var clause []string
		for _, grade := range filters.Grades {
			clause = append(clause, "current_grade LIKE ?")
			params = append(params, "%"+grade+"%")
		}
		conditions = append(conditions, "("+strings.Join(clause, " OR ")+")")
	}
	if len(filters.Positions) > 0 {
		var clause []string
		for _, position := range filters.Positions {
			clause = append(clause, "current_position = ?")
			params = append(params, position)
		}
		conditions = append(conditions, "("+strings.Join(clause, " OR ")+")")
	}
	// Birth dates are stored as free-form text; dash variants are folded to
	// dots so the range compares as "YYYY.MM" strings.
	switch {
	case filters.BirthStart != "" && filters.BirthEnd != "":
		conditions = append(conditions, "(REPLACE(birth_date, '-', '.') BETWEEN ? AND ?)")
		params = append(params, filters.BirthStart, filters.BirthEnd)
	case filters.BirthStart != "":
		conditions = append(conditions, "REPLACE(birth_date, '-', '.') >= ?")
		params = append(params, filters.BirthStart)
	case filters.BirthEnd != "":
		conditions = append(conditions, "REPLACE(birth_date, '-', '.') <= ?")
		params = append(params, filters.BirthEnd)
	}
	if len(filters.FulltimeEducation) > 0 {
		var clause []string
		for _, keyword := range filters.FulltimeEducation {
			clause = append(clause, "fulltime_education LIKE ?")
			params = append(params, "%"+keyword+"%")
		}
		conditions = append(conditions, "("+strings.Join(clause, " OR ")+")")
	}
	if len(filters.ParttimeEducation) > 0 {
		var clause []string
		for _, keyword := range filters.ParttimeEducation {
			clause = append(clause, "parttime_education LIKE ?")
			params = append(params, "%"+keyword+"%")
		}
		conditions = append(conditions, "("+strings.Join(clause, " OR ")+")")
	}

	query := "SELECT * FROM base_info"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	base, err := s.queryRecords(ctx, query, params...)
	if err != nil {
		return result, fmt.Errorf("searching base_info: %w", err)
	}
	result.BaseInfo = base

	var names []string
	seen := map[string]bool{}
	for _, record := range base {
		name := record["name"]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	nameParams := make([]interface{}, len(names))
	for i, name := range names {
		nameParams[i] = name
	}
	for _, child := range []struct {
		table string
		dest  *[]models.Record
	}{
		{"rewards", &result.Rewards},
		{"family", &result.Family},
		{"resume", &result.Resume},
	} {
		records, err := s.queryRecords(ctx,
			fmt.Sprintf("SELECT * FROM %s WHERE name IN (%s)", child.table, placeholders), nameParams...)
		if err != nil {
			return result, fmt.Errorf("searching %s: %w", child.table, err)
		}
		*child.dest = records
	}
	return result, nil
}

// AllData returns every row of table in insertion order.
func (s *PersonnelStore) AllData(ctx context.Context, table string) ([]models.Record, error) {
	return s.queryRecords(ctx, fmt.Sprintf("SELECT * FROM %s", table))
}

// ClearBusinessData empties the four record tables and drops the assessment
// year window so the next base_info import can establish a new one.
func (s *PersonnelStore) ClearBusinessData(ctx context.Context) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, recordType := range models.AllRecordTypes {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", recordType.Table())); err != nil {
			tx.Rollback()
			return fmt.Errorf("clearing %s: %w", recordType.Table(), err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM system_config WHERE config_key = ?", assessmentYearsKey); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// queryRecords materialises arbitrary-width rows into Records. Every value is
// rendered as text, matching how it was imported.
func (s *PersonnelStore) queryRecords(ctx context.Context, query string, params ...interface{}) ([]models.Record, error) {
	rows, err := s.conn.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	records := []models.Record{}
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		dest := make([]interface{}, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		record := make(models.Record, len(columns))
		for i, col := range columns {
			record[col] = values[i].String
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// AppendLog writes one operation log line.
func (s *PersonnelStore) AppendLog(ctx context.Context, actor, action, details string) error {
	_, err := s.conn.ExecContext(ctx,
		"INSERT INTO oplog (actor, action, details, created_at) VALUES (?, ?, ?, ?)",
		actor, action, details, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Logs returns the operation log, newest first.
func (s *PersonnelStore) Logs(ctx context.Context) ([]models.OplogEntry, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT id, actor, action, details, created_at FROM oplog ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.OplogEntry{}
	for rows.Next() {
		var entry models.OplogEntry
		var details sql.NullString
		if err := rows.Scan(&entry.ID, &entry.Actor, &entry.Action, &details, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Details = details.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ClearLogs truncates the operation log.
func (s *PersonnelStore) ClearLogs(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, "DELETE FROM oplog")
	return err
}
