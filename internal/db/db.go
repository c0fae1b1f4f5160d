package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open connects to the SQLite database at path and bootstraps the schema.
// ":memory:" opens a throwaway in-process database, used by tests.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// The store is single-writer by design; a second connection would only
	// surface SQLITE_BUSY errors earlier.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if err := createTables(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// createTables creates the business tables, configuration store and user
// tables when absent. Column layout mirrors the import spreadsheets: every
// business field is free-form text, dates included.
func createTables(ctx context.Context, conn *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS base_info (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sequence INTEGER,
			name TEXT NOT NULL,
			next_promotion TEXT,
			current_position TEXT,
			current_position_date TEXT,
			current_grade TEXT,
			current_grade_date TEXT,
			previous_position1 TEXT,
			previous_position1_date TEXT,
			previous_position2 TEXT,
			previous_position2_date TEXT,
			current_legal_position TEXT,
			current_legal_position_date TEXT,
			previous_legal_position TEXT,
			previous_legal_position_date TEXT,
			admission_date TEXT,
			entry_date TEXT,
			gender TEXT,
			birth_date TEXT,
			ethnicity TEXT,
			hometown TEXT,
			work_start_date TEXT,
			party_date TEXT,
			fulltime_education TEXT,
			fulltime_school TEXT,
			parttime_education TEXT,
			parttime_school TEXT,
			rewards TEXT,
			assessment_0 TEXT,
			assessment_1 TEXT,
			assessment_2 TEXT,
			assessment_3 TEXT,
			assessment_4 TEXT,
			remarks TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS system_config (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			config_key TEXT UNIQUE NOT NULL,
			config_value TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS rewards (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sequence INTEGER,
			name TEXT NOT NULL,
			reward_name TEXT,
			reward_date TEXT,
			reward_unit TEXT,
			reward_authority_type TEXT,
			punishment_name TEXT,
			punishment_date TEXT,
			punishment_unit TEXT,
			punishment_authority_type TEXT,
			impact_period TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS family (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sequence INTEGER,
			name TEXT NOT NULL,
			relation TEXT,
			family_name TEXT,
			birth_date TEXT,
			political_status TEXT,
			work_unit TEXT,
			position TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS resume (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sequence INTEGER,
			name TEXT NOT NULL,
			resume_text TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_permissions (
			username TEXT PRIMARY KEY,
			base_info INTEGER DEFAULT 0,
			rewards INTEGER DEFAULT 0,
			family INTEGER DEFAULT 0,
			resume INTEGER DEFAULT 0,
			FOREIGN KEY(username) REFERENCES users(username)
		)`,
		`CREATE TABLE IF NOT EXISTS oplog (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			details TEXT,
			created_at TEXT NOT NULL
		)`,
	}
	for _, ddl := range statements {
		if _, err := conn.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}
