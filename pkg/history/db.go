// Package history persists scan runs in SQLite so earlier analyses can be
// listed, compared and served again.
package history

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens the SQLite database at dbPath and checks the connection.
func InitDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// CreateTables ensures all required tables exist in the database.
func CreateTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id TEXT PRIMARY KEY,
			source_name TEXT NOT NULL,
			source_hash TEXT NOT NULL,
			token_count INTEGER NOT NULL,
			error_count INTEGER NOT NULL,
			indent_count INTEGER NOT NULL,
			dedent_count INTEGER NOT NULL,
			output TEXT NOT NULL,
			errors TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_runs_hash ON scan_runs(source_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_runs_created ON scan_runs(created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}
