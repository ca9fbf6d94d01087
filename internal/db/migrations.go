package db

import (
	"fmt"
)

type migration struct {
	version int
	sql     string
}

// cacheTables are emptied by Purge, children first
var cacheTables = []string{"invoices", "clients", "users", "cache_meta"}

var migrations = []migration{
	{
		version: 1,
		sql: `
-- Signed-in user profile (at most one row)
CREATE TABLE users (
    slot INTEGER PRIMARY KEY CHECK (slot = 1),
    id INTEGER NOT NULL,
    email TEXT NOT NULL,
    payload TEXT NOT NULL,
    fetched_at TEXT NOT NULL
);

-- Clients as last returned by the API
CREATE TABLE clients (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT,
    payload TEXT NOT NULL,
    fetched_at TEXT NOT NULL
);

-- Invoices as last returned by the API
CREATE TABLE invoices (
    id INTEGER PRIMARY KEY,
    number TEXT,
    client_id INTEGER NOT NULL,
    status TEXT NOT NULL,
    due_date TEXT,
    payload TEXT NOT NULL,
    fetched_at TEXT NOT NULL
);

-- Freshness of whole-list fetches
CREATE TABLE cache_meta (
    key TEXT PRIMARY KEY,
    fetched_at TEXT NOT NULL
);

CREATE INDEX idx_clients_name ON clients(name);
CREATE INDEX idx_invoices_status ON invoices(status);
CREATE INDEX idx_invoices_client ON invoices(client_id);
`,
	},
}

// RunMigrations applies all pending database migrations
func (db *DB) RunMigrations() error {
	// Ensure schema_version table exists
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	// Apply pending migrations in a transaction
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		if _, err := tx.Exec(m.sql); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}

	return nil
}
