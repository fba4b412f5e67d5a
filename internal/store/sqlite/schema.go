package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id     INTEGER PRIMARY KEY AUTOINCREMENT,
		name   TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Active'
	)`,

	`CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(name)`,

	`CREATE TABLE IF NOT EXISTS tickets (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER NOT NULL REFERENCES customers(id),
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		priority    TEXT NOT NULL DEFAULT 'medium',
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tickets_customer ON tickets(customer_id)`,

	`CREATE TABLE IF NOT EXISTS idempotency_records (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		tool       TEXT NOT NULL,
		key        TEXT NOT NULL,
		response   TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	// The uniqueness constraint is what resolves concurrent first writes
	// for the same (tool, key): the loser's insert is a no-op and the
	// surviving record is compared against its payload.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_idempotency_tool_key
		ON idempotency_records(tool, key)`,

	`CREATE TABLE IF NOT EXISTS pending_actions (
		id             TEXT PRIMARY KEY,
		action_type    TEXT NOT NULL,
		payload        TEXT NOT NULL,
		schema_version INTEGER NOT NULL DEFAULT 1,
		status         TEXT NOT NULL DEFAULT 'pending',
		created_at     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_pending_actions_type ON pending_actions(action_type)`,
}

// migrate creates or updates the database schema to the latest version.
// All DDL uses IF NOT EXISTS, making migration idempotent.
func migrate(db *sql.DB) error {
	ctx := context.TODO()

	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}

	return nil
}
