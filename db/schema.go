// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation for sync state and the connections fetch ledger
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_state (
	service TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS fetch_runs (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	pages INTEGER NOT NULL DEFAULT 0,
	records INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL CHECK(status IN ('ok', 'empty', 'error')),
	error_message TEXT,
	started_at DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_fetch_runs_started ON fetch_runs(started_at DESC);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
