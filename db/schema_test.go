// ABOUTME: Tests for database schema creation
// ABOUTME: Uses in-memory SQLite for fast isolated tests
package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestInitSchema(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := InitSchema(db); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	for _, table := range []string{"sync_state", "fetch_runs"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	var indexName string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_fetch_runs_started'").Scan(&indexName)
	if err != nil {
		t.Errorf("Index idx_fetch_runs_started not found: %v", err)
	}
}

func TestFetchRunsRejectsUnknownStatus(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory db: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := InitSchema(db); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	_, err = db.Exec(`INSERT INTO fetch_runs (id, source, status, started_at) VALUES ('x', 'web', 'bogus', CURRENT_TIMESTAMP)`)
	if err == nil {
		t.Error("expected CHECK constraint to reject unknown status")
	}
}
