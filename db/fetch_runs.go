// ABOUTME: Database operations for the fetch_runs ledger
// ABOUTME: One row per full pagination over the connections list
package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/connections/models"
)

// RecordFetchRun inserts a finished run.
func RecordFetchRun(db *sql.DB, run *models.FetchRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	var errorMsg sql.NullString
	if run.Error != "" {
		errorMsg = sql.NullString{String: run.Error, Valid: true}
	}

	var finishedAt sql.NullTime
	if run.FinishedAt != nil {
		finishedAt = sql.NullTime{Time: *run.FinishedAt, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO fetch_runs (id, source, pages, records, status, error_message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID.String(), run.Source, run.Pages, run.Records, run.Status, errorMsg, run.StartedAt, finishedAt)

	if err != nil {
		return fmt.Errorf("failed to record fetch run: %w", err)
	}

	return nil
}

// RecentFetchRuns returns the newest runs first.
func RecentFetchRuns(db *sql.DB, limit int) ([]models.FetchRun, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := db.Query(`
		SELECT id, source, pages, records, status, error_message, started_at, finished_at
		FROM fetch_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetch runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []models.FetchRun
	for rows.Next() {
		var run models.FetchRun
		var id string
		var errorMsg sql.NullString
		var finishedAt sql.NullTime

		if err := rows.Scan(&id, &run.Source, &run.Pages, &run.Records, &run.Status, &errorMsg, &run.StartedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fetch run: %w", err)
		}

		run.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid fetch run id %q: %w", id, err)
		}
		if errorMsg.Valid {
			run.Error = errorMsg.String
		}
		if finishedAt.Valid {
			run.FinishedAt = &finishedAt.Time
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fetch runs: %w", err)
	}

	return runs, nil
}
