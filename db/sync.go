// ABOUTME: Database operations for the sync_state table
// ABOUTME: Tracks whether a connections fetch is running, finished, or failed
package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SyncState represents the sync state for a service.
type SyncState struct {
	Service      string
	LastSyncTime *time.Time
	Status       string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GetSyncState retrieves the sync state for a service. Returns nil when the service never ran.
func GetSyncState(db *sql.DB, service string) (*SyncState, error) {
	var state SyncState
	var lastSyncTime sql.NullTime
	var errorMessage sql.NullString

	err := db.QueryRow(`
		SELECT service, last_sync_time, status, error_message, created_at, updated_at
		FROM sync_state
		WHERE service = ?
	`, service).Scan(
		&state.Service,
		&lastSyncTime,
		&state.Status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if lastSyncTime.Valid {
		state.LastSyncTime = &lastSyncTime.Time
	}
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}

	return &state, nil
}

// UpdateSyncStatus updates the sync status for a service.
func UpdateSyncStatus(db *sql.DB, service, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO sync_state (service, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, service, status, errorMsgVal)

	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	return nil
}

// MarkSyncComplete sets the service idle and records when it finished.
func MarkSyncComplete(db *sql.DB, service string, finishedAt time.Time) error {
	_, err := db.Exec(`
		INSERT INTO sync_state (service, last_sync_time, status, created_at, updated_at)
		VALUES (?, ?, 'idle', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			last_sync_time = excluded.last_sync_time,
			status = 'idle',
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, service, finishedAt)

	if err != nil {
		return fmt.Errorf("failed to mark sync complete: %w", err)
	}

	return nil
}
