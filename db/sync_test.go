// ABOUTME: Tests for sync_state and fetch_runs operations
// ABOUTME: Covers status transitions and ledger ordering
package db

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/connections/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSyncStateMissing(t *testing.T) {
	database := setupTestDB(t)

	state, err := GetSyncState(database, "connections")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestSyncStatusTransitions(t *testing.T) {
	database := setupTestDB(t)

	require.NoError(t, UpdateSyncStatus(database, "connections", "syncing", nil))

	state, err := GetSyncState(database, "connections")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "syncing", state.Status)
	assert.Nil(t, state.LastSyncTime)

	msg := "page 2 failed"
	require.NoError(t, UpdateSyncStatus(database, "connections", "error", &msg))

	state, err = GetSyncState(database, "connections")
	require.NoError(t, err)
	assert.Equal(t, "error", state.Status)
	require.NotNil(t, state.ErrorMessage)
	assert.Equal(t, msg, *state.ErrorMessage)

	finished := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	require.NoError(t, MarkSyncComplete(database, "connections", finished))

	state, err = GetSyncState(database, "connections")
	require.NoError(t, err)
	assert.Equal(t, "idle", state.Status)
	assert.Nil(t, state.ErrorMessage)
	require.NotNil(t, state.LastSyncTime)
	assert.True(t, finished.Equal(*state.LastSyncTime))
}

func TestInvalidSyncStatus(t *testing.T) {
	database := setupTestDB(t)

	err := UpdateSyncStatus(database, "connections", "exploded", nil)
	assert.Error(t, err)
}

func TestRecordAndListFetchRuns(t *testing.T) {
	database := setupTestDB(t)

	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	for i, status := range []string{models.FetchStatusOK, models.FetchStatusEmpty, models.FetchStatusError} {
		started := base.Add(time.Duration(i) * time.Minute)
		finished := started.Add(2 * time.Second)
		run := &models.FetchRun{
			Source:     "web",
			Pages:      i + 1,
			Records:    i * 100,
			Status:     status,
			StartedAt:  started,
			FinishedAt: &finished,
		}
		if status == models.FetchStatusError {
			run.Error = "boom"
		}
		require.NoError(t, RecordFetchRun(database, run))
		assert.NotEqual(t, uuid.Nil, run.ID, "RecordFetchRun should assign an ID")
	}

	runs, err := RecentFetchRuns(database, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, models.FetchStatusError, runs[0].Status)
	assert.Equal(t, "boom", runs[0].Error)
	assert.Equal(t, 3, runs[0].Pages)
	assert.Equal(t, models.FetchStatusEmpty, runs[1].Status)
	require.NotNil(t, runs[1].FinishedAt)
}
