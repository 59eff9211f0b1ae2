package database

import (
	"context"
	"testing"
	"time"

	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSyncTask(t *testing.T, db *DB, taskType string, bookingID int64) *models.SyncTask {
	t.Helper()

	task := &models.SyncTask{
		TaskType:  taskType,
		BookingID: bookingID,
		Payload:   `{"id":1}`,
		Status:    models.SyncStatusPending,
	}
	require.NoError(t, db.CreateSyncTask(context.Background(), task))
	return task
}

func TestGetPendingSyncTasks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := seedSyncTask(t, db, "upsert", 1)
	second := seedSyncTask(t, db, "update_status", 2)

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.ElementsMatch(t, []int64{first.ID, second.ID}, []int64{tasks[0].ID, tasks[1].ID})

	limited, err := db.GetPendingSyncTasks(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGetPendingSyncTasks_RespectsNextRetryAt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	ready := seedSyncTask(t, db, "upsert", 1)
	deferred := seedSyncTask(t, db, "upsert", 2)

	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, ready.ID, models.SyncStatusRetry, "boom", &past))
	future := time.Now().UTC().Add(time.Hour)
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, deferred.ID, models.SyncStatusRetry, "boom", &future))

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, ready.ID, tasks[0].ID)
	assert.Equal(t, models.SyncStatusRetry, tasks[0].Status)
	assert.Equal(t, 1, tasks[0].RetryCount)
	assert.Equal(t, "boom", tasks[0].LastError)
}

func TestUpdateSyncTaskStatus_Completed(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := seedSyncTask(t, db, "upsert", 1)
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusCompleted, "", nil))

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	var status string
	var processedAt *time.Time
	err = db.QueryRowContext(ctx, `SELECT status, processed_at FROM sync_queue WHERE id = ?`, task.ID).
		Scan(&status, &processedAt)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusCompleted, status)
	assert.NotNil(t, processedAt)
}

func TestGetFailedSyncTasks(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	task := seedSyncTask(t, db, "upsert", 1)
	seedSyncTask(t, db, "upsert", 2)
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, models.SyncStatusFailed, "gave up", nil))

	failed, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, task.ID, failed[0].ID)
	assert.Equal(t, "gave up", failed[0].LastError)

	// Failed tasks are out of the pending pool.
	pending, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(2), pending[0].BookingID)
}
