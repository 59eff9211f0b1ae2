package database

import (
	"context"
	"testing"
	"time"

	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRequest(t *testing.T, db *DB, requestorID int64, description string, created time.Time) *models.ItemRequest {
	t.Helper()

	request := &models.ItemRequest{Description: description, RequestorID: requestorID, Created: created}
	require.NoError(t, db.CreateRequest(context.Background(), request))
	return request
}

func TestGetRequest(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "Anna", "anna@example.com")
	request := seedRequest(t, db, user.ID, "need a drill", testClock())

	got, err := db.GetRequest(ctx, request.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "need a drill", got.Description)
	assert.Equal(t, user.ID, got.RequestorID)

	missing, err := db.GetRequest(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListRequestsByRequestor(t *testing.T) {
	db := setupTestDB(t)
	now := testClock()

	anna := seedUser(t, db, "Anna", "anna@example.com")
	boris := seedUser(t, db, "Boris", "boris@example.com")

	older := seedRequest(t, db, anna.ID, "need a drill", now.Add(-2*time.Hour))
	newer := seedRequest(t, db, anna.ID, "need a saw", now)
	seedRequest(t, db, boris.ID, "need a ladder", now.Add(-time.Hour))

	requests, err := db.ListRequestsByRequestor(context.Background(), anna.ID)
	require.NoError(t, err)
	require.Len(t, requests, 2)

	// Newest first.
	assert.Equal(t, newer.ID, requests[0].ID)
	assert.Equal(t, older.ID, requests[1].ID)
}

func TestListRequestsExcluding(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := testClock()

	anna := seedUser(t, db, "Anna", "anna@example.com")
	boris := seedUser(t, db, "Boris", "boris@example.com")
	clara := seedUser(t, db, "Clara", "clara@example.com")

	seedRequest(t, db, anna.ID, "need a drill", now.Add(-3*time.Hour))
	fromBoris := seedRequest(t, db, boris.ID, "need a saw", now.Add(-2*time.Hour))
	fromClara := seedRequest(t, db, clara.ID, "need a ladder", now.Add(-time.Hour))

	requests, err := db.ListRequestsExcluding(ctx, anna.ID, nil)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, fromClara.ID, requests[0].ID)
	assert.Equal(t, fromBoris.ID, requests[1].ID)

	page := &Page{From: 0, Size: 1}
	paged, err := db.ListRequestsExcluding(ctx, anna.ID, page)
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, fromClara.ID, paged[0].ID)
}
