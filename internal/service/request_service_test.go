package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, "Anna", "anna@example.com")

	request, err := env.requests.Create(ctx, user.ID, "need a drill")
	require.NoError(t, err)
	assert.Positive(t, request.ID)
	assert.Equal(t, user.ID, request.RequestorID)
	assert.NotNil(t, request.Items)
	assert.Empty(t, request.Items)

	for _, description := range []string{"", "   "} {
		_, err := env.requests.Create(ctx, user.ID, description)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, domain.StatusOf(err))
	}

	_, err = env.requests.Create(ctx, 999, "need a saw")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, domain.StatusOf(err))
}

func TestRequestGetOwn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	anna := env.seedUser(t, "Anna", "anna@example.com")
	boris := env.seedUser(t, "Boris", "boris@example.com")
	owner := env.seedUser(t, "Owner", "owner@example.com")

	older, err := env.requests.Create(ctx, anna.ID, "need a drill")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	newer, err := env.requests.Create(ctx, anna.ID, "need a saw")
	require.NoError(t, err)
	_, err = env.requests.Create(ctx, boris.ID, "need a ladder")
	require.NoError(t, err)

	_, err = env.items.Create(ctx, owner.ID,
		&models.Item{Name: "Drill", Description: "d", Available: true, RequestID: &older.ID})
	require.NoError(t, err)

	requests, err := env.requests.GetOwn(ctx, anna.ID)
	require.NoError(t, err)
	require.Len(t, requests, 2)

	// Newest first; fulfilling items attached, empty slice otherwise.
	assert.Equal(t, newer.ID, requests[0].ID)
	assert.Equal(t, older.ID, requests[1].ID)
	assert.NotNil(t, requests[0].Items)
	assert.Empty(t, requests[0].Items)
	require.Len(t, requests[1].Items, 1)
	assert.Equal(t, "Drill", requests[1].Items[0].Name)

	_, err = env.requests.GetOwn(ctx, 999)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, domain.StatusOf(err))
}

func TestRequestGetAll_ExcludesOwn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	anna := env.seedUser(t, "Anna", "anna@example.com")
	boris := env.seedUser(t, "Boris", "boris@example.com")

	mine, err := env.requests.Create(ctx, anna.ID, "need a drill")
	require.NoError(t, err)
	theirs, err := env.requests.Create(ctx, boris.ID, "need a saw")
	require.NoError(t, err)

	requests, err := env.requests.GetAll(ctx, anna.ID, nil)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, theirs.ID, requests[0].ID)

	requests, err = env.requests.GetAll(ctx, boris.ID, &database.Page{From: 0, Size: 10})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, mine.ID, requests[0].ID)
}

func TestRequestGetByID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	anna := env.seedUser(t, "Anna", "anna@example.com")
	boris := env.seedUser(t, "Boris", "boris@example.com")
	request, err := env.requests.Create(ctx, anna.ID, "need a drill")
	require.NoError(t, err)

	// Any known user can read any request.
	got, err := env.requests.GetByID(ctx, request.ID, boris.ID)
	require.NoError(t, err)
	assert.Equal(t, request.ID, got.ID)
	assert.NotNil(t, got.Items)

	_, err = env.requests.GetByID(ctx, 999, anna.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, domain.StatusOf(err))

	_, err = env.requests.GetByID(ctx, request.ID, 999)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, domain.StatusOf(err))
}
