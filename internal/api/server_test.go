package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/events"
	"shareit/internal/models"
	"shareit/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bus := events.NewEventBus()
	srv := NewServer(config.ServerConfig{Port: 0},
		service.NewUserService(db, nil, &logger),
		service.NewItemService(db, bus, &logger),
		service.NewBookingService(db, bus, nil, &logger),
		service.NewRequestService(db, &logger),
		&logger)
	return srv.Handler()
}

func doRequest(t *testing.T, h http.Handler, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req.Header.Set(userIDHeader, strconv.FormatInt(userID, 10))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func createUser(t *testing.T, h http.Handler, name, email string) models.User {
	t.Helper()

	rec := doRequest(t, h, http.MethodPost, "/users", 0, map[string]string{"name": name, "email": email})
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	decodeBody(t, rec, &user)
	return user
}

func createItem(t *testing.T, h http.Handler, ownerID int64, name string, available bool) models.Item {
	t.Helper()

	rec := doRequest(t, h, http.MethodPost, "/items", ownerID,
		map[string]any{"name": name, "description": name + " description", "available": available})
	require.Equal(t, http.StatusCreated, rec.Code)

	var item models.Item
	decodeBody(t, rec, &item)
	return item
}

func createBooking(t *testing.T, h http.Handler, bookerID, itemID int64, start, end time.Time) models.Booking {
	t.Helper()

	rec := doRequest(t, h, http.MethodPost, "/bookings", bookerID,
		map[string]any{"itemId": itemID, "start": start, "end": end})
	require.Equal(t, http.StatusCreated, rec.Code)

	var booking models.Booking
	decodeBody(t, rec, &booking)
	return booking
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) (errText, message string) {
	t.Helper()

	var body map[string]string
	decodeBody(t, rec, &body)
	return body["error"], body["message"]
}

func TestUserEndpoints(t *testing.T) {
	h := newTestServer(t)

	user := createUser(t, h, "Anna", "anna@example.com")
	assert.Positive(t, user.ID)

	rec := doRequest(t, h, http.MethodGet, fmt.Sprintf("/users/%d", user.ID), 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.User
	decodeBody(t, rec, &got)
	assert.Equal(t, "Anna", got.Name)

	rec = doRequest(t, h, http.MethodPatch, fmt.Sprintf("/users/%d", user.ID), 0,
		map[string]string{"name": "Anna K"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &got)
	assert.Equal(t, "Anna K", got.Name)
	assert.Equal(t, "anna@example.com", got.Email)

	rec = doRequest(t, h, http.MethodGet, "/users", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []models.User
	decodeBody(t, rec, &users)
	assert.Len(t, users, 1)

	rec = doRequest(t, h, http.MethodDelete, fmt.Sprintf("/users/%d", user.ID), 0, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, h, http.MethodGet, fmt.Sprintf("/users/%d", user.ID), 0, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	h := newTestServer(t)

	createUser(t, h, "Anna", "anna@example.com")

	rec := doRequest(t, h, http.MethodPost, "/users", 0,
		map[string]string{"name": "Boris", "email": "ANNA@example.com"})
	require.Equal(t, http.StatusConflict, rec.Code)

	errText, message := errorMessage(t, rec)
	assert.Equal(t, "Conflict", errText)
	assert.Equal(t, "user with email already registered", message)
}

func TestItemEndpoints(t *testing.T) {
	h := newTestServer(t)

	owner := createUser(t, h, "Owner", "owner@example.com")
	viewer := createUser(t, h, "Viewer", "viewer@example.com")
	item := createItem(t, h, owner.ID, "Drill", true)

	// Item creation requires the sharer header.
	rec := doRequest(t, h, http.MethodPost, "/items", 0,
		map[string]any{"name": "Saw", "description": "s", "available": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodGet, fmt.Sprintf("/items/%d", item.ID), viewer.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail map[string]json.RawMessage
	decodeBody(t, rec, &detail)
	assert.Contains(t, detail, "lastBooking")
	assert.Contains(t, detail, "nextBooking")
	assert.Contains(t, detail, "comments")

	rec = doRequest(t, h, http.MethodPatch, fmt.Sprintf("/items/%d", item.ID), owner.ID,
		map[string]any{"available": false})
	require.Equal(t, http.StatusOK, rec.Code)

	// Non-owner updates look like a missing item.
	rec = doRequest(t, h, http.MethodPatch, fmt.Sprintf("/items/%d", item.ID), viewer.ID,
		map[string]any{"name": "Mine"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/items", owner.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ownerItems []models.ItemDetail
	decodeBody(t, rec, &ownerItems)
	require.Len(t, ownerItems, 1)
	assert.False(t, ownerItems[0].Available)

	rec = doRequest(t, h, http.MethodDelete, fmt.Sprintf("/items/%d", item.ID), owner.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSearchItems(t *testing.T) {
	h := newTestServer(t)

	owner := createUser(t, h, "Owner", "owner@example.com")
	createItem(t, h, owner.ID, "Cordless Drill", true)
	createItem(t, h, owner.ID, "Broken Drill", false)

	rec := doRequest(t, h, http.MethodGet, "/items/search?text=drill", owner.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []models.Item
	decodeBody(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "Cordless Drill", items[0].Name)

	rec = doRequest(t, h, http.MethodGet, "/items/search?text=", owner.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestBookingLifecycle(t *testing.T) {
	h := newTestServer(t)

	owner := createUser(t, h, "Owner", "owner@example.com")
	booker := createUser(t, h, "Booker", "booker@example.com")
	stranger := createUser(t, h, "Stranger", "stranger@example.com")
	item := createItem(t, h, owner.ID, "Drill", true)

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	booking := createBooking(t, h, booker.ID, item.ID, start, start.Add(24*time.Hour))
	assert.Equal(t, models.StatusWaiting, booking.Status)

	// Only the owner can decide.
	rec := doRequest(t, h, http.MethodPatch,
		fmt.Sprintf("/bookings/%d?approved=true", booking.ID), booker.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, h, http.MethodPatch,
		fmt.Sprintf("/bookings/%d?approved=true", booking.ID), owner.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var approved models.Booking
	decodeBody(t, rec, &approved)
	assert.Equal(t, models.StatusApproved, approved.Status)

	rec = doRequest(t, h, http.MethodPatch,
		fmt.Sprintf("/bookings/%d?approved=false", booking.ID), owner.ID, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	_, message := errorMessage(t, rec)
	assert.Equal(t, "booking already processed", message)

	// Booker and owner see the booking, strangers get 404.
	for _, viewer := range []int64{booker.ID, owner.ID} {
		rec = doRequest(t, h, http.MethodGet, fmt.Sprintf("/bookings/%d", booking.ID), viewer, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec = doRequest(t, h, http.MethodGet, fmt.Sprintf("/bookings/%d", booking.ID), stranger.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingValidation(t *testing.T) {
	h := newTestServer(t)

	owner := createUser(t, h, "Owner", "owner@example.com")
	booker := createUser(t, h, "Booker", "booker@example.com")
	item := createItem(t, h, owner.ID, "Drill", true)
	unavailable := createItem(t, h, owner.ID, "Broken Saw", false)

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	end := start.Add(24 * time.Hour)

	rec := doRequest(t, h, http.MethodPost, "/bookings", booker.ID,
		map[string]any{"itemId": unavailable.ID, "start": start, "end": end})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/bookings", owner.ID,
		map[string]any{"itemId": item.ID, "start": start, "end": end})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/bookings", booker.ID,
		map[string]any{"itemId": item.ID, "start": end, "end": start})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPatch, "/bookings/1?approved=maybe", owner.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingListings(t *testing.T) {
	h := newTestServer(t)

	owner := createUser(t, h, "Owner", "owner@example.com")
	booker := createUser(t, h, "Booker", "booker@example.com")
	item := createItem(t, h, owner.ID, "Drill", true)

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	booking := createBooking(t, h, booker.ID, item.ID, start, start.Add(24*time.Hour))

	// Default state is ALL.
	rec := doRequest(t, h, http.MethodGet, "/bookings", booker.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bookings []models.Booking
	decodeBody(t, rec, &bookings)
	require.Len(t, bookings, 1)
	assert.Equal(t, booking.ID, bookings[0].ID)

	for _, state := range []string{"FUTURE", "WAITING"} {
		rec = doRequest(t, h, http.MethodGet, "/bookings/owner?state="+state, owner.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decodeBody(t, rec, &bookings)
		assert.Len(t, bookings, 1, "state %s", state)
	}

	rec = doRequest(t, h, http.MethodGet, "/bookings?state=PAST", booker.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &bookings)
	assert.Empty(t, bookings)

	rec = doRequest(t, h, http.MethodGet, "/bookings?state=SOMETIMES", booker.ID, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	_, message := errorMessage(t, rec)
	assert.Equal(t, "Unknown state: SOMETIMES", message)

	rec = doRequest(t, h, http.MethodGet, "/bookings?from=-1&size=10", booker.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown users cannot list.
	rec = doRequest(t, h, http.MethodGet, "/bookings", 999, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommentEndpoint(t *testing.T) {
	h := newTestServer(t)

	owner := createUser(t, h, "Owner", "owner@example.com")
	booker := createUser(t, h, "Booker", "booker@example.com")
	item := createItem(t, h, owner.ID, "Drill", true)

	// No completed booking yet.
	rec := doRequest(t, h, http.MethodPost, fmt.Sprintf("/items/%d/comment", item.ID), booker.ID,
		map[string]string{"text": "nice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	start := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	booking := createBooking(t, h, booker.ID, item.ID, start, start.Add(24*time.Hour))
	rec = doRequest(t, h, http.MethodPatch,
		fmt.Sprintf("/bookings/%d?approved=true", booking.ID), owner.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodPost, fmt.Sprintf("/items/%d/comment", item.ID), booker.ID,
		map[string]string{"text": "great drill"})
	require.Equal(t, http.StatusOK, rec.Code)
	var comment models.Comment
	decodeBody(t, rec, &comment)
	assert.Equal(t, "great drill", comment.Text)
	assert.Equal(t, "Booker", comment.AuthorName)

	rec = doRequest(t, h, http.MethodPost, fmt.Sprintf("/items/%d/comment", item.ID), booker.ID,
		map[string]string{"text": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The comment shows up on the item.
	rec = doRequest(t, h, http.MethodGet, fmt.Sprintf("/items/%d", item.ID), booker.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail models.ItemDetail
	decodeBody(t, rec, &detail)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "great drill", detail.Comments[0].Text)
}

func TestRequestEndpoints(t *testing.T) {
	h := newTestServer(t)

	anna := createUser(t, h, "Anna", "anna@example.com")
	boris := createUser(t, h, "Boris", "boris@example.com")

	rec := doRequest(t, h, http.MethodPost, "/requests", anna.ID,
		map[string]string{"description": "need a drill"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var request models.ItemRequest
	decodeBody(t, rec, &request)
	assert.Positive(t, request.ID)
	assert.NotNil(t, request.Items)

	rec = doRequest(t, h, http.MethodPost, "/requests", anna.ID, map[string]string{"description": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Own requests, then everyone else's.
	rec = doRequest(t, h, http.MethodGet, "/requests", anna.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var requests []models.ItemRequest
	decodeBody(t, rec, &requests)
	assert.Len(t, requests, 1)

	rec = doRequest(t, h, http.MethodGet, "/requests/all", anna.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &requests)
	assert.Empty(t, requests)

	rec = doRequest(t, h, http.MethodGet, "/requests/all", boris.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &requests)
	require.Len(t, requests, 1)
	assert.Equal(t, request.ID, requests[0].ID)

	rec = doRequest(t, h, http.MethodGet, fmt.Sprintf("/requests/%d", request.ID), boris.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/requests/999", boris.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMissingUserHeader(t *testing.T) {
	h := newTestServer(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/items"},
		{http.MethodGet, "/bookings"},
		{http.MethodGet, "/requests"},
		{http.MethodPost, "/bookings"},
	}
	for _, p := range paths {
		rec := doRequest(t, h, p.method, p.path, 0, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%s %s", p.method, p.path)
	}

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set(userIDHeader, "zero")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmptyListingsSerializeAsArrays(t *testing.T) {
	h := newTestServer(t)

	rec := doRequest(t, h, http.MethodGet, "/users", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	user := createUser(t, h, "Solo", "solo@example.com")

	paths := []string{
		"/items",
		"/items/search?text=drill",
		"/bookings",
		"/bookings?state=WAITING",
		"/bookings/owner",
		"/requests",
		"/requests/all",
	}
	for _, path := range paths {
		rec := doRequest(t, h, http.MethodGet, path, user.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "[]\n", rec.Body.String(), path)
	}
}
