package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"shareit/internal/database"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fixedNow is the reference clock for every service test. Services take
// their clock from the now field, so tests are deterministic.
var fixedNow = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db       *database.DB
	bus      *events.EventBus
	users    *UserService
	items    *ItemService
	bookings *BookingService
	requests *RequestService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bus := events.NewEventBus()
	env := &testEnv{
		db:       db,
		bus:      bus,
		users:    NewUserService(db, nil, &logger),
		items:    NewItemService(db, bus, &logger),
		bookings: NewBookingService(db, bus, nil, &logger),
		requests: NewRequestService(db, &logger),
	}
	env.items.now = func() time.Time { return fixedNow }
	env.bookings.now = func() time.Time { return fixedNow }
	return env
}

func (e *testEnv) seedUser(t *testing.T, name, email string) *models.User {
	t.Helper()

	user, err := e.users.Create(context.Background(), &models.User{Name: name, Email: email})
	require.NoError(t, err)
	return user
}

func (e *testEnv) seedItem(t *testing.T, ownerID int64, name string, available bool) *models.Item {
	t.Helper()

	item, err := e.items.Create(context.Background(), ownerID,
		&models.Item{Name: name, Description: name + " description", Available: available})
	require.NoError(t, err)
	return item
}

func (e *testEnv) seedBooking(t *testing.T, item *models.Item, booker *models.User,
	start, end time.Time, status models.BookingStatus) *models.Booking {
	t.Helper()

	booking := &models.Booking{Start: start, End: end, Status: status, Item: *item, Booker: *booker}
	require.NoError(t, e.db.CreateBooking(context.Background(), booking))
	return booking
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
