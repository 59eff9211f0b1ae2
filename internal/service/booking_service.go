package service

import (
	"context"
	"encoding/json"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// LedgerEnqueuer hands booking mirror tasks to the ledger worker, which
// persists them and schedules the fast path.
type LedgerEnqueuer interface {
	EnqueueTask(ctx context.Context, taskType string, booking *models.Booking) error
}

// BookingService owns the booking lifecycle: WAITING on creation, decided
// to APPROVED or REJECTED by the item owner exactly once. Listings go
// through the filter dispatch in the database layer.
type BookingService struct {
	db     *database.DB
	bus    *events.EventBus
	ledger LedgerEnqueuer
	log    zerolog.Logger
	now    func() time.Time
}

func NewBookingService(db *database.DB, bus *events.EventBus, ledger LedgerEnqueuer, logger *zerolog.Logger) *BookingService {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "booking-service").Logger()
	}
	return &BookingService{db: db, bus: bus, ledger: ledger, log: log, now: time.Now}
}

func (s *BookingService) Create(ctx context.Context, bookerID int64, in models.BookingCreate) (*models.Booking, error) {
	booker, err := s.db.GetUser(ctx, bookerID)
	if err != nil {
		return nil, err
	}
	if booker == nil {
		return nil, domain.NotFound("user not found: %d", bookerID)
	}

	item, err := s.db.GetItem(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.NotFound("item not found: %d", in.ItemID)
	}

	if !item.Available {
		return nil, domain.BadRequest("item is not available for booking")
	}

	// NotFound on purpose: the owner should not learn that booking their
	// own item is the thing being rejected.
	if item.OwnerID == bookerID {
		return nil, domain.NotFound("owner cannot book own item")
	}

	if !in.Start.Before(in.End) {
		return nil, domain.BadRequest("booking start must be before end")
	}

	booking := &models.Booking{
		Start:  in.Start,
		End:    in.End,
		Status: models.StatusWaiting,
		Item:   *item,
		Booker: *booker,
	}
	if err := s.db.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	metrics.IncBookingCreated()
	s.enqueueSync(ctx, booking, "upsert")
	s.publishEvent(events.EventBookingCreated, booking)

	return booking, nil
}

func (s *BookingService) Approve(ctx context.Context, bookingID, userID int64, approved bool) (*models.Booking, error) {
	booking, err := s.db.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, domain.NotFound("booking not found: %d", bookingID)
	}

	if booking.Item.OwnerID != userID {
		return nil, domain.Forbidden("only the item owner can decide a booking")
	}

	status := models.StatusApproved
	eventType := events.EventBookingApproved
	if !approved {
		status = models.StatusRejected
		eventType = events.EventBookingRejected
	}

	// The WHERE status='WAITING' guard is the whole concurrency story:
	// of two racing decisions, exactly one flips the row.
	decided, err := s.db.DecideBooking(ctx, bookingID, status)
	if err != nil {
		return nil, err
	}
	if !decided {
		return nil, domain.BadRequest("booking already processed")
	}
	booking.Status = status

	metrics.IncBookingDecided(string(status))
	s.enqueueSync(ctx, booking, "update_status")
	s.publishEvent(eventType, booking)

	return booking, nil
}

// GetByID is visible only to the booker and the item owner. Anyone else
// gets NotFound rather than Forbidden, hiding the booking's existence.
func (s *BookingService) GetByID(ctx context.Context, bookingID, userID int64) (*models.Booking, error) {
	booking, err := s.db.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, domain.NotFound("booking not found: %d", bookingID)
	}

	if booking.Booker.ID != userID && booking.Item.OwnerID != userID {
		return nil, domain.NotFound("booking not found: %d", bookingID)
	}
	return booking, nil
}

func (s *BookingService) ListForBooker(ctx context.Context, userID int64, state string, page *database.Page) ([]models.Booking, error) {
	return s.list(ctx, models.RoleBooker, userID, state, page)
}

func (s *BookingService) ListForOwner(ctx context.Context, userID int64, state string, page *database.Page) ([]models.Booking, error) {
	return s.list(ctx, models.RoleOwner, userID, state, page)
}

func (s *BookingService) list(ctx context.Context, role models.BookingRole, userID int64, state string, page *database.Page) ([]models.Booking, error) {
	exists, err := s.db.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NotFound("user not found: %d", userID)
	}

	filter, ok := models.ParseBookingFilter(state)
	if !ok {
		return nil, domain.BadRequest("Unknown state: %s", state)
	}

	return s.db.ListBookings(ctx, role, filter, userID, s.now(), page)
}

func (s *BookingService) enqueueSync(ctx context.Context, booking *models.Booking, taskType string) {
	// The ledger is best effort; the booking itself already committed.
	if s.ledger != nil {
		if err := s.ledger.EnqueueTask(ctx, taskType, booking); err != nil {
			s.log.Error().Err(err).Int64("booking_id", booking.ID).Msg("enqueue ledger sync task")
		}
		return
	}

	// No worker wired: persist the task so a later poll sweep picks it up.
	payload, err := json.Marshal(booking)
	if err != nil {
		s.log.Error().Err(err).Int64("booking_id", booking.ID).Msg("marshal sync payload")
		return
	}
	task := &models.SyncTask{
		TaskType:  taskType,
		BookingID: booking.ID,
		Payload:   string(payload),
		Status:    models.SyncStatusPending,
	}
	if err := s.db.CreateSyncTask(ctx, task); err != nil {
		s.log.Error().Err(err).Int64("booking_id", booking.ID).Msg("persist ledger sync task")
	}
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking) {
	err := s.bus.PublishJSON(eventType, events.BookingEventPayload{
		BookingID: booking.ID,
		ItemID:    booking.Item.ID,
		ItemName:  booking.Item.Name,
		BookerID:  booking.Booker.ID,
		OwnerID:   booking.Item.OwnerID,
		Status:    booking.Status,
		Start:     booking.Start,
		End:       booking.End,
	})
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("publish booking event")
	}
}
