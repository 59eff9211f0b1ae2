package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shareit/internal/models"
)

// Page is the from/size window of a listing request. The page index is
// computed as from / size, matching the observed behavior of the HTTP
// surface: a from that is not a multiple of size snaps back to the start
// of its page.
type Page struct {
	From int
	Size int
}

func (p Page) limitOffset() (limit, offset int) {
	page := p.From / p.Size
	return p.Size, page * p.Size
}

// The six-way booking filter is a clause table, not a handler hierarchy:
// each filter contributes a WHERE fragment plus its date/status arguments,
// and the role picks the scope column. Adding a filter is one table entry.
type filterClause struct {
	cond string
	args func(now time.Time) []any
}

var filterClauses = map[models.BookingFilter]filterClause{
	models.FilterAll: {},
	models.FilterCurrent: {
		cond: "b.start_date <= ? AND b.end_date > ?",
		args: func(now time.Time) []any { return []any{now, now} },
	},
	models.FilterPast: {
		cond: "b.end_date < ?",
		args: func(now time.Time) []any { return []any{now} },
	},
	models.FilterFuture: {
		cond: "b.start_date > ?",
		args: func(now time.Time) []any { return []any{now} },
	},
	models.FilterWaiting: {
		cond: "b.status = ?",
		args: func(time.Time) []any { return []any{string(models.StatusWaiting)} },
	},
	models.FilterRejected: {
		cond: "b.status = ?",
		args: func(time.Time) []any { return []any{string(models.StatusRejected)} },
	},
}

var roleScopes = map[models.BookingRole]string{
	models.RoleBooker: "b.booker_id = ?",
	models.RoleOwner:  "i.owner_id = ?",
}

const bookingColumns = `b.id, b.start_date, b.end_date, b.status,
       i.id, i.name, i.description, i.available, i.owner_id, i.request_id,
       u.id, u.name, u.email`

const bookingFrom = ` FROM bookings b
       JOIN items i ON i.id = b.item_id
       JOIN users u ON u.id = b.booker_id`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	var requestID sql.NullInt64
	err := row.Scan(
		&b.ID, &b.Start, &b.End, &b.Status,
		&b.Item.ID, &b.Item.Name, &b.Item.Description, &b.Item.Available, &b.Item.OwnerID, &requestID,
		&b.Booker.ID, &b.Booker.Name, &b.Booker.Email,
	)
	if err != nil {
		return nil, err
	}
	if requestID.Valid {
		b.Item.RequestID = &requestID.Int64
	}
	return &b, nil
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (item_id, booker_id, start_date, end_date, status, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		booking.Item.ID, booking.Booker.ID, booking.Start.UTC(), booking.End.UTC(),
		string(booking.Status), now, now)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	return nil
}

// GetBooking returns (nil, nil) when the booking does not exist.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingFrom + ` WHERE b.id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// DecideBooking flips a WAITING booking to the given terminal status.
// The status guard makes concurrent decisions race-safe: the row update is
// atomic, so at most one caller observes decided=true.
func (db *DB) DecideBooking(ctx context.Context, id int64, status models.BookingStatus) (bool, error) {
	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, string(status), time.Now().UTC(), id, string(models.StatusWaiting))
	if err != nil {
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected == 1, nil
}

// ListBookings resolves one role/filter combination to its query. Results
// are always ordered by start date descending.
func (db *DB) ListBookings(ctx context.Context, role models.BookingRole, filter models.BookingFilter,
	userID int64, now time.Time, page *Page) ([]models.Booking, error) {

	scope, ok := roleScopes[role]
	if !ok {
		return nil, fmt.Errorf("unknown booking role: %d", role)
	}
	clause, ok := filterClauses[filter]
	if !ok {
		return nil, fmt.Errorf("unknown booking filter: %s", filter)
	}

	query := `SELECT ` + bookingColumns + bookingFrom + ` WHERE ` + scope
	args := []any{userID}
	if clause.cond != "" {
		query += ` AND ` + clause.cond
		args = append(args, clause.args(now.UTC())...)
	}
	query += ` ORDER BY b.start_date DESC`
	if page != nil {
		limit, offset := page.limitOffset()
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	// Empty result stays a non-nil slice so it encodes as a JSON array.
	bookings := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// ListApprovedBookingsForItems returns every approved booking of the given
// items in one query, for batched last/next enrichment.
func (db *DB) ListApprovedBookingsForItems(ctx context.Context, itemIDs []int64) ([]models.Booking, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + bookingColumns + bookingFrom + ` WHERE b.item_id IN (` +
		placeholders(len(itemIDs)) + `) AND b.status = ? ORDER BY b.start_date`
	args := append(int64Args(itemIDs), string(models.StatusApproved))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// HasCompletedBooking reports whether the user has an approved booking of
// the item that ended strictly before now. Gatekeeper for comments.
func (db *DB) HasCompletedBooking(ctx context.Context, userID, itemID int64, now time.Time) (bool, error) {
	query := `SELECT COUNT(*) FROM bookings
              WHERE booker_id = ? AND item_id = ? AND status = ? AND end_date < ?`
	var count int
	err := db.QueryRowContext(ctx, query, userID, itemID, string(models.StatusApproved), now.UTC()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check completed booking: %w", err)
	}
	return count > 0, nil
}
