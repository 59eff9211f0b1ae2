package models

import "time"

type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
)

// BookingFilter selects a subset of a user's bookings by date or status.
type BookingFilter string

const (
	FilterAll      BookingFilter = "ALL"
	FilterCurrent  BookingFilter = "CURRENT"
	FilterPast     BookingFilter = "PAST"
	FilterFuture   BookingFilter = "FUTURE"
	FilterWaiting  BookingFilter = "WAITING"
	FilterRejected BookingFilter = "REJECTED"
)

// ParseBookingFilter matches the canonical filter names case-sensitively.
// The gateway upper-cases the query parameter before forwarding, but the
// server still rejects anything it does not recognize.
func ParseBookingFilter(s string) (BookingFilter, bool) {
	switch f := BookingFilter(s); f {
	case FilterAll, FilterCurrent, FilterPast, FilterFuture, FilterWaiting, FilterRejected:
		return f, true
	default:
		return "", false
	}
}

// BookingRole distinguishes whose bookings a listing query covers.
type BookingRole int

const (
	RoleBooker BookingRole = iota
	RoleOwner
)

// Booking is a rental of an item for a date range. Status starts at
// WAITING and moves to APPROVED or REJECTED exactly once.
type Booking struct {
	ID     int64         `json:"id"`
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Status BookingStatus `json:"status"`
	Item   Item          `json:"item"`
	Booker User          `json:"booker"`
}

// BookingRef is the short form embedded in item responses.
type BookingRef struct {
	ID       int64     `json:"id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	BookerID int64     `json:"bookerId"`
	ItemID   int64     `json:"itemId"`
}

// Ref projects a booking to its short form.
func (b *Booking) Ref() *BookingRef {
	return &BookingRef{
		ID:       b.ID,
		Start:    b.Start,
		End:      b.End,
		BookerID: b.Booker.ID,
		ItemID:   b.Item.ID,
	}
}

// BookingCreate is the creation payload.
type BookingCreate struct {
	ItemID int64     `json:"itemId"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}
