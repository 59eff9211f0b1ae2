package models

// Item is a rentable listing. The owner is fixed at creation time.
// RequestID links an item to the ItemRequest it was created to fulfill.
type Item struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	OwnerID     int64  `json:"ownerId"`
	RequestID   *int64 `json:"requestId,omitempty"`
}

// ItemPatch carries a partial update; nil fields are left untouched.
// The owner cannot be changed.
type ItemPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

// ItemDetail is an item enriched for responses. LastBooking and NextBooking
// are populated only when the viewer is the owner; comments are always
// attached.
type ItemDetail struct {
	Item
	LastBooking *BookingRef `json:"lastBooking"`
	NextBooking *BookingRef `json:"nextBooking"`
	Comments    []Comment   `json:"comments"`
}
