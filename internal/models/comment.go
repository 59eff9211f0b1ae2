package models

import "time"

// Comment is feedback left on an item by a renter after a completed
// approved booking.
type Comment struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"authorName"`
	Created    time.Time `json:"created"`

	ItemID   int64 `json:"-"`
	AuthorID int64 `json:"-"`
}
