package models

import "time"

// ItemRequest is a posted need for an item that does not exist yet.
// Items created in fulfillment reference it and are attached to responses.
type ItemRequest struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	RequestorID int64     `json:"requestorId"`
	Created     time.Time `json:"created"`
	Items       []Item    `json:"items"`
}
