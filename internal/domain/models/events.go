package models

import "errors"

// EventTrackingCreated is raised by the host after a stock tracking entry is stored.
const EventTrackingCreated = "stock_stockitemtracking.created"

// ErrNotFound is returned by stores when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// EventPayload is the body the host delivers along with an event name.
type EventPayload struct {
	ID int64 `json:"id"`
}

// EventRequest is the HTTP envelope of a host event.
type EventRequest struct {
	Event string `json:"event" binding:"required"`
	ID    int64  `json:"id"`
}
