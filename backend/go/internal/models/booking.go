package models

import (
	"time"
)

// BookingRequest is the message published to the intents topic once a
// transcript has been interpreted. The booking service consumes it and
// executes the calendar operation.
type BookingRequest struct {
	CommandID string      `json:"commandID"`
	UserID    string      `json:"userID"`
	Intent    EventIntent `json:"intent"`
}

// BookingStatus is the terminal state of a calendar operation.
type BookingStatus string

const (
	BookingStatusCreated   BookingStatus = "created"
	BookingStatusMoved     BookingStatus = "moved"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusFailed    BookingStatus = "failed"
)

// ConflictingEvent is an existing calendar entry overlapping the requested
// time range. Conflicts are reported, not resolved: the event is still
// created and the caller decides what to do.
type ConflictingEvent struct {
	EventID string    `json:"eventID"`
	Summary string    `json:"summary,omitempty"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// BookingResult is published to the results topic after the calendar
// provider has been called, and is pushed to the user over WebSocket.
type BookingResult struct {
	CommandID string             `json:"commandID" bson:"command_id"`
	UserID    string             `json:"userID" bson:"user_id"`
	Status    BookingStatus      `json:"status" bson:"status"`
	EventID   string             `json:"eventID,omitempty" bson:"event_id,omitempty"`
	HTMLLink  string             `json:"htmlLink,omitempty" bson:"html_link,omitempty"`
	Conflicts []ConflictingEvent `json:"conflicts,omitempty" bson:"conflicts,omitempty"`
	Error     string             `json:"error,omitempty" bson:"error,omitempty"`
}
