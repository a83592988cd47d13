package calendar

import (
	"VoiceCalendarAI/backend/go/internal/models"
	"context"
	"errors"
	"time"
)

// ErrEventNotFound is returned when a move or cancel target cannot be
// located on the calendar.
var ErrEventNotFound = errors.New("no matching calendar event found")

// Event is a calendar entry as the booking service sees it, independent of
// the provider's wire format.
type Event struct {
	ID       string
	Summary  string
	HTMLLink string
	Start    time.Time
	End      time.Time
	AllDay   bool
}

// Provider abstracts the calendar backend. The booking service treats the
// calendar protocol as opaque: it hands over resolved intents and gets back
// events.
type Provider interface {
	// Create books a new event for the intent.
	Create(ctx context.Context, intent models.EventIntent) (*Event, error)
	// FindByTitle locates the next upcoming event whose summary matches
	// the title, for move and cancel targets.
	FindByTitle(ctx context.Context, title string) (*Event, error)
	// Move reschedules an existing event to the new time range.
	Move(ctx context.Context, eventID string, start, end time.Time, allDay bool) (*Event, error)
	// Cancel removes an existing event.
	Cancel(ctx context.Context, eventID string) error
	// Conflicts lists existing events overlapping the time range.
	Conflicts(ctx context.Context, start, end time.Time) ([]models.ConflictingEvent, error)
}
