package calendar

import (
	"testing"
	"time"

	"VoiceCalendarAI/backend/go/internal/models"

	gcal "google.golang.org/api/calendar/v3"
)

func TestEventBodyTimed(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	intent := models.EventIntent{
		Intent:          models.IntentCreateEvent,
		Title:           "meeting with John",
		Start:           time.Date(2026, time.March, 6, 15, 0, 0, 0, loc),
		DurationMinutes: 45,
		Attendees:       []string{"john@example.com", "Mary"},
		Timezone:        "America/New_York",
	}

	event := eventBody(intent)
	if event.Summary != "meeting with John" {
		t.Errorf("summary = %q", event.Summary)
	}
	if event.Start.DateTime != "2026-03-06T15:00:00-05:00" {
		t.Errorf("start = %q", event.Start.DateTime)
	}
	if event.End.DateTime != "2026-03-06T15:45:00-05:00" {
		t.Errorf("end = %q", event.End.DateTime)
	}
	if event.Start.TimeZone != "America/New_York" {
		t.Errorf("timezone = %q", event.Start.TimeZone)
	}
	if len(event.Attendees) != 1 || event.Attendees[0].Email != "john@example.com" {
		t.Errorf("attendees = %+v", event.Attendees)
	}
	if event.Description != "With: Mary" {
		t.Errorf("description = %q", event.Description)
	}
}

func TestEventBodyAllDay(t *testing.T) {
	intent := models.EventIntent{
		Intent: models.IntentCreateEvent,
		Title:  "dentist appointment",
		Start:  time.Date(2026, time.September, 6, 0, 0, 0, 0, time.UTC),
		AllDay: true,
	}

	event := eventBody(intent)
	if event.Start.Date != "2026-09-06" {
		t.Errorf("start = %q", event.Start.Date)
	}
	if event.End.Date != "2026-09-07" {
		t.Errorf("end = %q, want the exclusive next day", event.End.Date)
	}
	if event.Start.DateTime != "" {
		t.Errorf("all-day event carries a date-time: %q", event.Start.DateTime)
	}
}

func TestFromWire(t *testing.T) {
	timed := fromWire(&gcal.Event{
		Id:       "evt-1",
		Summary:  "standup",
		HtmlLink: "https://calendar.example.com/evt-1",
		Start:    &gcal.EventDateTime{DateTime: "2026-03-06T09:00:00Z"},
		End:      &gcal.EventDateTime{DateTime: "2026-03-06T09:30:00Z"},
	})
	if timed.AllDay {
		t.Error("timed event decoded as all-day")
	}
	if !timed.Start.Equal(time.Date(2026, time.March, 6, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", timed.Start)
	}

	allDay := fromWire(&gcal.Event{
		Id:    "evt-2",
		Start: &gcal.EventDateTime{Date: "2026-09-06"},
		End:   &gcal.EventDateTime{Date: "2026-09-07"},
	})
	if !allDay.AllDay {
		t.Error("all-day event decoded as timed")
	}
	if !allDay.Start.Equal(time.Date(2026, time.September, 6, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", allDay.Start)
	}
}
