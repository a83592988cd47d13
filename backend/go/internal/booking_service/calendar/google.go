package calendar

import (
	"VoiceCalendarAI/backend/go/internal/config"
	"VoiceCalendarAI/backend/go/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleProvider implements Provider on top of the Google Calendar API.
type GoogleProvider struct {
	svc         *calendar.Service
	calendarID  string
	sendUpdates string
}

// NewGoogleProvider builds an authenticated provider from an OAuth client
// credentials file and a previously obtained user token.
func NewGoogleProvider(ctx context.Context, cfg config.CalendarConfig) (*GoogleProvider, error) {
	credentials, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar credentials: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(credentials, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar credentials: %w", err)
	}
	token, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar token: %w", err)
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(oauthConfig.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	sendUpdates := cfg.SendUpdates
	if sendUpdates == "" {
		sendUpdates = "none"
	}
	return &GoogleProvider{svc: svc, calendarID: calendarID, sendUpdates: sendUpdates}, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}

// eventBody translates an intent into the calendar wire format. Timed
// events carry RFC 3339 date-times with the intent's zone; all-day events
// carry bare dates. Attendees that look like e-mail addresses are invited,
// the rest are noted in the description.
func eventBody(intent models.EventIntent) *calendar.Event {
	event := &calendar.Event{Summary: intent.Title}

	if intent.AllDay {
		event.Start = &calendar.EventDateTime{Date: intent.Start.Format("2006-01-02")}
		event.End = &calendar.EventDateTime{Date: intent.End().Format("2006-01-02")}
	} else {
		event.Start = &calendar.EventDateTime{
			DateTime: intent.Start.Format(time.RFC3339),
			TimeZone: intent.Timezone,
		}
		event.End = &calendar.EventDateTime{
			DateTime: intent.End().Format(time.RFC3339),
			TimeZone: intent.Timezone,
		}
	}

	var named []string
	for _, attendee := range intent.Attendees {
		if strings.Contains(attendee, "@") {
			event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: attendee})
		} else {
			named = append(named, attendee)
		}
	}
	if len(named) > 0 {
		event.Description = "With: " + strings.Join(named, ", ")
	}
	return event
}

// Create books a new event for the intent.
func (p *GoogleProvider) Create(ctx context.Context, intent models.EventIntent) (*Event, error) {
	created, err := p.svc.Events.Insert(p.calendarID, eventBody(intent)).
		SendUpdates(p.sendUpdates).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return fromWire(created), nil
}

// FindByTitle locates the next upcoming event whose summary contains the
// title, case-insensitively.
func (p *GoogleProvider) FindByTitle(ctx context.Context, title string) (*Event, error) {
	list, err := p.svc.Events.List(p.calendarID).
		TimeMin(time.Now().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(50).
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(title)
	for _, item := range list.Items {
		if strings.Contains(strings.ToLower(item.Summary), needle) {
			return fromWire(item), nil
		}
	}
	return nil, ErrEventNotFound
}

// Move reschedules an existing event to the new time range.
func (p *GoogleProvider) Move(ctx context.Context, eventID string, start, end time.Time, allDay bool) (*Event, error) {
	event, err := p.svc.Events.Get(p.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	if allDay {
		event.Start = &calendar.EventDateTime{Date: start.Format("2006-01-02")}
		event.End = &calendar.EventDateTime{Date: end.Format("2006-01-02")}
	} else {
		event.Start = &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)}
		event.End = &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)}
	}

	updated, err := p.svc.Events.Update(p.calendarID, eventID, event).
		SendUpdates(p.sendUpdates).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return fromWire(updated), nil
}

// Cancel removes an existing event.
func (p *GoogleProvider) Cancel(ctx context.Context, eventID string) error {
	return p.svc.Events.Delete(p.calendarID, eventID).
		SendUpdates(p.sendUpdates).Context(ctx).Do()
}

// Conflicts lists existing events overlapping the time range.
func (p *GoogleProvider) Conflicts(ctx context.Context, start, end time.Time) ([]models.ConflictingEvent, error) {
	list, err := p.svc.Events.List(p.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	var conflicts []models.ConflictingEvent
	for _, item := range list.Items {
		e := fromWire(item)
		conflicts = append(conflicts, models.ConflictingEvent{
			EventID: e.ID,
			Summary: e.Summary,
			Start:   e.Start,
			End:     e.End,
		})
	}
	return conflicts, nil
}

// fromWire converts the calendar wire format to the provider-neutral Event.
func fromWire(event *calendar.Event) *Event {
	e := &Event{
		ID:       event.Id,
		Summary:  event.Summary,
		HTMLLink: event.HtmlLink,
	}
	e.Start, e.AllDay = parseWireTime(event.Start)
	e.End, _ = parseWireTime(event.End)
	return e
}

func parseWireTime(dt *calendar.EventDateTime) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.Date != "" {
		t, _ := time.Parse("2006-01-02", dt.Date)
		return t, true
	}
	t, _ := time.Parse(time.RFC3339, dt.DateTime)
	return t, false
}
