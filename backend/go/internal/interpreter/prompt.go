package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"VoiceCalendarAI/backend/go/internal/models"
)

// Primary path: extraction through the configured language model. The
// response carries no guaranteed schema and is parsed defensively; anything
// that does not yield a resolvable start time is treated as malformed and
// sent down the fallback path by the caller.

const systemPromptFormat = `You are a calendar assistant. The current date and time is %s (%s, %s).
Extract the calendar command from the user's utterance and respond with a single JSON object with these fields:
  "intent": one of "CreateEvent", "MoveEvent", "CancelEvent"
  "title": a short event title
  "start": the start as an ISO-8601 date-time with UTC offset, or a plain date (YYYY-MM-DD) for all-day events
  "duration_minutes": integer duration, omitted when the utterance does not state one
  "attendees": array of attendee names or e-mail addresses, omitted when there are none
  "timezone": the IANA timezone of the start time
Resolve relative expressions like "tomorrow" or "next Friday" against the current date. Never produce dates in the past. If the utterance does not say when, omit "start" entirely. Respond with JSON only.`

func systemPrompt(ref time.Time) string {
	return fmt.Sprintf(systemPromptFormat, ref.Format("2006-01-02 15:04:05"), ref.Weekday(), ref.Location())
}

func userPrompt(transcript string) string {
	return "Utterance: " + transcript
}

// modelResponse is the expected shape of the model's JSON reply. Every
// field is optional at the wire level; validation happens afterwards.
type modelResponse struct {
	Intent          string   `json:"intent"`
	Title           string   `json:"title"`
	Start           string   `json:"start"`
	End             string   `json:"end"`
	DurationMinutes flexInt  `json:"duration_minutes"`
	Attendees       []string `json:"attendees"`
	Timezone        string   `json:"timezone"`
}

// flexInt tolerates models that quote numbers.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	var n int
	if err := json.Unmarshal([]byte(s), &n); err != nil {
		*f = 0
		return nil // unusable value, not a hard failure
	}
	*f = flexInt(n)
	return nil
}

// llmExtract runs the primary path: prompt the model inside the circuit
// breaker and the configured timeout, then defensively parse and normalize
// the reply. Any returned error routes the request to the fallback path.
func (i *Interpreter) llmExtract(ctx context.Context, req models.InterpretRequest, ref time.Time) (*models.InterpretOutcome, error) {
	cctx, cancel := context.WithTimeout(ctx, i.cfg.LLMTimeout)
	defer cancel()

	generate := func() (interface{}, error) {
		return i.llm.Generate(cctx, systemPrompt(ref), userPrompt(req.Transcript))
	}

	var raw string
	if i.breaker != nil {
		v, err := i.breaker.Execute(generate)
		if err != nil {
			return nil, err
		}
		raw = v.(string)
	} else {
		v, err := generate()
		if err != nil {
			return nil, err
		}
		raw = v.(string)
	}

	resp, err := parseModelResponse(raw)
	if err != nil {
		return nil, err
	}

	start, allDay, err := parseModelStart(resp.Start, ref.Location())
	if err != nil {
		return nil, err
	}
	start = reanchor(start, allDay, req.Transcript, ref)

	intent := &models.EventIntent{
		Intent:    normalizeIntent(resp.Intent),
		Title:     resp.Title,
		Start:     start,
		AllDay:    allDay,
		Attendees: resp.Attendees,
	}
	if intent.Title == "" {
		intent.Title = deriveTitle(req.Transcript)
	}
	if len(intent.Attendees) == 0 {
		intent.Attendees = resolveAttendees(req.Transcript)
	}
	if !allDay {
		intent.DurationMinutes = i.modelDuration(resp, req.Transcript, start)
	}

	return i.outcome(intent, models.SourceLLM, ref), nil
}

// parseModelResponse locates and decodes the JSON object in the raw model
// output, tolerating code fences and prose around it.
func parseModelResponse(raw string) (*modelResponse, error) {
	begin := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if begin < 0 || end <= begin {
		return nil, fmt.Errorf("malformed model response: no JSON object found")
	}

	var resp modelResponse
	if err := json.Unmarshal([]byte(raw[begin:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("malformed model response: %w", err)
	}
	if resp.Start == "" {
		return nil, fmt.Errorf("malformed model response: no start time")
	}
	return &resp, nil
}

// Formats the models have been observed to produce, tried in order.
var modelStartFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseModelStart parses the model's start value. A bare date means an
// all-day event.
func parseModelStart(value string, loc *time.Location) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, true, nil
	}
	for _, format := range modelStartFormats {
		if t, err := time.ParseInLocation(format, value, loc); err == nil {
			return t.In(loc), false, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("malformed model response: unparseable start %q", value)
}

// reanchor corrects start dates the model resolved against a stale notion
// of "now". Future starts are trusted as-is. For a stale start, a date
// expression our own rules understand wins; failing that the clock time is
// advanced to its nearest future occurrence.
func reanchor(start time.Time, allDay bool, transcript string, ref time.Time) time.Time {
	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	if allDay && !start.Before(refDay) {
		return start
	}
	if start.After(ref) {
		return start
	}

	if date, ok := resolveDate(transcript, ref); ok {
		if allDay {
			return date
		}
		return time.Date(date.Year(), date.Month(), date.Day(), start.Hour(), start.Minute(), 0, 0, ref.Location())
	}

	if allDay {
		return time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location()).AddDate(0, 0, 1)
	}
	corrected := time.Date(ref.Year(), ref.Month(), ref.Day(), start.Hour(), start.Minute(), 0, 0, ref.Location())
	if !corrected.After(ref) {
		corrected = corrected.AddDate(0, 0, 1)
	}
	return corrected
}

// modelDuration picks the event duration: the model's value, then the
// model's end time, then the transcript's own wording, then the default.
func (i *Interpreter) modelDuration(resp *modelResponse, transcript string, start time.Time) int {
	if resp.DurationMinutes > 0 {
		return int(resp.DurationMinutes)
	}
	if resp.End != "" {
		if end, _, err := parseModelStart(resp.End, start.Location()); err == nil && end.After(start) {
			return int(end.Sub(start) / time.Minute)
		}
	}
	if minutes, ok := resolveDuration(transcript); ok {
		return minutes
	}
	return i.cfg.DefaultDurationMinutes
}

// normalizeIntent maps the model's free-form intent label onto the known
// operations, defaulting to creation.
func normalizeIntent(label string) models.IntentType {
	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "cancel") || strings.Contains(lower, "delete"):
		return models.IntentCancelEvent
	case strings.Contains(lower, "move") || strings.Contains(lower, "reschedule"):
		return models.IntentMoveEvent
	default:
		return models.IntentCreateEvent
	}
}
