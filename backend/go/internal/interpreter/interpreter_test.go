package interpreter

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"VoiceCalendarAI/backend/go/internal/models"
	"VoiceCalendarAI/backend/go/pkg/circuitbreaker"
)

// fakeLLM is a scripted LLM client for exercising both interpretation paths.
type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Generate(ctx context.Context, system, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestInterpreter(t *testing.T, client *fakeLLM) *Interpreter {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	cfg := Config{
		Location:               loc,
		DefaultDurationMinutes: 30,
		BusinessHoursStart:     8,
		BusinessHoursEnd:       18,
		LLMTimeout:             time.Second,
	}
	if client == nil {
		return New(nil, nil, cfg, nil)
	}
	return New(client, nil, cfg, nil)
}

// refMonday is a known Monday morning used as the reference timestamp.
func refMonday(t *testing.T) time.Time {
	t.Helper()
	loc, _ := time.LoadLocation("America/New_York")
	ref := time.Date(2026, time.March, 2, 10, 0, 0, 0, loc)
	if ref.Weekday() != time.Monday {
		t.Fatalf("reference is %v, expected Monday", ref.Weekday())
	}
	return ref
}

func interpret(t *testing.T, i *Interpreter, transcript string, ref time.Time) *models.InterpretOutcome {
	t.Helper()
	out, err := i.Interpret(context.Background(), models.InterpretRequest{
		Transcript: transcript,
		Reference:  ref,
	})
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	return out
}

func TestInterpretLLMPathExample(t *testing.T) {
	client := &fakeLLM{response: `{
		"intent": "CreateEvent",
		"title": "meeting with John",
		"start": "2026-03-06T15:00:00-05:00",
		"duration_minutes": 45,
		"attendees": ["John"],
		"timezone": "America/New_York"
	}`}
	i := newTestInterpreter(t, client)
	ref := refMonday(t)

	out := interpret(t, i, "Schedule a meeting with John next Friday at 3 PM for 45 minutes", ref)
	if !out.OK() {
		t.Fatalf("expected EventIntent, got failure %+v", out.Failure)
	}
	intent := out.Intent
	if intent.Source != models.SourceLLM {
		t.Errorf("source = %q, want %q", intent.Source, models.SourceLLM)
	}
	wantStart := time.Date(2026, time.March, 6, 15, 0, 0, 0, ref.Location())
	if !intent.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", intent.Start, wantStart)
	}
	if intent.DurationMinutes != 45 {
		t.Errorf("duration = %d, want 45", intent.DurationMinutes)
	}
	if len(intent.Attendees) == 0 || intent.Attendees[0] != "John" {
		t.Errorf("attendees = %v, want John included", intent.Attendees)
	}
	if intent.Title != "meeting with John" {
		t.Errorf("title = %q, want %q", intent.Title, "meeting with John")
	}
}

// The same transcript through the fallback path must resolve the explicit
// values identically.
func TestInterpretFallbackActivation(t *testing.T) {
	client := &fakeLLM{err: errors.New("connection refused")}
	i := newTestInterpreter(t, client)
	ref := refMonday(t)

	out := interpret(t, i, "Schedule a meeting with John next Friday at 3 PM for 45 minutes", ref)
	if !out.OK() {
		t.Fatalf("expected EventIntent, got failure %+v", out.Failure)
	}
	intent := out.Intent
	if intent.Source != models.SourceFallback {
		t.Errorf("source = %q, want %q", intent.Source, models.SourceFallback)
	}
	wantStart := time.Date(2026, time.March, 6, 15, 0, 0, 0, ref.Location())
	if !intent.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", intent.Start, wantStart)
	}
	if intent.DurationMinutes != 45 {
		t.Errorf("duration = %d, want 45", intent.DurationMinutes)
	}
	if len(intent.Attendees) == 0 || intent.Attendees[0] != "John" {
		t.Errorf("attendees = %v, want John included", intent.Attendees)
	}
	if intent.Title != "meeting with John" {
		t.Errorf("title = %q, want %q", intent.Title, "meeting with John")
	}
	if client.calls != 1 {
		t.Errorf("LLM calls = %d, want 1", client.calls)
	}
}

// A transcript without any start expression must always produce a
// ParseFailure, never an intent with a guessed time.
func TestInterpretMissingStart(t *testing.T) {
	for name, client := range map[string]*fakeLLM{
		"llm unavailable":  {err: errors.New("timeout")},
		"llm omits start":  {response: `{"intent": "CreateEvent", "title": "something"}`},
		"llm returns junk": {response: "I could not understand the request."},
	} {
		t.Run(name, func(t *testing.T) {
			i := newTestInterpreter(t, client)
			out := interpret(t, i, "set something up sometime", refMonday(t))
			if out.OK() {
				t.Fatalf("expected ParseFailure, got intent %+v", out.Intent)
			}
			if out.Failure.Reason != models.FailureMissingStart {
				t.Errorf("reason = %q, want %q", out.Failure.Reason, models.FailureMissingStart)
			}
			if out.Failure.Field != "start" {
				t.Errorf("field = %q, want %q", out.Failure.Field, "start")
			}
		})
	}
}

func TestInterpretIdempotent(t *testing.T) {
	i := newTestInterpreter(t, &fakeLLM{err: errors.New("down")})
	ref := refMonday(t)

	first := interpret(t, i, "lunch with Mary tomorrow at noon", ref)
	second := interpret(t, i, "lunch with Mary tomorrow at noon", ref)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("outcomes differ:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestInterpretEmptyTranscript(t *testing.T) {
	i := newTestInterpreter(t, nil)
	out := interpret(t, i, "   ", refMonday(t))
	if out.OK() {
		t.Fatalf("expected ParseFailure for empty transcript")
	}
	if out.Failure.Reason != models.FailureEmptyInput {
		t.Errorf("reason = %q, want %q", out.Failure.Reason, models.FailureEmptyInput)
	}
}

func TestInterpretInvalidTimezone(t *testing.T) {
	i := newTestInterpreter(t, nil)
	_, err := i.Interpret(context.Background(), models.InterpretRequest{
		Transcript: "meeting tomorrow at 10",
		Reference:  refMonday(t),
		Timezone:   "Mars/Olympus_Mons",
	})
	if err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

// A stale date from the model is re-anchored against the reference
// timestamp using the transcript's own date expression.
func TestInterpretStaleModelDate(t *testing.T) {
	client := &fakeLLM{response: `{
		"intent": "CreateEvent",
		"title": "meeting",
		"start": "2023-03-10T15:00:00-05:00",
		"duration_minutes": 60
	}`}
	i := newTestInterpreter(t, client)
	ref := refMonday(t)

	out := interpret(t, i, "meeting tomorrow at 3 pm for an hour", ref)
	if !out.OK() {
		t.Fatalf("expected EventIntent, got failure %+v", out.Failure)
	}
	wantStart := time.Date(2026, time.March, 3, 15, 0, 0, 0, ref.Location())
	if !out.Intent.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", out.Intent.Start, wantStart)
	}
	if out.Intent.Source != models.SourceLLM {
		t.Errorf("source = %q, want %q", out.Intent.Source, models.SourceLLM)
	}
}

func TestInterpretDefaultDuration(t *testing.T) {
	i := newTestInterpreter(t, &fakeLLM{err: errors.New("down")})
	out := interpret(t, i, "team sync tomorrow at 10 am", refMonday(t))
	if !out.OK() {
		t.Fatalf("expected EventIntent, got failure %+v", out.Failure)
	}
	if out.Intent.DurationMinutes != 30 {
		t.Errorf("duration = %d, want default 30", out.Intent.DurationMinutes)
	}
}

// Bare hours resolve through the business-hours policy.
func TestInterpretBusinessHoursPolicy(t *testing.T) {
	i := newTestInterpreter(t, &fakeLLM{err: errors.New("down")})
	ref := refMonday(t)

	cases := []struct {
		transcript string
		wantHour   int
	}{
		{"meeting tomorrow at 3", 15}, // before the window opens: afternoon
		{"meeting tomorrow at 9", 9},  // inside the window: as spoken
		{"meeting tomorrow at 15:00", 15},
	}
	for _, tc := range cases {
		out := interpret(t, i, tc.transcript, ref)
		if !out.OK() {
			t.Fatalf("%q: expected EventIntent, got failure %+v", tc.transcript, out.Failure)
		}
		if out.Intent.Start.Hour() != tc.wantHour {
			t.Errorf("%q: hour = %d, want %d", tc.transcript, out.Intent.Start.Hour(), tc.wantHour)
		}
	}
}

func TestInterpretTimeWithoutDate(t *testing.T) {
	i := newTestInterpreter(t, &fakeLLM{err: errors.New("down")})
	ref := refMonday(t) // 10:00

	// Later today stays today.
	out := interpret(t, i, "call with Bob at 4 pm", ref)
	if !out.OK() {
		t.Fatalf("expected EventIntent, got failure %+v", out.Failure)
	}
	want := time.Date(2026, time.March, 2, 16, 0, 0, 0, ref.Location())
	if !out.Intent.Start.Equal(want) {
		t.Errorf("start = %v, want %v", out.Intent.Start, want)
	}

	// Already past today rolls to tomorrow.
	out = interpret(t, i, "call with Bob at 9 am", ref)
	if !out.OK() {
		t.Fatalf("expected EventIntent, got failure %+v", out.Failure)
	}
	want = time.Date(2026, time.March, 3, 9, 0, 0, 0, ref.Location())
	if !out.Intent.Start.Equal(want) {
		t.Errorf("start = %v, want %v", out.Intent.Start, want)
	}
}

func TestInterpretAllDayEvent(t *testing.T) {
	i := newTestInterpreter(t, &fakeLLM{err: errors.New("down")})
	out := interpret(t, i, "add a dentist appointment on September 6th", refMonday(t))
	if !out.OK() {
		t.Fatalf("expected EventIntent, got failure %+v", out.Failure)
	}
	if !out.Intent.AllDay {
		t.Error("expected an all-day event")
	}
	want := time.Date(2026, time.September, 6, 0, 0, 0, 0, out.Intent.Start.Location())
	if !out.Intent.Start.Equal(want) {
		t.Errorf("start = %v, want %v", out.Intent.Start, want)
	}
}

func TestInterpretCancelIntent(t *testing.T) {
	i := newTestInterpreter(t, &fakeLLM{err: errors.New("down")})
	out := interpret(t, i, "cancel my meeting with John", refMonday(t))
	if !out.OK() {
		t.Fatalf("expected EventIntent, got failure %+v", out.Failure)
	}
	if out.Intent.Intent != models.IntentCancelEvent {
		t.Errorf("intent = %q, want %q", out.Intent.Intent, models.IntentCancelEvent)
	}
}

// An open circuit must route requests to the fallback without touching the
// LLM client again.
func TestInterpretOpenCircuitUsesFallback(t *testing.T) {
	client := &fakeLLM{err: errors.New("connection refused")}
	loc, _ := time.LoadLocation("America/New_York")
	cfg := Config{
		Location:               loc,
		DefaultDurationMinutes: 30,
		BusinessHoursStart:     8,
		BusinessHoursEnd:       18,
		LLMTimeout:             time.Second,
	}
	breaker := circuitbreaker.New(1, 1, time.Minute)
	i := New(client, breaker, cfg, nil)
	ref := refMonday(t)

	// First call fails and trips the breaker.
	out := interpret(t, i, "standup tomorrow at 9 am", ref)
	if !out.OK() || out.Intent.Source != models.SourceFallback {
		t.Fatalf("expected fallback intent, got %+v", out)
	}
	calls := client.calls

	// Second call: circuit open, LLM client untouched, fallback still works.
	out = interpret(t, i, "standup tomorrow at 9 am", ref)
	if !out.OK() || out.Intent.Source != models.SourceFallback {
		t.Fatalf("expected fallback intent, got %+v", out)
	}
	if client.calls != calls {
		t.Errorf("LLM calls = %d, want %d (circuit should be open)", client.calls, calls)
	}
}

func TestInterpretFallbackOnly(t *testing.T) {
	i := newTestInterpreter(t, nil) // no LLM client configured
	out := interpret(t, i, "dinner with alice@example.com on friday at 7 pm", refMonday(t))
	if !out.OK() {
		t.Fatalf("expected EventIntent, got failure %+v", out.Failure)
	}
	if out.Intent.Source != models.SourceFallback {
		t.Errorf("source = %q, want %q", out.Intent.Source, models.SourceFallback)
	}
	want := time.Date(2026, time.March, 6, 19, 0, 0, 0, out.Intent.Start.Location())
	if !out.Intent.Start.Equal(want) {
		t.Errorf("start = %v, want %v", out.Intent.Start, want)
	}
	found := false
	for _, a := range out.Intent.Attendees {
		if a == "alice@example.com" {
			found = true
		}
	}
	if !found {
		t.Errorf("attendees = %v, want alice@example.com included", out.Intent.Attendees)
	}
}
