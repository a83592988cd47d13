package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"VoiceCalendarAI/backend/go/internal/models"
	"VoiceCalendarAI/backend/go/pkg/logger"

	"github.com/segmentio/kafka-go"
)

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*models.CommandRecord
	failOn  string // method name that should return an error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*models.CommandRecord)}
}

func (s *fakeStore) Create(ctx context.Context, record *models.CommandRecord) error {
	if s.failOn == "Create" {
		return errors.New("store unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *record
	s.records[record.ID] = &clone
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*models.CommandRecord, error) {
	if s.failOn == "GetByID" {
		return nil, errors.New("store unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (s *fakeStore) GetByUserID(ctx context.Context, userID string, page, limit int) ([]*models.CommandRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []*models.CommandRecord
	for _, r := range s.records {
		if r.UserID == userID {
			clone := *r
			records = append(records, &clone)
		}
	}
	return records, nil
}

func (s *fakeStore) Update(ctx context.Context, record *models.CommandRecord) error {
	if s.failOn == "Update" {
		return errors.New("store unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *record
	s.records[record.ID] = &clone
	return nil
}

type fakePublisher struct {
	published []models.BookingRequest
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, value.(models.BookingRequest))
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeInterpreter struct {
	outcome *models.InterpretOutcome
	err     error
	calls   int
}

func (f *fakeInterpreter) Interpret(ctx context.Context, req models.InterpretRequest) (*models.InterpretOutcome, error) {
	f.calls++
	return f.outcome, f.err
}

type fakeCache struct {
	outcome *models.InterpretOutcome
	sets    int
}

func (c *fakeCache) Get(ctx context.Context, req models.InterpretRequest) (*models.InterpretOutcome, bool) {
	return c.outcome, c.outcome != nil
}

func (c *fakeCache) Set(ctx context.Context, req models.InterpretRequest, outcome *models.InterpretOutcome) error {
	c.sets++
	c.outcome = outcome
	return nil
}

func goodOutcome() *models.InterpretOutcome {
	return &models.InterpretOutcome{Intent: &models.EventIntent{
		Intent:          models.IntentCreateEvent,
		Title:           "meeting with John",
		Start:           time.Date(2026, time.March, 6, 15, 0, 0, 0, time.UTC),
		DurationMinutes: 45,
		Source:          models.SourceLLM,
	}}
}

func rejectedOutcome() *models.InterpretOutcome {
	return &models.InterpretOutcome{Failure: &models.ParseFailure{
		Reason: models.FailureMissingStart,
		Field:  "start",
	}}
}

func newTestService(store *fakeStore, c *fakeCache, interp *fakeInterpreter, pub *fakePublisher) *CommandService {
	log := logger.New("command_service_test", "", "")
	if c == nil {
		return NewCommandService(store, nil, interp, NewConnectionManager(), pub, log)
	}
	return NewCommandService(store, c, interp, NewConnectionManager(), pub, log)
}

func TestSubmitCommandPublishesIntent(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(store, nil, &fakeInterpreter{outcome: goodOutcome()}, pub)

	record, err := svc.SubmitCommand(context.Background(), "user-1", models.InterpretRequest{
		Transcript: "meeting with John next Friday at 3 pm",
	})
	if err != nil {
		t.Fatalf("SubmitCommand() error = %v", err)
	}
	if record.Status != models.CommandStatusPending {
		t.Errorf("status = %q, want %q", record.Status, models.CommandStatusPending)
	}
	if record.Outcome == nil || !record.Outcome.OK() {
		t.Fatalf("record outcome not attached: %+v", record.Outcome)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published %d booking requests, want 1", len(pub.published))
	}
	req := pub.published[0]
	if req.CommandID != record.ID || req.UserID != "user-1" {
		t.Errorf("booking request = %+v, want command %s for user-1", req, record.ID)
	}
	if req.Intent.Title != "meeting with John" {
		t.Errorf("intent title = %q", req.Intent.Title)
	}

	stored, _ := store.GetByID(context.Background(), record.ID)
	if stored == nil || stored.Status != models.CommandStatusPending {
		t.Errorf("stored record = %+v, want pending", stored)
	}
}

func TestSubmitCommandRejectsParseFailure(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(store, nil, &fakeInterpreter{outcome: rejectedOutcome()}, pub)

	record, err := svc.SubmitCommand(context.Background(), "user-1", models.InterpretRequest{
		Transcript: "set something up sometime",
	})
	if err != nil {
		t.Fatalf("SubmitCommand() error = %v", err)
	}
	if record.Status != models.CommandStatusRejected {
		t.Errorf("status = %q, want %q", record.Status, models.CommandStatusRejected)
	}
	if record.CompletedAt.IsZero() {
		t.Error("rejected record has no completion time")
	}
	if len(pub.published) != 0 {
		t.Errorf("published %d booking requests for a rejected command", len(pub.published))
	}
}

func TestSubmitCommandPublishFailure(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{err: errors.New("kafka down")}
	svc := newTestService(store, nil, &fakeInterpreter{outcome: goodOutcome()}, pub)

	_, err := svc.SubmitCommand(context.Background(), "user-1", models.InterpretRequest{
		Transcript: "meeting tomorrow at 10",
	})
	if err == nil {
		t.Fatal("expected error when publishing fails")
	}

	var stored *models.CommandRecord
	for _, r := range store.records {
		stored = r
	}
	if stored == nil || stored.Status != models.CommandStatusFailed {
		t.Errorf("stored record = %+v, want failed", stored)
	}
}

func TestHandleBookingResult(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil, &fakeInterpreter{outcome: goodOutcome()}, &fakePublisher{})

	record, err := svc.SubmitCommand(context.Background(), "user-1", models.InterpretRequest{
		Transcript: "meeting tomorrow at 10",
	})
	if err != nil {
		t.Fatalf("SubmitCommand() error = %v", err)
	}

	result := models.BookingResult{
		CommandID: record.ID,
		UserID:    "user-1",
		Status:    models.BookingStatusCreated,
		EventID:   "evt-42",
		HTMLLink:  "https://calendar.example.com/evt-42",
	}
	value, _ := json.Marshal(result)
	if err := svc.HandleBookingResult(kafka.Message{Value: value}); err != nil {
		t.Fatalf("HandleBookingResult() error = %v", err)
	}

	stored, _ := store.GetByID(context.Background(), record.ID)
	if stored.Status != models.CommandStatusBooked {
		t.Errorf("status = %q, want %q", stored.Status, models.CommandStatusBooked)
	}
	if stored.Booking == nil || stored.Booking.EventID != "evt-42" {
		t.Errorf("booking = %+v, want event evt-42", stored.Booking)
	}
}

func TestHandleBookingResultFailure(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil, &fakeInterpreter{outcome: goodOutcome()}, &fakePublisher{})

	record, _ := svc.SubmitCommand(context.Background(), "user-1", models.InterpretRequest{
		Transcript: "meeting tomorrow at 10",
	})

	result := models.BookingResult{
		CommandID: record.ID,
		UserID:    "user-1",
		Status:    models.BookingStatusFailed,
		Error:     "calendar API unreachable",
	}
	value, _ := json.Marshal(result)
	if err := svc.HandleBookingResult(kafka.Message{Value: value}); err != nil {
		t.Fatalf("HandleBookingResult() error = %v", err)
	}

	stored, _ := store.GetByID(context.Background(), record.ID)
	if stored.Status != models.CommandStatusFailed {
		t.Errorf("status = %q, want %q", stored.Status, models.CommandStatusFailed)
	}
	if stored.Error != "calendar API unreachable" {
		t.Errorf("error = %q", stored.Error)
	}
}

func TestHandleBookingResultUnknownCommand(t *testing.T) {
	svc := newTestService(newFakeStore(), nil, &fakeInterpreter{outcome: goodOutcome()}, &fakePublisher{})

	value, _ := json.Marshal(models.BookingResult{CommandID: "missing", Status: models.BookingStatusCreated})
	if err := svc.HandleBookingResult(kafka.Message{Value: value}); err != nil {
		t.Errorf("unknown command should not be an error, got %v", err)
	}
}

func TestInterpretUsesCache(t *testing.T) {
	interp := &fakeInterpreter{outcome: goodOutcome()}
	c := &fakeCache{}
	svc := newTestService(newFakeStore(), c, interp, &fakePublisher{})
	req := models.InterpretRequest{Transcript: "meeting tomorrow at 10", Reference: time.Now()}

	first, err := svc.Interpret(context.Background(), req)
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	if c.sets != 1 {
		t.Errorf("cache sets = %d, want 1", c.sets)
	}

	second, err := svc.Interpret(context.Background(), req)
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	if interp.calls != 1 {
		t.Errorf("interpreter calls = %d, want 1 (second hit served from cache)", interp.calls)
	}
	if first.Intent.Title != second.Intent.Title {
		t.Errorf("cached outcome differs: %q vs %q", first.Intent.Title, second.Intent.Title)
	}
}

func TestGetCommandByIDAuthorization(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil, &fakeInterpreter{outcome: goodOutcome()}, &fakePublisher{})

	record, _ := svc.SubmitCommand(context.Background(), "owner", models.InterpretRequest{
		Transcript: "meeting tomorrow at 10",
	})

	got, err := svc.GetCommandByID(context.Background(), record.ID, "intruder")
	if err != nil {
		t.Fatalf("GetCommandByID() error = %v", err)
	}
	if got != nil {
		t.Error("record leaked to a different user")
	}
}
