package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"VoiceCalendarAI/backend/go/internal/command_service/service"
	"VoiceCalendarAI/backend/go/internal/models"
	"VoiceCalendarAI/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

const testSecret = "test-secret"

type memStore struct {
	records map[string]*models.CommandRecord
}

func (s *memStore) Create(ctx context.Context, r *models.CommandRecord) error {
	s.records[r.ID] = r
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id string) (*models.CommandRecord, error) {
	return s.records[id], nil
}

func (s *memStore) GetByUserID(ctx context.Context, userID string, page, limit int) ([]*models.CommandRecord, error) {
	var out []*models.CommandRecord
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) Update(ctx context.Context, r *models.CommandRecord) error {
	s.records[r.ID] = r
	return nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, key string, value interface{}) error { return nil }
func (nopPublisher) Close() error                                                     { return nil }

type stubInterpreter struct {
	outcome *models.InterpretOutcome
}

func (s *stubInterpreter) Interpret(ctx context.Context, req models.InterpretRequest) (*models.InterpretOutcome, error) {
	return s.outcome, nil
}

type stubLimiter struct{ allow bool }

func (l stubLimiter) Allow() bool { return l.allow }

func newTestRouter(t *testing.T, outcome *models.InterpretOutcome, allow bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.New("command_api_test", "", "")
	svc := service.NewCommandService(
		&memStore{records: map[string]*models.CommandRecord{}},
		nil,
		&stubInterpreter{outcome: outcome},
		service.NewConnectionManager(),
		nopPublisher{},
		log,
	)
	health := service.NewHealthChecker(map[string]service.ComponentCheck{
		"self": func(ctx context.Context) error { return nil },
	})

	router := gin.New()
	RegisterRoutes(router, NewAPI(svc, health, log), testSecret, stubLimiter{allow: allow})
	return router
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return "Bearer " + token
}

func postJSON(t *testing.T, router *gin.Engine, path, auth string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestInterpretEndpoint(t *testing.T) {
	outcome := &models.InterpretOutcome{Intent: &models.EventIntent{
		Intent:          models.IntentCreateEvent,
		Title:           "meeting with John",
		Start:           time.Date(2026, time.March, 6, 15, 0, 0, 0, time.UTC),
		DurationMinutes: 45,
		Source:          models.SourceLLM,
	}}
	router := newTestRouter(t, outcome, true)

	w := postJSON(t, router, "/api/v1/interpret", bearerToken(t, "user-1"), map[string]string{
		"transcript": "Schedule a meeting with John next Friday at 3 PM for 45 minutes",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var got models.InterpretOutcome
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !got.OK() || got.Intent.Title != "meeting with John" {
		t.Errorf("outcome = %+v", got)
	}
}

// A parse failure is a valid answer, not an HTTP error.
func TestInterpretEndpointParseFailure(t *testing.T) {
	outcome := &models.InterpretOutcome{Failure: &models.ParseFailure{
		Reason: models.FailureMissingStart,
		Field:  "start",
	}}
	router := newTestRouter(t, outcome, true)

	w := postJSON(t, router, "/api/v1/interpret", bearerToken(t, "user-1"), map[string]string{
		"transcript": "set something up sometime",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var got models.InterpretOutcome
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.OK() || got.Failure == nil || got.Failure.Field != "start" {
		t.Errorf("outcome = %+v", got)
	}
}

func TestSubmitCommandEndpoint(t *testing.T) {
	outcome := &models.InterpretOutcome{Intent: &models.EventIntent{
		Intent: models.IntentCreateEvent,
		Title:  "standup",
		Start:  time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC),
		Source: models.SourceFallback,
	}}
	router := newTestRouter(t, outcome, true)

	w := postJSON(t, router, "/api/v1/commands", bearerToken(t, "user-1"), map[string]string{
		"transcript": "standup tomorrow at 9 am",
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var record models.CommandRecord
	if err := json.Unmarshal(w.Body.Bytes(), &record); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if record.ID == "" || record.Status != models.CommandStatusPending {
		t.Errorf("record = %+v", record)
	}
	if record.UserID != "user-1" {
		t.Errorf("userID = %q, want user-1", record.UserID)
	}
}

func TestAuthRequired(t *testing.T) {
	router := newTestRouter(t, nil, true)

	w := postJSON(t, router, "/api/v1/interpret", "", map[string]string{"transcript": "anything"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", w.Code)
	}

	w = postJSON(t, router, "/api/v1/interpret", "Bearer not-a-token", map[string]string{"transcript": "anything"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status with bad token = %d, want 401", w.Code)
	}
}

func TestRateLimited(t *testing.T) {
	router := newTestRouter(t, nil, false)

	w := postJSON(t, router, "/api/v1/interpret", bearerToken(t, "user-1"), map[string]string{"transcript": "anything"})
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, nil, true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var report map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if report["self"] != "ok" {
		t.Errorf("report = %v", report)
	}
}
