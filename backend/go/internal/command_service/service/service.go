package service

import (
	"VoiceCalendarAI/backend/go/internal/command_service/cache"
	"VoiceCalendarAI/backend/go/internal/command_service/store"
	"VoiceCalendarAI/backend/go/internal/models"
	"VoiceCalendarAI/backend/go/pkg/logger"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
)

// Interpreter converts a transcript into an interpretation outcome.
type Interpreter interface {
	Interpret(ctx context.Context, req models.InterpretRequest) (*models.InterpretOutcome, error)
}

// IntentPublisher defines the interface for publishing booking requests.
type IntentPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// CommandService provides the core logic of the command pipeline: interpret
// a transcript, persist the command record, hand successful intents to the
// booking service, and push results back to the user.
type CommandService struct {
	store       store.CommandStore
	cache       cache.OutcomeCache
	interpreter Interpreter
	connManager *ConnectionManager
	publisher   IntentPublisher
	logger      *logger.Logger
}

// NewCommandService creates a new CommandService. The cache may be nil, in
// which case every request runs the interpreter.
func NewCommandService(store store.CommandStore, outcomes cache.OutcomeCache, interp Interpreter, connManager *ConnectionManager, publisher IntentPublisher, logger *logger.Logger) *CommandService {
	return &CommandService{
		store:       store,
		cache:       outcomes,
		interpreter: interp,
		connManager: connManager,
		publisher:   publisher,
		logger:      logger,
	}
}

// AddConnection registers a WebSocket connection for a user.
func (s *CommandService) AddConnection(userID string, conn *websocket.Conn) {
	s.connManager.Add(userID, conn)
	s.logger.Info("WebSocket connection added for user: " + userID)
}

// RemoveConnection removes a WebSocket connection for a user.
func (s *CommandService) RemoveConnection(userID string) {
	s.connManager.Remove(userID)
	s.logger.Info("WebSocket connection removed for user: " + userID)
}

// Interpret runs the interpreter for a transcript without entering the
// booking pipeline. Outcomes are served from the cache when possible.
func (s *CommandService) Interpret(ctx context.Context, req models.InterpretRequest) (*models.InterpretOutcome, error) {
	if req.Reference.IsZero() {
		req.Reference = time.Now()
	}

	if s.cache != nil {
		if outcome, ok := s.cache.Get(ctx, req); ok {
			return outcome, nil
		}
	}

	outcome, err := s.interpreter.Interpret(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, req, outcome); err != nil {
			s.logger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to cache interpretation outcome")
		}
	}
	return outcome, nil
}

// SubmitCommand runs the full pipeline for a transcript: persist the
// record, interpret, and either reject it with the parse failure or publish
// the intent for booking. The returned record reflects the state after
// submission; the booking result arrives later via HandleBookingResult.
func (s *CommandService) SubmitCommand(ctx context.Context, userID string, req models.InterpretRequest) (*models.CommandRecord, error) {
	if req.Reference.IsZero() {
		req.Reference = time.Now()
	}

	record := &models.CommandRecord{
		ID:          uuid.New().String(),
		UserID:      userID,
		Status:      models.CommandStatusPending,
		Transcript:  req.Transcript,
		Reference:   req.Reference,
		Timezone:    req.Timezone,
		SubmittedAt: time.Now(),
	}

	if err := s.store.Create(ctx, record); err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to create command record in store")
		return nil, err
	}

	outcome, err := s.Interpret(ctx, req)
	if err != nil {
		record.Status = models.CommandStatusFailed
		record.Error = err.Error()
		record.CompletedAt = time.Now()
		_ = s.store.Update(ctx, record)
		return nil, err
	}

	record.Outcome = outcome

	if !outcome.OK() {
		// A parse failure is a terminal answer, not a pipeline error.
		record.Status = models.CommandStatusRejected
		record.CompletedAt = time.Now()
		if err := s.store.Update(ctx, record); err != nil {
			s.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"commandID": record.ID}).Error("Failed to update rejected command record")
			return nil, err
		}
		return record, nil
	}

	request := models.BookingRequest{
		CommandID: record.ID,
		UserID:    userID,
		Intent:    *outcome.Intent,
	}
	if err := s.publisher.Publish(ctx, record.ID, request); err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to publish booking request to Kafka")
		record.Status = models.CommandStatusFailed
		record.Error = "Failed to publish booking request"
		record.CompletedAt = time.Now()
		_ = s.store.Update(ctx, record)
		return nil, err
	}

	if err := s.store.Update(ctx, record); err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"commandID": record.ID}).Error("Failed to update command record")
		return nil, err
	}
	return record, nil
}

// HandleBookingResult processes a booking result received from Kafka:
// finalizes the command record and pushes the result to the user.
func (s *CommandService) HandleBookingResult(msg kafka.Message) error {
	var result models.BookingResult
	if err := json.Unmarshal(msg.Value, &result); err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to unmarshal booking result from Kafka")
		return err
	}

	record, err := s.store.GetByID(context.Background(), result.CommandID)
	if err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"commandID": result.CommandID}).Error("Error getting command record by ID")
		return err
	}
	if record == nil {
		s.logger.WithPayload(map[string]interface{}{"commandID": result.CommandID}).Warn("Received booking result for unknown command ID")
		return nil
	}

	record.Booking = &result
	record.Error = result.Error
	record.CompletedAt = time.Now()
	if result.Status == models.BookingStatusFailed {
		record.Status = models.CommandStatusFailed
	} else {
		record.Status = models.CommandStatusBooked
	}

	if err := s.store.Update(context.Background(), record); err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"commandID": record.ID}).Error("Failed to update command record with booking result")
		return err
	}

	s.connManager.Send(record.UserID, msg.Value)
	return nil
}

// GetCommandByID retrieves a single command record by its ID for a specific
// user. Records belonging to other users are reported as not found.
func (s *CommandService) GetCommandByID(ctx context.Context, commandID, userID string) (*models.CommandRecord, error) {
	record, err := s.store.GetByID(ctx, commandID)
	if err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"commandID": commandID}).Error("Failed to get command record from store")
		return nil, err
	}
	if record != nil && record.UserID != userID {
		s.logger.WithPayload(map[string]interface{}{"commandID": commandID, "requestingUserID": userID}).Warn("User attempted to access unauthorized command")
		return nil, nil
	}
	return record, nil
}

// GetUserCommands retrieves the command history for a user with pagination.
func (s *CommandService) GetUserCommands(ctx context.Context, userID string, page, limit int) ([]*models.CommandRecord, error) {
	records, err := s.store.GetByUserID(ctx, userID, page, limit)
	if err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"userID": userID}).Error("Failed to get user commands from store")
		return nil, err
	}
	return records, nil
}
