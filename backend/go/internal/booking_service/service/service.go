package service

import (
	"VoiceCalendarAI/backend/go/internal/booking_service/calendar"
	"VoiceCalendarAI/backend/go/internal/models"
	"VoiceCalendarAI/backend/go/pkg/logger"
	"context"
	"errors"
	"fmt"
)

// ResultPublisher defines the interface for publishing booking results.
type ResultPublisher interface {
	Publish(ctx context.Context, result models.BookingResult) error
	Close() error
}

// BookingService executes resolved calendar intents against the calendar
// provider and publishes the result of each command.
type BookingService struct {
	provider  calendar.Provider
	publisher ResultPublisher
	logger    *logger.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(provider calendar.Provider, publisher ResultPublisher, logger *logger.Logger) *BookingService {
	return &BookingService{
		provider:  provider,
		publisher: publisher,
		logger:    logger,
	}
}

// HandleRequest executes one booking request and publishes its result.
// Calendar failures become failed results, not handler errors: every
// consumed request produces exactly one result message.
func (s *BookingService) HandleRequest(ctx context.Context, req models.BookingRequest) error {
	result := s.execute(ctx, req)

	if err := s.publisher.Publish(ctx, result); err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"commandID": req.CommandID}).Error("Failed to publish booking result")
		return err
	}
	return nil
}

func (s *BookingService) execute(ctx context.Context, req models.BookingRequest) models.BookingResult {
	result := models.BookingResult{
		CommandID: req.CommandID,
		UserID:    req.UserID,
	}

	switch req.Intent.Intent {
	case models.IntentCreateEvent:
		s.create(ctx, req.Intent, &result)
	case models.IntentMoveEvent:
		s.move(ctx, req.Intent, &result)
	case models.IntentCancelEvent:
		s.cancel(ctx, req.Intent, &result)
	default:
		result.Status = models.BookingStatusFailed
		result.Error = fmt.Sprintf("unsupported intent %q", req.Intent.Intent)
	}

	if result.Status == models.BookingStatusFailed {
		s.logger.WithPayload(map[string]interface{}{
			"commandID": req.CommandID,
			"intent":    string(req.Intent.Intent),
			"reason":    result.Error,
		}).Warn("Booking request failed")
	}
	return result
}

// create books the event. Overlapping events are reported alongside the
// created event; the user resolves conflicts, not the service.
func (s *BookingService) create(ctx context.Context, intent models.EventIntent, result *models.BookingResult) {
	conflicts, err := s.provider.Conflicts(ctx, intent.Start, intent.End())
	if err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Conflict query failed, booking anyway")
	} else {
		result.Conflicts = conflicts
	}

	event, err := s.provider.Create(ctx, intent)
	if err != nil {
		result.Status = models.BookingStatusFailed
		result.Error = err.Error()
		return
	}
	result.Status = models.BookingStatusCreated
	result.EventID = event.ID
	result.HTMLLink = event.HTMLLink
}

func (s *BookingService) move(ctx context.Context, intent models.EventIntent, result *models.BookingResult) {
	target, err := s.provider.FindByTitle(ctx, intent.Title)
	if err != nil {
		result.Status = models.BookingStatusFailed
		result.Error = moveTargetError(err)
		return
	}

	event, err := s.provider.Move(ctx, target.ID, intent.Start, intent.End(), intent.AllDay)
	if err != nil {
		result.Status = models.BookingStatusFailed
		result.Error = err.Error()
		return
	}
	result.Status = models.BookingStatusMoved
	result.EventID = event.ID
	result.HTMLLink = event.HTMLLink
}

func (s *BookingService) cancel(ctx context.Context, intent models.EventIntent, result *models.BookingResult) {
	target, err := s.provider.FindByTitle(ctx, intent.Title)
	if err != nil {
		result.Status = models.BookingStatusFailed
		result.Error = moveTargetError(err)
		return
	}

	if err := s.provider.Cancel(ctx, target.ID); err != nil {
		result.Status = models.BookingStatusFailed
		result.Error = err.Error()
		return
	}
	result.Status = models.BookingStatusCancelled
	result.EventID = target.ID
}

func moveTargetError(err error) string {
	if errors.Is(err, calendar.ErrEventNotFound) {
		return calendar.ErrEventNotFound.Error()
	}
	return err.Error()
}
