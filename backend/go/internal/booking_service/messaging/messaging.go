package messaging

import (
	"VoiceCalendarAI/backend/go/internal/models"
	"VoiceCalendarAI/backend/go/pkg/logger"
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
)

// IntentConsumer consumes booking requests from the intents topic.
type IntentConsumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

// NewIntentConsumer creates a new IntentConsumer.
func NewIntentConsumer(brokers []string, topic, groupID string, logger *logger.Logger) *IntentConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &IntentConsumer{
		reader: reader,
		logger: logger,
	}
}

// Start consumes booking requests until the context is cancelled. Requests
// that cannot be decoded are logged and committed; replaying them cannot
// make them decodable.
func (c *IntentConsumer) Start(ctx context.Context, handler func(ctx context.Context, req models.BookingRequest) error) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Stopping booking intent consumer...")
				return
			default:
				msg, err := c.reader.FetchMessage(ctx)
				if err != nil {
					if ctx.Err() == nil {
						c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error fetching booking request from Kafka")
					}
					continue
				}

				var req models.BookingRequest
				if err := json.Unmarshal(msg.Value, &req); err != nil {
					c.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{
						"topic":  msg.Topic,
						"offset": msg.Offset,
					}).Error("Failed to unmarshal booking request")
				} else if err := handler(ctx, req); err != nil {
					c.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{
						"commandID": req.CommandID,
					}).Error("Error handling booking request")
				}

				if err := c.reader.CommitMessages(ctx, msg); err != nil {
					c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to commit Kafka message")
				}
			}
		}
	}()
}

// Close closes the underlying Kafka reader.
func (c *IntentConsumer) Close() error {
	return c.reader.Close()
}

// ResultPublisher publishes booking results to the results topic.
type ResultPublisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

// NewResultPublisher creates a new ResultPublisher.
func NewResultPublisher(brokers []string, topic string, logger *logger.Logger) *ResultPublisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &ResultPublisher{
		writer: writer,
		logger: logger,
	}
}

// Publish sends a booking result keyed by its command ID.
func (p *ResultPublisher) Publish(ctx context.Context, result models.BookingResult) error {
	msgBytes, err := json.Marshal(result)
	if err != nil {
		p.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to marshal booking result for Kafka")
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(result.CommandID),
		Value: msgBytes,
	})
	if err != nil {
		p.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"topic": p.writer.Topic}).Error("Failed to write booking result to Kafka")
		return err
	}
	return nil
}

// Close closes the underlying Kafka writer.
func (p *ResultPublisher) Close() error {
	return p.writer.Close()
}
