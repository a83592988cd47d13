package publisher

import (
	"VoiceCalendarAI/backend/go/internal/models"
	"VoiceCalendarAI/backend/go/pkg/logger"
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
)

// IntentPublisher publishes booking requests to the intents topic for the
// booking service to act on.
type IntentPublisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

// NewIntentPublisher creates a new IntentPublisher.
func NewIntentPublisher(brokers []string, topic string, logger *logger.Logger) *IntentPublisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &IntentPublisher{
		writer: writer,
		logger: logger,
	}
}

// Publish sends a booking request keyed by its command ID, so retries for
// the same command land on the same partition.
func (p *IntentPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	msgBytes, err := json.Marshal(value)
	if err != nil {
		p.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to marshal booking request for Kafka")
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: msgBytes,
	})
	if err != nil {
		p.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"topic": p.writer.Topic}).Error("Failed to write booking request to Kafka")
		return err
	}
	return nil
}

// Close closes the underlying Kafka writer.
func (p *IntentPublisher) Close() error {
	return p.writer.Close()
}
