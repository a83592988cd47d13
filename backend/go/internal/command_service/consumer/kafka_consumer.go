package consumer

import (
	"VoiceCalendarAI/backend/go/internal/models"
	"VoiceCalendarAI/backend/go/pkg/logger"
	"context"

	"github.com/segmentio/kafka-go"
)

// ResultConsumer consumes booking results published by the booking service.
type ResultConsumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

// NewResultConsumer creates a new ResultConsumer.
func NewResultConsumer(brokers []string, topic, groupID string, logger *logger.Logger) *ResultConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &ResultConsumer{
		reader: reader,
		logger: logger,
	}
}

// Start begins consuming booking results. Messages are committed even when
// the handler fails: a result that cannot be applied now will not become
// applicable by replaying it.
func (c *ResultConsumer) Start(ctx context.Context, handler func(kafka.Message) error) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Stopping booking result consumer...")
				return
			default:
				msg, err := c.reader.FetchMessage(ctx)
				if err != nil {
					if ctx.Err() == nil {
						c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error fetching booking result from Kafka")
					}
					continue
				}

				if err := handler(msg); err != nil {
					c.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{
						"topic":     msg.Topic,
						"partition": msg.Partition,
						"offset":    msg.Offset,
					}).Error("Error handling booking result")
				}

				if err := c.reader.CommitMessages(ctx, msg); err != nil {
					c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to commit Kafka message")
				}
			}
		}
	}()
}

// Close closes the underlying Kafka reader.
func (c *ResultConsumer) Close() error {
	return c.reader.Close()
}
