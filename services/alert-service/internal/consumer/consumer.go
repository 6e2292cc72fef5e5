// Package consumer provides Kafka consumer functionality for the travel.alerts.refresh topic.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	kafkautil "github.com/afikmenashe/travel-alerting/pkg/kafka"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/events"
)

// Consumer wraps a Kafka reader and decodes refresh requests.
type Consumer struct {
	reader *kafka.Reader
	topic  string
}

// NewConsumer creates a new Kafka consumer with the specified brokers, topic, and group ID.
// Offsets are committed explicitly, giving at-least-once delivery.
func NewConsumer(brokers string, topic string, groupID string) (*Consumer, error) {
	if err := kafkautil.ValidateConsumerParams(brokers, topic, groupID); err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(brokers)
	slog.Info("Initializing Kafka consumer",
		"brokers", brokerList,
		"topic", topic,
		"group_id", groupID,
	)

	cfg := kafkautil.NewReaderConfig(brokerList, topic, groupID)
	kafkautil.LogReaderConfig(cfg)

	return &Consumer{
		reader: kafka.NewReader(cfg),
		topic:  topic,
	}, nil
}

// ReadMessage reads the next message and decodes it as a RefreshRequested.
// On a decode error the raw message is still returned so the caller can skip it.
func (c *Consumer) ReadMessage(ctx context.Context) (*events.RefreshRequested, *kafka.Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read message from Kafka: %w", err)
	}

	req, err := events.Decode(contentType(msg.Headers), msg.Value)
	if err != nil {
		return nil, &msg, err
	}
	return req, &msg, nil
}

// CommitMessage commits the offset for the given message.
func (c *Consumer) CommitMessage(ctx context.Context, msg *kafka.Message) error {
	return c.reader.CommitMessages(ctx, *msg)
}

// Close gracefully closes the Kafka reader and releases resources.
func (c *Consumer) Close() error {
	slog.Info("Closing Kafka consumer", "topic", c.topic)
	if err := c.reader.Close(); err != nil {
		slog.Error("Error closing Kafka consumer", "error", err)
		return err
	}
	slog.Info("Kafka consumer closed successfully")
	return nil
}

func contentType(headers []kafka.Header) string {
	for _, h := range headers {
		if h.Key == "content-type" {
			return string(h.Value)
		}
	}
	return ""
}
