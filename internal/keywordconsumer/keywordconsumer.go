// Package keywordconsumer provides Kafka consumer functionality for the
// keywords.changed topic.
package keywordconsumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"notifier/internal/events"
	kafkautil "notifier/internal/kafka"
)

// Consumer wraps a Kafka reader for consuming keywords.changed events.
type Consumer struct {
	reader *kafka.Reader
	topic  string
}

// NewConsumer creates a new Kafka consumer for the keywords.changed topic.
func NewConsumer(brokers string, topic string, groupID string) (*Consumer, error) {
	if err := kafkautil.ValidateConsumerParams(brokers, topic, groupID); err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing keywords.changed Kafka consumer",
		"brokers", brokerList,
		"topic", topic,
		"group_id", groupID,
	)

	reader := kafka.NewReader(kafkautil.NewReaderConfig(brokerList, topic, groupID))
	kafkautil.LogReaderConfig()

	return &Consumer{
		reader: reader,
		topic:  topic,
	}, nil
}

// ReadMessage reads the next keywords.changed message from Kafka.
func (c *Consumer) ReadMessage(ctx context.Context) (*events.KeywordChanged, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read message from Kafka: %w", err)
	}

	var changed events.KeywordChanged
	if err := json.Unmarshal(msg.Value, &changed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keyword changed event: %w", err)
	}

	return &changed, nil
}

// Close gracefully closes the Kafka reader.
func (c *Consumer) Close() error {
	slog.Info("Closing keywords.changed consumer", "topic", c.topic)
	if err := c.reader.Close(); err != nil {
		slog.Error("Error closing keywords.changed consumer", "error", err)
		return err
	}
	slog.Info("Keywords.changed consumer closed successfully")
	return nil
}
