// Package producer provides Kafka producer functionality for the
// notifications.ready topic.
package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"notifier/internal/events"
	kafkautil "notifier/internal/kafka"
)

// Producer wraps a Kafka writer and provides a simple interface for
// publishing accepted notifications.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer with the specified brokers and
// topic. The producer is configured for at-least-once delivery semantics
// with synchronous writes.
func NewProducer(brokers string, topic string) (*Producer, error) {
	if err := kafkautil.ValidateProducerParams(brokers, topic); err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing Kafka producer",
		"brokers", brokerList,
		"topic", topic,
	)

	// Best effort, may fail silently
	kafkautil.CreateTopicIfNotExists(brokerList[0], topic)

	// Use Hash balancer to partition by user_id so one user's
	// notifications land on one partition
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerList...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: kafkautil.WriteTimeout,
		RequiredAcks: kafka.RequireOne, // At-least-once semantics (waits for leader ack)
		Async:        false,            // Synchronous writes for reliability and error handling
	}

	slog.Info("Kafka producer configured",
		"write_timeout", kafkautil.WriteTimeout,
		"required_acks", "RequireOne",
		"async", false,
		"balancer", "Hash (key-based partitioning)",
		"partition_key", "user_id (hashed)",
	)

	return &Producer{
		writer: writer,
		topic:  topic,
	}, nil
}

// Publish serializes a notification to JSON and publishes it to Kafka.
// The message is keyed by user_id for partition distribution.
func (p *Producer) Publish(ctx context.Context, notification *events.NotificationMessage) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		slog.Error("Failed to marshal notification to JSON",
			"notification_id", notification.NotificationID,
			"user_id", notification.UserID,
			"error", err,
		)
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(notification.UserID),
		Value: payload,
		Headers: []kafka.Header{
			{
				Key:   "schema_version",
				Value: []byte(fmt.Sprintf("%d", notification.SchemaVersion)),
			},
			{
				Key:   "notification_id",
				Value: []byte(notification.NotificationID),
			},
		},
		Time: time.Unix(notification.EventTS, 0),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("Failed to write message to Kafka",
			"notification_id", notification.NotificationID,
			"topic", p.topic,
			"error", err,
		)
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	return nil
}

// Close gracefully closes the Kafka writer and releases resources.
func (p *Producer) Close() error {
	slog.Info("Closing Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		slog.Error("Error closing Kafka producer", "error", err)
		return err
	}
	slog.Info("Kafka producer closed successfully")
	return nil
}
