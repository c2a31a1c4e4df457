// Package alerts publishes rate-limit state transition events to the
// notifications.overload topic for the external alerting collaborator.
package alerts

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

// Publisher wraps a Kafka writer for overload/restored events.
type Publisher struct {
	writer *kafka.Writer
	topic  string
	now    func() time.Time
}

// NewPublisher creates a new publisher for the given brokers and topic.
func NewPublisher(brokers string, topic string) (*Publisher, error) {
	if err := kafkautil.ValidateProducerParams(brokers, topic); err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing overload event publisher",
		"brokers", brokerList,
		"topic", topic,
	)

	// Best effort, may fail silently
	kafkautil.CreateTopicIfNotExists(brokerList[0], topic)

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerList...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: kafkautil.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Publisher{
		writer: writer,
		topic:  topic,
		now:    time.Now,
	}, nil
}

// PublishOverloaded publishes an event marking the user's transition into
// the overloaded state. Called exactly once per transition.
func (p *Publisher) PublishOverloaded(ctx context.Context, userID string, tokensRemaining int) error {
	return p.publish(ctx, userID, events.StateOverloaded, tokensRemaining)
}

// PublishRestored publishes an event marking the user's return to normal.
// Called exactly once per transition.
func (p *Publisher) PublishRestored(ctx context.Context, userID string, tokensRemaining int) error {
	return p.publish(ctx, userID, events.StateRestored, tokensRemaining)
}

func (p *Publisher) publish(ctx context.Context, userID, state string, tokensRemaining int) error {
	event := &events.OverloadEvent{
		SchemaVersion:   1,
		EventTS:         p.now().Unix(),
		UserID:          userID,
		State:           state,
		TokensRemaining: tokensRemaining,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal overload event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(userID),
		Value: payload,
		Time:  p.now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("Failed to write overload event to Kafka",
			"user_id", userID,
			"state", state,
			"topic", p.topic,
			"error", err,
		)
		return fmt.Errorf("failed to write overload event to Kafka: %w", err)
	}

	slog.Info("Published rate-limit state transition",
		"user_id", userID,
		"state", state,
		"tokens_remaining", tokensRemaining,
	)
	return nil
}

// Close gracefully closes the Kafka writer and releases resources.
func (p *Publisher) Close() error {
	slog.Info("Closing overload event publisher", "topic", p.topic)
	return p.writer.Close()
}
