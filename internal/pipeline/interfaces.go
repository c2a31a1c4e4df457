// Package pipeline orchestrates channel message evaluation: per inbound
// message it fans out over subscribed users, evaluates compiled keyword
// rules, admission-controls matches through the token bucket limiter, and
// publishes accepted notifications and rate-limit transition events.
package pipeline

import (
	"context"

	"github.com/segmentio/kafka-go"

	"notifier/internal/events"
	"notifier/internal/limiter"
	"notifier/internal/profiles"
)

// MessageReader reads channel messages from a message queue.
type MessageReader interface {
	// ReadMessage reads the next message and returns the parsed
	// ChannelMessage. Returns the raw message for offset tracking.
	ReadMessage(ctx context.Context) (*events.ChannelMessage, *kafka.Message, error)

	// Close closes the reader and releases resources.
	Close() error
}

// NotificationPublisher publishes accepted notifications.
type NotificationPublisher interface {
	// Publish publishes a notification message.
	Publish(ctx context.Context, notification *events.NotificationMessage) error

	// Close closes the publisher and releases resources.
	Close() error
}

// TransitionPublisher publishes rate-limit state transition events for the
// external alerting collaborator.
type TransitionPublisher interface {
	PublishOverloaded(ctx context.Context, userID string, tokensRemaining int) error
	PublishRestored(ctx context.Context, userID string, tokensRemaining int) error
	Close() error
}

// ProfileReader supplies subscriber IDs and raw keyword configuration from
// the external profile store.
type ProfileReader interface {
	ListSubscribers(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, userID string) (*profiles.Profile, error)
}

// Admitter decides, per user, whether an accepted match may become an
// outbound notification right now.
type Admitter interface {
	Acquire(userID string) limiter.Decision
}
