// Package events defines the event structures for the messages.stream,
// notifications.ready, notifications.overload, and keywords.changed topics.
package events

import "github.com/google/uuid"

// ChannelMessage represents an inbound message from the messages.stream topic.
type ChannelMessage struct {
	MessageID     string `json:"message_id"`
	SchemaVersion int    `json:"schema_version"`
	EventTS       int64  `json:"event_ts"`
	ChannelID     string `json:"channel_id"`
	ChannelName   string `json:"channel_name"`
	Text          string `json:"text"`
	SenderID      string `json:"sender_id"`
	SenderName    string `json:"sender_name,omitempty"`
}

// NotificationMessage represents an accepted match to be published to the
// notifications.ready topic. One message per (user, channel message) pair;
// delivery, retries, and formatting belong to the downstream sender.
type NotificationMessage struct {
	NotificationID  string   `json:"notification_id"`
	SchemaVersion   int      `json:"schema_version"`
	EventTS         int64    `json:"event_ts"`
	UserID          string   `json:"user_id"`
	ChannelName     string   `json:"channel_name"`
	MessageText     string   `json:"message_text"`
	MatchedKeywords []string `json:"matched_keywords"`
}

// NewNotificationMessage creates a NotificationMessage for a user from a
// channel message, with a freshly generated notification ID.
func NewNotificationMessage(msg *ChannelMessage, userID string, matched []string) *NotificationMessage {
	return &NotificationMessage{
		NotificationID:  uuid.New().String(),
		SchemaVersion:   msg.SchemaVersion,
		EventTS:         msg.EventTS,
		UserID:          userID,
		ChannelName:     msg.ChannelName,
		MessageText:     msg.Text,
		MatchedKeywords: matched,
	}
}

// Overload event states. Each user emits exactly one event per transition
// between NORMAL and OVERLOADED, never one per denied acquire.
const (
	StateOverloaded = "OVERLOADED"
	StateRestored   = "RESTORED"
)

// OverloadEvent represents a rate-limit state transition published to the
// notifications.overload topic for the external alerting collaborator.
type OverloadEvent struct {
	SchemaVersion   int    `json:"schema_version"`
	EventTS         int64  `json:"event_ts"`
	UserID          string `json:"user_id"`
	State           string `json:"state"` // OVERLOADED or RESTORED
	TokensRemaining int    `json:"tokens_remaining"`
}

// KeywordChanged represents a keyword configuration change event from the
// keywords.changed topic.
type KeywordChanged struct {
	UserID        string `json:"user_id"`
	Action        string `json:"action"` // CREATED, UPDATED, DELETED
	Version       int    `json:"version"`
	UpdatedAt     int64  `json:"updated_at"` // Unix timestamp
	SchemaVersion int    `json:"schema_version"`
}
