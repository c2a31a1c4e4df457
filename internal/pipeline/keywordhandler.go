package pipeline

import (
	"context"
	"log/slog"

	"notifier/internal/events"
	"notifier/internal/rulecache"
)

// KeywordReader reads keyword configuration change events.
type KeywordReader interface {
	ReadMessage(ctx context.Context) (*events.KeywordChanged, error)
	Close() error
}

// KeywordHandler consumes keywords.changed events and invalidates the
// affected user's compiled rules so the next message recompiles them.
type KeywordHandler struct {
	consumer KeywordReader
	cache    *rulecache.Cache
}

// NewKeywordHandler creates a new keyword change handler.
func NewKeywordHandler(consumer KeywordReader, cache *rulecache.Cache) *KeywordHandler {
	return &KeywordHandler{
		consumer: consumer,
		cache:    cache,
	}
}

// Run consumes keywords.changed events until ctx is cancelled.
func (h *KeywordHandler) Run(ctx context.Context) {
	slog.Info("Starting keywords.changed event handler")

	for {
		select {
		case <-ctx.Done():
			slog.Info("Keywords.changed event handler stopped")
			return
		default:
			changed, err := h.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("Failed to read keywords.changed event", "error", err)
				// Continue processing other messages
				continue
			}

			slog.Info("Received keywords.changed event",
				"user_id", changed.UserID,
				"action", changed.Action,
				"version", changed.Version,
			)

			h.cache.Invalidate(changed.UserID)
		}
	}
}
