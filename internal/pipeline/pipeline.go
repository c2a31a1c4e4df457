package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"notifier/internal/events"
	"notifier/internal/limiter"
	"notifier/internal/matcher"
	"notifier/internal/metrics"
	"notifier/internal/rulecache"
)

// DefaultWorkerCount is the default number of concurrent message workers.
const DefaultWorkerCount = 10

// Pipeline orchestrates message evaluation and notification admission.
type Pipeline struct {
	reader      MessageReader
	notifier    NotificationPublisher
	transitions TransitionPublisher
	profiles    ProfileReader
	cache       *rulecache.Cache
	limiter     Admitter
	metrics     metrics.Recorder
	workers     int
}

// New creates a pipeline with no-op metrics and the default worker count.
func New(reader MessageReader, notifier NotificationPublisher, transitions TransitionPublisher, profileReader ProfileReader, cache *rulecache.Cache, admitter Admitter) *Pipeline {
	return &Pipeline{
		reader:      reader,
		notifier:    notifier,
		transitions: transitions,
		profiles:    profileReader,
		cache:       cache,
		limiter:     admitter,
		metrics:     &metrics.NoOp{},
		workers:     DefaultWorkerCount,
	}
}

// WithMetrics sets the metrics recorder. A nil recorder keeps the no-op.
func (p *Pipeline) WithMetrics(m metrics.Recorder) *Pipeline {
	if m != nil {
		p.metrics = m
	}
	return p
}

// WithWorkers sets the worker count. Values below 1 keep the default.
func (p *Pipeline) WithWorkers(n int) *Pipeline {
	if n >= 1 {
		p.workers = n
	}
	return p
}

// Run continuously reads channel messages from the queue and processes
// them across the worker pool until ctx is cancelled.
//
// Messages for the same user may be processed out of arrival order when
// dispatched to different workers; callers needing strict per-user
// ordering must serialize dispatch themselves.
func (p *Pipeline) Run(ctx context.Context) error {
	slog.Info("Starting message processing loop", "workers", p.workers)

	jobs := make(chan *events.ChannelMessage, p.workers*2)
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range jobs {
				p.processMessage(ctx, msg)
			}
		}()
	}

	p.dispatch(ctx, jobs)

	close(jobs)
	wg.Wait()
	slog.Info("Message processing loop stopped")
	return nil
}

// dispatch reads messages from the queue and hands them to workers.
func (p *Pipeline) dispatch(ctx context.Context, jobs chan<- *events.ChannelMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			msg, _, err := p.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("Failed to read channel message", "error", err)
				p.metrics.RecordError()
				// Continue processing other messages
				continue
			}
			p.metrics.RecordReceived()
			jobs <- msg
		}
	}
}

// processMessage evaluates one channel message against every subscriber.
func (p *Pipeline) processMessage(ctx context.Context, msg *events.ChannelMessage) {
	startTime := time.Now()

	slog.Debug("Received channel message",
		"message_id", msg.MessageID,
		"channel_id", msg.ChannelID,
		"channel_name", msg.ChannelName,
	)

	subscribers, err := p.profiles.ListSubscribers(ctx)
	if err != nil {
		slog.Error("Failed to list subscribers",
			"message_id", msg.MessageID,
			"error", err,
		)
		p.metrics.RecordError()
		return
	}

	for _, userID := range subscribers {
		p.processSubscriber(ctx, msg, userID)
	}

	p.metrics.RecordProcessed(time.Since(startTime))
}

// processSubscriber evaluates the message for a single user and, on a
// match, runs it through admission control.
func (p *Pipeline) processSubscriber(ctx context.Context, msg *events.ChannelMessage, userID string) {
	profile, err := p.profiles.GetProfile(ctx, userID)
	if err != nil {
		slog.Error("Failed to load profile",
			"user_id", userID,
			"error", err,
		)
		p.metrics.RecordError()
		return
	}

	entry := p.cache.Get(userID, profile.Keywords, profile.IgnoreKeywords)
	result := matcher.Evaluate(msg.Text, &entry.Rules, &entry.Ignore)

	if result.BlockedByIgnore {
		slog.Debug("Message blocked by ignore list",
			"message_id", msg.MessageID,
			"user_id", userID,
			"ignored_keywords", result.IgnoredKeywords,
		)
		return
	}
	if !result.IsMatch {
		return
	}

	p.metrics.RecordMatched()

	decision := p.limiter.Acquire(userID)
	if decision.Allowed {
		p.handleAccepted(ctx, msg, userID, result.MatchedKeywords, decision)
	} else {
		p.handleDenied(ctx, msg, userID, decision)
	}
}

// handleAccepted publishes the notification and, when this grant restored
// the user from the overloaded state, exactly one restored event. The
// transition happened at acquire time, so the restored event goes out
// before the notification and regardless of its outcome.
func (p *Pipeline) handleAccepted(ctx context.Context, msg *events.ChannelMessage, userID string, matched []string, decision limiter.Decision) {
	if decision.Transition == limiter.TransitionRestored {
		if err := p.transitions.PublishRestored(ctx, userID, decision.TokensRemaining); err != nil {
			slog.Error("Failed to publish restored event",
				"user_id", userID,
				"error", err,
			)
			p.metrics.RecordError()
		}
	}

	notification := events.NewNotificationMessage(msg, userID, matched)

	if err := p.notifier.Publish(ctx, notification); err != nil {
		slog.Error("Failed to publish notification",
			"notification_id", notification.NotificationID,
			"user_id", userID,
			"error", err,
		)
		p.metrics.RecordError()
		// Delivery retry is the sink's responsibility, not the pipeline's
		return
	}

	p.metrics.RecordAccepted()
	slog.Info("Published notification",
		"notification_id", notification.NotificationID,
		"user_id", userID,
		"channel_name", msg.ChannelName,
		"matched_keywords", matched,
	)
}

// handleDenied records the throttled match and, when this denial tipped
// the user into the overloaded state, exactly one overload event. Repeated
// denials while already overloaded emit nothing.
func (p *Pipeline) handleDenied(ctx context.Context, msg *events.ChannelMessage, userID string, decision limiter.Decision) {
	p.metrics.RecordDenied()
	slog.Debug("Notification denied by rate limiter",
		"message_id", msg.MessageID,
		"user_id", userID,
	)

	if decision.Transition == limiter.TransitionOverloaded {
		if err := p.transitions.PublishOverloaded(ctx, userID, decision.TokensRemaining); err != nil {
			slog.Error("Failed to publish overload event",
				"user_id", userID,
				"error", err,
			)
			p.metrics.RecordError()
		}
	}
}
