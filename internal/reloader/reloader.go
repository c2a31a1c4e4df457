// Package reloader polls Redis for profile version changes and clears the
// compiled-rule cache when the version moves. It is the backstop for the
// keywords.changed event path: even if an event is missed, stale compiled
// rules live at most one poll interval.
package reloader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"notifier/internal/rulecache"
)

// VersionKey is the Redis key where the profile service publishes its
// monotonically increasing configuration version.
const VersionKey = "profiles:version"

// Reloader polls Redis for version changes and clears the rule cache when
// the version changes.
type Reloader struct {
	client         *redis.Client
	cache          *rulecache.Cache
	pollInterval   time.Duration
	currentVersion int64
}

// NewReloader creates a new reloader with the given dependencies.
func NewReloader(client *redis.Client, cache *rulecache.Cache, pollInterval time.Duration) *Reloader {
	return &Reloader{
		client:       client,
		cache:        cache,
		pollInterval: pollInterval,
	}
}

// Start reads the initial version and begins polling in a background
// goroutine. The goroutine exits when ctx is cancelled.
func (r *Reloader) Start(ctx context.Context) error {
	version, err := r.getVersion(ctx)
	if err != nil {
		return err
	}
	r.currentVersion = version

	slog.Info("Starting profile version poller",
		"poll_interval", r.pollInterval,
		"initial_version", r.currentVersion,
	)

	go r.pollLoop(ctx)
	return nil
}

// pollLoop continuously polls Redis for version changes.
func (r *Reloader) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Profile version poller stopped")
			return
		case <-ticker.C:
			if err := r.checkAndReload(ctx); err != nil {
				slog.Error("Failed to check profile version",
					"error", err,
				)
				// Continue polling even if the check fails
			}
		}
	}
}

// checkAndReload clears the rule cache if the version has changed. Fresh
// configurations are then re-read lazily on the next message per user.
func (r *Reloader) checkAndReload(ctx context.Context) error {
	version, err := r.getVersion(ctx)
	if err != nil {
		return err
	}

	if version == r.currentVersion {
		return nil // No change
	}

	slog.Info("Profile version changed, clearing compiled rule cache",
		"old_version", r.currentVersion,
		"new_version", version,
		"cached_entries", r.cache.Len(),
	)

	r.cache.Clear()
	r.currentVersion = version
	return nil
}

// getVersion returns the current profile version from Redis. Returns 0 if
// the version doesn't exist yet.
func (r *Reloader) getVersion(ctx context.Context) (int64, error) {
	version, err := r.client.Get(ctx, VersionKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get profile version from Redis: %w", err)
	}
	return version, nil
}
