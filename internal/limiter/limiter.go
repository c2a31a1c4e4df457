// Package limiter provides per-user admission control for outbound
// notifications using a token bucket.
//
// Each user owns an immutable bucket snapshot behind an atomic pointer.
// Acquire runs an optimistic compare-and-swap retry loop over that
// snapshot, so concurrent acquires for the same user never lose updates or
// double-spend a token, and acquires for different users never contend.
// Administrative operations (config update, clears) take the coarse map
// lock; they are off the message hot path.
package limiter

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// MinSetting and MaxSetting bound both configurable parameters.
	MinSetting = 10
	MaxSetting = 200

	// DefaultMaxTokens is the default bucket capacity per user.
	DefaultMaxTokens = 50
	// DefaultRefillPerMinute is the default refill rate (one token per
	// second).
	DefaultRefillPerMinute = 60

	msPerMinute = 60_000
)

// Config holds the limiter parameters. Both must lie within
// [MinSetting, MaxSetting].
type Config struct {
	MaxTokens       int
	RefillPerMinute int
}

// Valid reports whether both parameters are within bounds.
func (c Config) Valid() bool {
	return c.MaxTokens >= MinSetting && c.MaxTokens <= MaxSetting &&
		c.RefillPerMinute >= MinSetting && c.RefillPerMinute <= MaxSetting
}

// Transition describes a NORMAL/OVERLOADED state change caused by an
// acquire. The pipeline emits exactly one external event per transition.
type Transition int

const (
	// TransitionNone means the user's state did not change.
	TransitionNone Transition = iota
	// TransitionOverloaded means this denial moved the user into the
	// overloaded state.
	TransitionOverloaded
	// TransitionRestored means this grant moved the user back to normal.
	TransitionRestored
)

// Decision is the outcome of a single acquire.
type Decision struct {
	Allowed         bool
	TokensRemaining int
	Transition      Transition
}

// Status is a point-in-time summary for the admin surface.
type Status struct {
	MaxTokens           int `json:"max_tokens"`
	RefillPerMinute     int `json:"refill_per_minute"`
	ActiveUserCount     int `json:"active_user_count"`
	OverloadedUserCount int `json:"overloaded_user_count"`
}

// bucket is an immutable per-user state snapshot. Acquire replaces the
// whole snapshot via CAS rather than mutating it in place.
type bucket struct {
	tokens       int
	lastRefillMS int64
	overloaded   bool
}

// Limiter is a concurrency-safe per-user token bucket limiter.
type Limiter struct {
	mu      sync.RWMutex
	cfg     Config
	buckets map[string]*atomic.Pointer[bucket]
	now     func() time.Time
}

// New creates a limiter with the given configuration. Invalid values fall
// back to the defaults.
func New(cfg Config) *Limiter {
	if !cfg.Valid() {
		cfg = Config{MaxTokens: DefaultMaxTokens, RefillPerMinute: DefaultRefillPerMinute}
	}
	return &Limiter{
		cfg:     cfg,
		buckets: make(map[string]*atomic.Pointer[bucket]),
		now:     time.Now,
	}
}

// newWithClock creates a limiter with an injectable clock for tests.
func newWithClock(cfg Config, now func() time.Time) *Limiter {
	l := New(cfg)
	l.now = now
	return l
}

// Acquire attempts to consume one token for the user. A never-seen user is
// lazily initialized with a full bucket. The returned decision carries the
// allow/deny outcome, the tokens remaining, and any state transition so
// the caller can emit exactly one alert per transition.
func (l *Limiter) Acquire(userID string) Decision {
	l.mu.RLock()
	cfg := l.cfg
	p, ok := l.buckets[userID]
	l.mu.RUnlock()

	if !ok {
		p, cfg = l.getOrCreate(userID)
	}

	for {
		old := p.Load()
		nowMS := l.now().UnixMilli()
		tokens, last := refill(old, cfg, nowMS)

		if tokens > 0 {
			next := &bucket{tokens: tokens - 1, lastRefillMS: last}
			if p.CompareAndSwap(old, next) {
				transition := TransitionNone
				if old.overloaded {
					transition = TransitionRestored
				}
				return Decision{Allowed: true, TokensRemaining: next.tokens, Transition: transition}
			}
			continue
		}

		// Repeated denial with no accrual needs no state change; skipping
		// the CAS keeps hammering users from contending with each other.
		if old.overloaded && last == old.lastRefillMS {
			return Decision{Allowed: false}
		}

		next := &bucket{tokens: 0, lastRefillMS: last, overloaded: true}
		if p.CompareAndSwap(old, next) {
			transition := TransitionNone
			if !old.overloaded {
				transition = TransitionOverloaded
			}
			return Decision{Allowed: false, Transition: transition}
		}
	}
}

// Tokens returns the number of tokens currently available to the user
// without consuming any. A never-seen user has a full bucket.
func (l *Limiter) Tokens(userID string) int {
	l.mu.RLock()
	cfg := l.cfg
	p, ok := l.buckets[userID]
	l.mu.RUnlock()

	if !ok {
		return cfg.MaxTokens
	}
	tokens, _ := refill(p.Load(), cfg, l.now().UnixMilli())
	return tokens
}

// UpdateConfig validates and applies new limiter parameters. On acceptance
// every per-user bucket is discarded so the new limits apply uniformly and
// immediately; this full reset is deliberate. Rejected values leave the
// prior configuration untouched and return false.
func (l *Limiter) UpdateConfig(maxTokens, refillPerMinute int) bool {
	cfg := Config{MaxTokens: maxTokens, RefillPerMinute: refillPerMinute}
	if !cfg.Valid() {
		return false
	}

	l.mu.Lock()
	l.cfg = cfg
	l.buckets = make(map[string]*atomic.Pointer[bucket])
	l.mu.Unlock()
	return true
}

// Config returns the current limiter configuration.
func (l *Limiter) Config() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// ClearUser discards the state for one user; their next acquire starts
// from a full bucket.
func (l *Limiter) ClearUser(userID string) {
	l.mu.Lock()
	delete(l.buckets, userID)
	l.mu.Unlock()
}

// ClearAll discards all per-user state.
func (l *Limiter) ClearAll() {
	l.mu.Lock()
	l.buckets = make(map[string]*atomic.Pointer[bucket])
	l.mu.Unlock()
}

// GetStatus returns the current configuration and user counts.
func (l *Limiter) GetStatus() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()

	overloaded := 0
	for _, p := range l.buckets {
		if p.Load().overloaded {
			overloaded++
		}
	}
	return Status{
		MaxTokens:           l.cfg.MaxTokens,
		RefillPerMinute:     l.cfg.RefillPerMinute,
		ActiveUserCount:     len(l.buckets),
		OverloadedUserCount: overloaded,
	}
}

// getOrCreate initializes a full bucket for a never-seen user. Re-checks
// under the write lock so concurrent first acquires share one bucket.
func (l *Limiter) getOrCreate(userID string) (*atomic.Pointer[bucket], Config) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.buckets[userID]; ok {
		return p, l.cfg
	}
	p := &atomic.Pointer[bucket]{}
	p.Store(&bucket{tokens: l.cfg.MaxTokens, lastRefillMS: l.now().UnixMilli()})
	l.buckets[userID] = p
	return p, l.cfg
}

// refill computes the tokens available at nowMS and the refill timestamp
// for the replacement snapshot. Accrual is truncated to whole tokens; the
// timestamp advances only by the time those whole tokens represent, so the
// fractional remainder keeps accruing across calls. A full bucket resets
// the timestamp to now so idle time never banks beyond capacity.
func refill(b *bucket, cfg Config, nowMS int64) (tokens int, lastRefillMS int64) {
	elapsed := nowMS - b.lastRefillMS
	if elapsed < 0 {
		elapsed = 0
	}

	refilled := elapsed * int64(cfg.RefillPerMinute) / msPerMinute
	tokens = b.tokens + int(refilled)
	lastRefillMS = b.lastRefillMS

	if tokens >= cfg.MaxTokens {
		return cfg.MaxTokens, nowMS
	}
	if refilled > 0 {
		lastRefillMS += refilled * msPerMinute / int64(cfg.RefillPerMinute)
	}
	return tokens, lastRefillMS
}
