package ratelimit

import (
	"context"
	"time"

	"github.com/spec-kit/buyback-service/internal/config"
)

// Action names a rate-limited operation class.
type Action string

const (
	ActionSubmit Action = "submit"
	ActionTrack  Action = "track"
	ActionVerify Action = "verify"
)

// Result reports the outcome of a limiter check.
type Result struct {
	Limited   bool
	Attempts  int
	Remaining int
	ResetTime time.Time
}

// Store records attempts inside a trailing window and reports how many fall
// within it. Implementations must survive process restarts when used for
// security guarantees.
type Store interface {
	// Record appends one attempt for key at now and returns the number of
	// attempts within (now - window, now], including the new one, plus the
	// timestamp of the oldest attempt still inside the window.
	Record(ctx context.Context, key string, now time.Time, window time.Duration) (count int, oldest time.Time, err error)
}

// Limiter is a sliding-window abuse counter keyed by (identifier, action).
// It is constructed once per process and passed by reference; there is no
// ambient shared state.
type Limiter struct {
	store  Store
	window time.Duration
	limits map[Action]int
	now    func() time.Time
}

// NewLimiter builds a limiter from config. The verify action gets a higher
// budget than general actions.
func NewLimiter(store Store, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		store:  store,
		window: cfg.Window(),
		limits: map[Action]int{
			ActionSubmit: cfg.GeneralMax,
			ActionTrack:  cfg.GeneralMax,
			ActionVerify: cfg.VerifyMax,
		},
		now: time.Now,
	}
}

// WithClock overrides the clock for deterministic tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Check evaluates and records one attempt for (identifier, action). Every
// call consumes budget regardless of outcome; checking counts as an
// attempt, so legitimate rapid polling also draws down the window.
func (l *Limiter) Check(ctx context.Context, identifier string, action Action) (Result, error) {
	max, ok := l.limits[action]
	if !ok || max <= 0 {
		max = 5
	}
	now := l.now()
	key := string(action) + ":" + identifier

	count, oldest, err := l.store.Record(ctx, key, now, l.window)
	if err != nil {
		return Result{}, err
	}

	remaining := max - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Limited:   count > max,
		Attempts:  count,
		Remaining: remaining,
		ResetTime: oldest.Add(l.window),
	}, nil
}
