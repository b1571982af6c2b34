package rate

import (
	"context"
	"fmt"
	"time"
)

// WindowStore is a redis-backed fixed-window counter.
type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// TooFastError reports a tripped decision window together with how long the
// caller should wait before retrying.
type TooFastError struct {
	RetryAfter time.Duration
}

func (e *TooFastError) Error() string {
	return fmt.Sprintf("too many decisions, retry after %s", e.RetryAfter)
}

type Config struct {
	DecisionsPerMinute int
	DecisionsPer10Sec  int
}

type Limiter struct {
	store WindowStore
	cfg   Config
}

func NewLimiter(store WindowStore, cfg Config) *Limiter {
	if cfg.DecisionsPerMinute <= 0 {
		cfg.DecisionsPerMinute = 60
	}
	if cfg.DecisionsPer10Sec <= 0 {
		cfg.DecisionsPer10Sec = 15
	}

	return &Limiter{store: store, cfg: cfg}
}

// AllowDecision enforces a short burst window and a per-minute window for a
// user's like/pass decisions. A nil store disables limiting.
func (l *Limiter) AllowDecision(ctx context.Context, username string) error {
	if l == nil || l.store == nil {
		return nil
	}

	if err := l.check(ctx, "rate:decisions:10s:"+username, 10*time.Second, int64(l.cfg.DecisionsPer10Sec)); err != nil {
		return err
	}
	return l.check(ctx, "rate:decisions:1m:"+username, time.Minute, int64(l.cfg.DecisionsPerMinute))
}

func (l *Limiter) check(ctx context.Context, key string, window time.Duration, limit int64) error {
	count, ttl, err := l.store.IncrementWindow(ctx, key, window)
	if err != nil {
		return err
	}
	if count > limit {
		if ttl <= 0 {
			ttl = window
		}
		return &TooFastError{RetryAfter: ttl}
	}
	return nil
}
