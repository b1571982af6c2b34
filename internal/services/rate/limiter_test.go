package rate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redisrepo "github.com/maxjeon97/friender/internal/repo/redis"
	"github.com/maxjeon97/friender/internal/services/rate"
)

func newTestLimiter(t *testing.T, cfg rate.Config) (*rate.Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return rate.NewLimiter(redisrepo.NewRateRepo(client), cfg), mr
}

func TestAllowDecisionUnderLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, rate.Config{DecisionsPerMinute: 60, DecisionsPer10Sec: 15})
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		if err := limiter.AllowDecision(ctx, "alice"); err != nil {
			t.Fatalf("decision %d: %v", i+1, err)
		}
	}
}

func TestAllowDecisionBurstLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, rate.Config{DecisionsPerMinute: 60, DecisionsPer10Sec: 3})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := limiter.AllowDecision(ctx, "alice"); err != nil {
			t.Fatalf("decision %d: %v", i+1, err)
		}
	}

	err := limiter.AllowDecision(ctx, "alice")
	var tooFast *rate.TooFastError
	if !errors.As(err, &tooFast) {
		t.Fatalf("want TooFastError, got %v", err)
	}
	if tooFast.RetryAfter <= 0 {
		t.Fatalf("retry-after must be positive, got %s", tooFast.RetryAfter)
	}
}

func TestAllowDecisionPerUserIsolation(t *testing.T) {
	limiter, _ := newTestLimiter(t, rate.Config{DecisionsPerMinute: 60, DecisionsPer10Sec: 1})
	ctx := context.Background()

	if err := limiter.AllowDecision(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	if err := limiter.AllowDecision(ctx, "alice"); err == nil {
		t.Fatal("alice's second burst decision must be limited")
	}
	if err := limiter.AllowDecision(ctx, "bob"); err != nil {
		t.Fatalf("bob must have their own window: %v", err)
	}
}

func TestAllowDecisionWindowExpires(t *testing.T) {
	limiter, mr := newTestLimiter(t, rate.Config{DecisionsPerMinute: 60, DecisionsPer10Sec: 1})
	ctx := context.Background()

	if err := limiter.AllowDecision(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	if err := limiter.AllowDecision(ctx, "alice"); err == nil {
		t.Fatal("second decision inside the window must be limited")
	}

	mr.FastForward(11 * time.Second)

	if err := limiter.AllowDecision(ctx, "alice"); err != nil {
		t.Fatalf("window must reset after expiry: %v", err)
	}
}
