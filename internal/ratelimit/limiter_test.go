package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb), mr
}

func TestLimiterAllowsUpToLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "papers_get:1.2.3.4", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow %d: %v", i+1, err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, err := limiter.Allow(ctx, "papers_get:1.2.3.4", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow 4: %v", err)
	}
	if allowed {
		t.Fatalf("request over the limit should be rejected")
	}
}

func TestRejectedRequestStillCounts(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	if allowed, _ := limiter.Allow(ctx, "k", 1, time.Minute); !allowed {
		t.Fatalf("first request should be allowed")
	}
	if allowed, _ := limiter.Allow(ctx, "k", 1, time.Minute); allowed {
		t.Fatalf("second request should be rejected")
	}
	// The rejected call was recorded too, so the window now holds three
	// entries and this one stays rejected.
	if allowed, _ := limiter.Allow(ctx, "k", 1, time.Minute); allowed {
		t.Fatalf("request after a rejected one should still be rejected")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	if allowed, _ := limiter.Allow(ctx, "route:1.1.1.1", 1, time.Minute); !allowed {
		t.Fatalf("first client should be allowed")
	}
	if allowed, _ := limiter.Allow(ctx, "route:1.1.1.1", 1, time.Minute); allowed {
		t.Fatalf("first client should be over its limit")
	}
	if allowed, _ := limiter.Allow(ctx, "route:2.2.2.2", 1, time.Minute); !allowed {
		t.Fatalf("second client has its own window")
	}
}

func TestWindowSlidesPastOldRequests(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	base := time.Now()
	limiter.now = func() time.Time { return base }

	if allowed, _ := limiter.Allow(ctx, "k", 1, 2*time.Second); !allowed {
		t.Fatalf("first request should be allowed")
	}
	if allowed, _ := limiter.Allow(ctx, "k", 1, 2*time.Second); allowed {
		t.Fatalf("second request inside the window should be rejected")
	}

	limiter.now = func() time.Time { return base.Add(3 * time.Second) }
	allowed, err := limiter.Allow(ctx, "k", 1, 2*time.Second)
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !allowed {
		t.Fatalf("request after the window elapsed should be allowed")
	}
}

func TestFailsClosedOnRedisError(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	mr.Close()

	allowed, err := limiter.Allow(context.Background(), "k", 5, time.Minute)
	if err == nil {
		t.Fatalf("expected an error when redis is unreachable")
	}
	if allowed {
		t.Fatalf("limiter must fail closed")
	}
}
