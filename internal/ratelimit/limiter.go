// Package ratelimit implements a redis-backed sliding-window request
// counter keyed by client identity.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts requests per key inside a sliding window using a redis
// sorted set. Every call records its timestamp before counting, so a
// rejected request still counts toward subsequent windows.
type Limiter struct {
	rdb *redis.Client
	now func() time.Time
}

func New(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb, now: time.Now}
}

// Allow reports whether a request for key is within limit for the window.
// It fails closed: a redis error propagates to the caller.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := l.now()
	redisKey := "rate_limit:" + key

	// Record the request unconditionally. The member is the nanosecond
	// timestamp so same-second bursts stay distinct; the score is the
	// epoch second the window arithmetic runs on.
	member := redis.Z{
		Score:  float64(now.Unix()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	}
	if err := l.rdb.ZAdd(ctx, redisKey, member).Err(); err != nil {
		return false, fmt.Errorf("rate limit record: %w", err)
	}

	// Set an expiry only when the key has none, so the record does not
	// live forever once a client goes quiet.
	ttl, err := l.rdb.TTL(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit ttl: %w", err)
	}
	if ttl < 0 {
		if err := l.rdb.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	windowStart := now.Unix() - int64(window/time.Second)
	count, err := l.rdb.ZCount(ctx, redisKey,
		strconv.FormatInt(windowStart, 10),
		strconv.FormatInt(now.Unix(), 10),
	).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit count: %w", err)
	}
	return count <= int64(limit), nil
}
