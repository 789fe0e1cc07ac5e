// Package cache provides a read-through redis cache for paper documents.
// The cache is an optimization only: read and write failures degrade to
// primary-store-only operation.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zuai/sample-paper-api/internal/models"
)

const paperTTL = 3600 * time.Second

// PaperCache wraps redis for cached paper reads keyed by paper id.
type PaperCache struct {
	rdb *redis.Client
}

func NewPaperCache(rdb *redis.Client) *PaperCache {
	return &PaperCache{rdb: rdb}
}

// Get returns the cached paper for id, if present. Redis errors are
// logged and reported as a miss so reads fall through to Mongo.
func (c *PaperCache) Get(ctx context.Context, id string) (*models.Paper, bool) {
	val, err := c.rdb.Get(ctx, "paper:"+id).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("paper cache get %s: %v", id, err)
		return nil, false
	}
	var paper models.Paper
	if err := json.Unmarshal([]byte(val), &paper); err != nil {
		log.Printf("paper cache decode %s: %v", id, err)
		return nil, false
	}
	return &paper, true
}

// Set caches a paper with the fixed TTL. Failures are logged and ignored.
func (c *PaperCache) Set(ctx context.Context, id string, paper *models.Paper) {
	data, err := json.Marshal(paper)
	if err != nil {
		log.Printf("paper cache encode %s: %v", id, err)
		return
	}
	if err := c.rdb.Set(ctx, "paper:"+id, data, paperTTL).Err(); err != nil {
		log.Printf("paper cache set %s: %v", id, err)
	}
}

// Invalidate drops the cache entry for id. Entries are never updated in
// place; writes always invalidate. The error is returned because serving
// a stale entry after a successful update would be worse than failing.
func (c *PaperCache) Invalidate(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, "paper:"+id).Err()
}
