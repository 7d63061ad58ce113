package redis

import (
	"context"
	"fmt"
	"time"

	"cdk-billing/internal/infra/metrics"
)

// RevenueCache stores rendered revenue reports keyed by (scope, month).
// Months not yet closed (the current one and anything later) carry a
// short TTL; past months are immutable and cached without expiry.
type RevenueCache struct {
	cache      RedisClient
	now        func() time.Time
	currentTTL time.Duration
}

func NewRevenueCache(cache RedisClient, now func() time.Time, currentTTL time.Duration) *RevenueCache {
	if now == nil {
		now = time.Now
	}
	if currentTTL <= 0 {
		currentTTL = 60 * time.Second
	}
	return &RevenueCache{cache: cache, now: now, currentTTL: currentTTL}
}

func revenueKey(scope string, month time.Time) string {
	return fmt.Sprintf("revenue:%s:%s", scope, month.Format("2006-01"))
}

func (c *RevenueCache) Get(ctx context.Context, scope string, month time.Time) (string, bool) {
	val, err := c.cache.Get(ctx, revenueKey(scope, month))
	if err != nil {
		metrics.IncCacheRequest("revenue", "miss")
		return "", false
	}
	metrics.IncCacheRequest("revenue", "hit")
	return val, true
}

func (c *RevenueCache) Put(ctx context.Context, scope string, month time.Time, payload string) {
	// Only closed months are immutable. The current month and anything
	// ahead of it still change, so those entries expire quickly.
	ttl := time.Duration(0)
	now := c.now()
	if month.Year()*12+int(month.Month()) >= now.Year()*12+int(now.Month()) {
		ttl = c.currentTTL
	}
	_ = c.cache.Set(ctx, revenueKey(scope, month), payload, ttl)
}
