package redis

import (
	"context"
	"encoding/json"
	"time"

	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/domain/ports/repository"
	"cdk-billing/internal/infra/metrics"
)

const ignoreListKey = "ignore_checkins"

var _ repository.IgnoreCheckInRepository = (*IgnoreListCache)(nil)

// IgnoreListCache layers a short-lived Redis cache over the ignore-list
// repository. The list is small and read on every activation, so reads
// are served from one cached JSON blob; writes pass through and drop it.
type IgnoreListCache struct {
	inner repository.IgnoreCheckInRepository
	cache RedisClient
	ttl   time.Duration
}

func NewIgnoreListCache(inner repository.IgnoreCheckInRepository, cache RedisClient, ttl time.Duration) *IgnoreListCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &IgnoreListCache{inner: inner, cache: cache, ttl: ttl}
}

func (c *IgnoreListCache) ListAll(ctx context.Context, tx repository.Tx) ([]*model.IgnoreCheckIn, error) {
	if payload, err := c.cache.Get(ctx, ignoreListKey); err == nil {
		var entries []*model.IgnoreCheckIn
		if err := json.Unmarshal([]byte(payload), &entries); err == nil {
			metrics.IncCacheRequest("ignore_list", "hit")
			return entries, nil
		}
	}
	metrics.IncCacheRequest("ignore_list", "miss")

	entries, err := c.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(entries); err == nil {
		_ = c.cache.Set(ctx, ignoreListKey, string(payload), c.ttl)
	}
	return entries, nil
}

// Matches evaluates against the cached list: application, module, and
// user agent each match independently against non-empty entry fields.
func (c *IgnoreListCache) Matches(ctx context.Context, tx repository.Tx, application, module, userAgent string) (bool, error) {
	entries, err := c.ListAll(ctx, tx)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Application != "" && e.Application == application {
			return true, nil
		}
		if e.Module != "" && e.Module == module {
			return true, nil
		}
		if e.UserAgent != "" && e.UserAgent == userAgent {
			return true, nil
		}
	}
	return false, nil
}

func (c *IgnoreListCache) Save(ctx context.Context, tx repository.Tx, entry *model.IgnoreCheckIn) error {
	if err := c.inner.Save(ctx, tx, entry); err != nil {
		return err
	}
	_ = c.cache.Del(ctx, ignoreListKey)
	return nil
}
