package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
	"github.com/noah-isme/vibecheck-api/internal/observability"
)

const (
	historyCachePattern  = "reports:history:*"
	historyGenerationKey = "reports:generation"
)

// historyCacheKey embeds the cache generation so a series computed before an
// invalidation can never be served after it.
func historyCacheKey(generation int64, classification attendance.Classification, endDate string, days int) string {
	return fmt.Sprintf("reports:history:%d:%s:%s:%d", generation, classification, endDate, days)
}

// reportCache is a cache-aside helper over redis. A nil client disables caching.
type reportCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func newReportCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *reportCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &reportCache{client: client, ttl: ttl, logger: logger}
}

// generation reports the current history generation. ok is false when caching is
// disabled or the generation cannot be read.
func (c *reportCache) generation(ctx context.Context) (int64, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}

	generation, err := c.client.Get(ctx, historyGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to read report cache generation")
		return 0, false
	}
	return generation, true
}

func (c *reportCache) get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}

	cached, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to read report cache")
		}
		observability.ReportCacheLookups().WithLabelValues("miss").Inc()
		return false
	}

	if err := json.Unmarshal([]byte(cached), dest); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding malformed report cache entry")
		observability.ReportCacheLookups().WithLabelValues("miss").Inc()
		return false
	}

	observability.ReportCacheLookups().WithLabelValues("hit").Inc()
	return true
}

func (c *reportCache) set(ctx context.Context, key string, value interface{}) {
	if c == nil || c.client == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to store report cache")
	}
}

// invalidate bumps the generation and drops every cached history series.
func (c *reportCache) invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Incr(ctx, historyGenerationKey).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to advance report cache generation")
	}

	iter := c.client.Scan(ctx, 0, historyCachePattern, 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to scan report cache")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to invalidate report cache")
	}
}
