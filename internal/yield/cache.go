package yield

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultCacheTTL = 5 * time.Minute

// NewRedisClient builds and ping-validates a go-redis client from a URL.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// AnalyticsCache memoizes computed analytics in redis. A nil cache (redis not
// configured) is valid and behaves as a permanent miss, so callers never
// branch on configuration.
type AnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewAnalyticsCache wraps a connected redis client.
func NewAnalyticsCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *AnalyticsCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsCache{client: client, ttl: ttl, logger: logger}
}

// AnalyticsKey builds the cache key for a tree's analytics over a window.
func AnalyticsKey(treeID string, startDate, endDate time.Time) string {
	return fmt.Sprintf("yield:%s:analytics:%d:%d", treeID, startDate.Unix(), endDate.Unix())
}

// TrendKey builds the cache key for a tree's trend series over a window.
func TrendKey(treeID string, startDate, endDate time.Time) string {
	return fmt.Sprintf("yield:%s:trend:%d:%d", treeID, startDate.Unix(), endDate.Unix())
}

// GetAnalytics returns the cached analytics for the key, if present.
func (c *AnalyticsCache) GetAnalytics(ctx context.Context, key string) (YieldAnalytics, bool) {
	var analytics YieldAnalytics
	if !c.get(ctx, key, &analytics) {
		return YieldAnalytics{}, false
	}
	return analytics, true
}

// SetAnalytics stores analytics under the key for the cache TTL.
func (c *AnalyticsCache) SetAnalytics(ctx context.Context, key string, analytics YieldAnalytics) {
	c.set(ctx, key, analytics)
}

// GetTrend returns the cached trend series for the key, if present.
func (c *AnalyticsCache) GetTrend(ctx context.Context, key string) ([]YieldTrendPoint, bool) {
	var points []YieldTrendPoint
	if !c.get(ctx, key, &points) {
		return nil, false
	}
	return points, true
}

// SetTrend stores a trend series under the key for the cache TTL.
func (c *AnalyticsCache) SetTrend(ctx context.Context, key string, points []YieldTrendPoint) {
	c.set(ctx, key, points)
}

// Invalidate drops every cached window for the tree. Called after any log
// write that could change the tree's event history.
func (c *AnalyticsCache) Invalidate(ctx context.Context, treeID string) {
	if c == nil || c.client == nil {
		return
	}
	pattern := fmt.Sprintf("yield:%s:*", treeID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("yield cache invalidation failed", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("yield cache scan failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

func (c *AnalyticsCache) get(ctx context.Context, key string, target interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(payload, target); err != nil {
		c.logger.Warn("yield cache payload corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *AnalyticsCache) set(ctx context.Context, key string, value interface{}) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("yield cache write failed", zap.String("key", key), zap.Error(err))
	}
}
