// internal/rules/cache.go
package rules

import (
	"context"
	"errors"
	"time"

	"survey-recommender/internal/common/logger"
	"survey-recommender/internal/common/metrics"
	"survey-recommender/internal/models"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "rules:snapshot:"

// Cache is a cache-aside layer over a rule Source. The rule CRUD write path
// owns invalidation and must call Invalidate after changing a policy.
type Cache struct {
	source Source
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCache(source Source, rdb *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{
		source: source,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "rule-cache"}),
	}
}

func cacheKey(name string) string {
	return cacheKeyPrefix + name
}

func (c *Cache) LoadByName(ctx context.Context, name string) ([]models.Rule, error) {
	key := cacheKey(name)

	val, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var rules []models.Rule
		if err := json.Unmarshal([]byte(val), &rules); err == nil {
			metrics.RuleCacheLookups.WithLabelValues("hit").Inc()
			return rules, nil
		}
		c.logger.Warn("discarding unreadable rule snapshot", map[string]interface{}{"ruleName": name})
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("rule cache read failed", map[string]interface{}{
			"ruleName": name,
			"error":    err.Error(),
		})
	}
	metrics.RuleCacheLookups.WithLabelValues("miss").Inc()

	rules, err := c.source.LoadByName(ctx, name)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(rules)
	if err != nil {
		return rules, nil
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("rule cache write failed", map[string]interface{}{
			"ruleName": name,
			"error":    err.Error(),
		})
	}
	return rules, nil
}

// Invalidate drops the cached snapshot for name.
func (c *Cache) Invalidate(ctx context.Context, name string) error {
	return c.redis.Del(ctx, cacheKey(name)).Err()
}
