package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"todostore/internal/core/model/response"
	"todostore/internal/core/telemetry"
	"todostore/pkg/logger"
)

// RateLimitStore counts hits in a fixed window. Increment returns the count
// including this hit and the time left until the window resets.
type RateLimitStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Name() string
}

type RateLimiter struct {
	store    RateLimitStore
	requests int
	window   time.Duration
	logger   *logger.Logger
	metrics  *telemetry.AppMetrics
}

func NewRateLimiter(store RateLimitStore, requests int, window time.Duration, logger *logger.Logger, metrics *telemetry.AppMetrics) *RateLimiter {
	return &RateLimiter{
		store:    store,
		requests: requests,
		window:   window,
		logger:   logger,
		metrics:  metrics,
	}
}

// RateLimitMiddleware limits each client to a number of requests per route
// and window. Store failures let the request through.
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		route := routeOf(c)
		key := fmt.Sprintf("rate_limit:%s %s:%s", c.Request.Method, route, c.ClientIP())

		count, resetIn, err := rl.store.Increment(ctx, key, rl.window)
		if err != nil {
			rl.logger.ErrorWithTrace(ctx, "Rate limit check failed",
				zap.String("key", key),
				zap.String("store", rl.store.Name()),
				zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(rl.requests) - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.requests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rl.requests) {
			if rl.metrics != nil {
				rl.metrics.RecordRateLimitHit(ctx, route, rl.store.Name())
			}

			rl.logger.WarnWithTrace(ctx, "Rate limit exceeded",
				zap.String("key", key),
				zap.Int("limit", rl.requests),
				zap.Duration("window", rl.window))

			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(resetIn.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.ErrorResponse{Err: "rate limit exceeded"})
			return
		}

		if rl.metrics != nil {
			rl.metrics.RecordRateLimitAllowed(ctx, route, rl.store.Name())
		}

		c.Next()
	}
}

type rateLimitEntry struct {
	Count     int64
	ResetTime time.Time
}

// MemoryStore keeps counters in process memory.
type MemoryStore struct {
	cache *cache.Cache
	mutex sync.Mutex
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(5*time.Minute, 10*time.Minute),
		now:   time.Now,
	}
}

func (ms *MemoryStore) Name() string {
	return "memory"
}

func (ms *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := ms.now()

	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	if item, found := ms.cache.Get(key); found {
		entry := item.(rateLimitEntry)

		if now.Before(entry.ResetTime) {
			entry.Count++
			ms.cache.Set(key, entry, entry.ResetTime.Sub(now))

			return entry.Count, entry.ResetTime.Sub(now), nil
		}
	}

	entry := rateLimitEntry{Count: 1, ResetTime: now.Add(window)}
	ms.cache.Set(key, entry, window)

	return entry.Count, window, nil
}

// RedisStore shares counters between instances through Redis.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (rs *RedisStore) Name() string {
	return "redis"
}

func (rs *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := rs.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}

	if count == 1 {
		if err := rs.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}

		return count, window, nil
	}

	ttl, err := rs.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, 0, err
	}

	// A key without expiry would never reset.
	if ttl < 0 {
		if err := rs.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}

		ttl = window
	}

	return count, ttl, nil
}
