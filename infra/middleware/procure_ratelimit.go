package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter applies a fixed-window limit per caller. Counters live in
// Redis so every instance behind the balancer shares the window; without
// Redis it degrades to per-instance in-memory counting.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration

	mu       sync.Mutex
	requests map[string]*requestInfo
}

type requestInfo struct {
	count     int
	expiresAt time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		rdb:      rdb,
		limit:    limit,
		window:   window,
		requests: make(map[string]*requestInfo),
	}

	if rdb == nil {
		go func() {
			ticker := time.NewTicker(time.Minute)
			for range ticker.C {
				rl.cleanup()
			}
		}()
	}

	return rl
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, info := range rl.requests {
		if now.After(info.expiresAt) {
			delete(rl.requests, key)
		}
	}
}

// Handler returns the rate limiting middleware. Authenticated callers are
// keyed by user, everything else by IP.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == "OPTIONS" {
			return c.Next()
		}

		key := c.IP()
		if userID, ok := c.Locals("user_id").(uuid.UUID); ok {
			key = userID.String()
		}

		count, retryAfter := rl.take(c, key)
		remaining := rl.limit - count
		if remaining < 0 {
			remaining = 0
		}

		c.Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.limit))
		c.Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > rl.limit {
			return c.Status(429).JSON(fiber.Map{
				"error":       "rate limit exceeded",
				"code":        "RATE_LIMITED",
				"retry_after": retryAfter,
			})
		}

		return c.Next()
	}
}

func (rl *RateLimiter) take(c *fiber.Ctx, key string) (count int, retryAfter int) {
	if rl.rdb != nil {
		redisKey := "ratelimit:" + key
		n, err := rl.rdb.Incr(c.Context(), redisKey).Result()
		if err != nil {
			// Redis outage must not take the API down with it.
			return 1, 0
		}
		if n == 1 {
			rl.rdb.Expire(c.Context(), redisKey, rl.window)
		}
		ttl, _ := rl.rdb.TTL(c.Context(), redisKey).Result()
		return int(n), int(ttl.Seconds())
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	info, exists := rl.requests[key]
	if !exists || now.After(info.expiresAt) {
		rl.requests[key] = &requestInfo{count: 1, expiresAt: now.Add(rl.window)}
		return 1, 0
	}

	info.count++
	return info.count, int(info.expiresAt.Sub(now).Seconds())
}
