package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig tunes the per-client token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns the settings used when the operator leaves
// the rate-limit knobs unset.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{RequestsPerSecond: 100, BurstSize: 200}
}

// bucket is a token bucket refilled lazily on each take.
type bucket struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// take refills the bucket for the time elapsed since the last call, then
// spends one token if available.
func (b *bucket) take(cfg RateLimitConfig) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.last).Seconds() * cfg.RequestsPerSecond
	if ceiling := float64(cfg.BurstSize); b.tokens > ceiling {
		b.tokens = ceiling
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// secondsUntilToken reports how long a client should wait before retrying.
func (b *bucket) secondsUntilToken(cfg RateLimitConfig) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cfg.RequestsPerSecond <= 0 {
		return 1
	}
	return int((1-b.tokens)/cfg.RequestsPerSecond) + 1
}

// RateLimit returns middleware that throttles clients with a token bucket
// per (tenant, client IP) pair. Exhausted clients receive 429 with a
// Retry-After hint.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	var (
		mu      sync.Mutex
		buckets = make(map[string]*bucket)
	)
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	bucketFor := func(key string) *bucket {
		mu.Lock()
		defer mu.Unlock()
		b, ok := buckets[key]
		if !ok {
			b = &bucket{tokens: float64(cfg.BurstSize), last: time.Now()}
			buckets[key] = b
		}
		return b
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if tenantID, ok := c.Get("tenant_id").(string); ok && tenantID != "" {
				key = tenantID + ":" + key
			}

			b := bucketFor(key)
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)
			if !b.take(cfg) {
				h.Set("Retry-After", strconv.Itoa(b.secondsUntilToken(cfg)))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
