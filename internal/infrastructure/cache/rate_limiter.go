package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quotedesk/backend/internal/domain/access"
	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "gateway:ratelimit:"

// RedisRateLimiter implements access.RateLimiter with a fixed window
// counter shared across instances. A limiter outage fails open: admission
// control still applies, only the issuance throttle is lost.
type RedisRateLimiter struct {
	client *redis.Client
}

// NewRedisRateLimiter creates a Redis-backed rate limiter with an existing client
func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client}
}

// Allow increments the subject's counter and reports whether it is within the limit
func (l *RedisRateLimiter) Allow(ctx context.Context, subject string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf("%s%s", rateLimitKeyPrefix, subject)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return true, err
		}
	}

	return count <= int64(limit), nil
}

var _ access.RateLimiter = (*RedisRateLimiter)(nil)

type rateWindow struct {
	count    int
	windowAt time.Time
}

// InMemoryRateLimiter implements access.RateLimiter for single-instance
// deployments and testing.
type InMemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
}

// NewInMemoryRateLimiter creates an in-memory rate limiter
func NewInMemoryRateLimiter() *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		windows: make(map[string]*rateWindow),
	}
}

// Allow increments the subject's counter and reports whether it is within the limit
func (l *InMemoryRateLimiter) Allow(ctx context.Context, subject string, limit int, window time.Duration) (bool, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[subject]
	if !exists || now.Sub(w.windowAt) >= window {
		l.windows[subject] = &rateWindow{count: 1, windowAt: now}
		return limit >= 1, nil
	}

	w.count++
	return w.count <= limit, nil
}

var _ access.RateLimiter = (*InMemoryRateLimiter)(nil)
