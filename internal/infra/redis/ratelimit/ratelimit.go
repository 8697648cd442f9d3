// Package infra_redis_ratelimit implements a fixed-window counter per
// caller identity as an atomic increment-with-expiry. If the store is
// unavailable the limiter fails closed: its own availability must not
// become an abuse vector.
package infra_redis_ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-redis/redis"
	"github.com/partydeck/core/internal/model"
)

type Limiter struct {
	client      *redis.Client
	window      time.Duration
	maxRequests int
	logger      *slog.Logger
}

func New(client *redis.Client, window time.Duration, maxRequests int) *Limiter {
	return &Limiter{
		client:      client,
		window:      window,
		maxRequests: maxRequests,
		logger:      slog.Default(),
	}
}

// Allow counts one request against the identifier's current window and
// reports whether it fits the budget.
func (l *Limiter) Allow(ctx context.Context, identifier string) model.RateLimitResult {
	key := "rate_limit:" + identifier
	now := time.Now()
	resetAt := now.Truncate(l.window).Add(l.window)

	count, err := l.client.Incr(key).Result()
	if err != nil {
		l.logger.Error("rate limit check failed, denying", "error", err, "identifier", identifier)
		return model.RateLimitResult{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}

	if count == 1 {
		// first request in this window starts its expiry clock
		if err := l.client.Expire(key, l.window).Err(); err != nil {
			l.logger.Error("rate limit expire failed", "error", err, "identifier", identifier)
		}
	}

	remaining := l.maxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return model.RateLimitResult{
		Allowed:   count <= int64(l.maxRequests),
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
