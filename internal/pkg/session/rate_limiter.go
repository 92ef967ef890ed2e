// internal/pkg/session/rate_limiter.go
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultMaxLoginAttempts = 5
	DefaultLoginWindow      = 15 * time.Minute
)

// RateLimiter throttles login attempts per email address using Redis
// counters that expire with the window.
type RateLimiter struct {
	client      redis.UniversalClient
	maxAttempts int64
	window      time.Duration
}

func NewRateLimiter(client redis.UniversalClient, maxAttempts int64, window time.Duration) *RateLimiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxLoginAttempts
	}
	if window <= 0 {
		window = DefaultLoginWindow
	}
	return &RateLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

// Allow records an attempt and reports whether it is within the limit
func (r *RateLimiter) Allow(ctx context.Context, email string) (bool, error) {
	key := r.key(email)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to increment login attempt: %w", err)
	}

	// a counter without expiry would lock the email out for good
	if ttl.Val() < 0 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			r.client.Del(ctx, key)
			return false, fmt.Errorf("failed to set login attempt window: %w", err)
		}
	}

	return incr.Val() <= r.maxAttempts, nil
}

// Remaining returns how many attempts are left in the current window
func (r *RateLimiter) Remaining(ctx context.Context, email string) (int64, error) {
	count, err := r.client.Get(ctx, r.key(email)).Int64()
	if errors.Is(err, redis.Nil) {
		return r.maxAttempts, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get login attempts: %w", err)
	}

	remaining := r.maxAttempts - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset clears the counter after a successful login
func (r *RateLimiter) Reset(ctx context.Context, email string) error {
	return r.client.Del(ctx, r.key(email)).Err()
}

// Window is the throttling period, used for the user-facing message
func (r *RateLimiter) Window() time.Duration {
	return r.window
}

func (r *RateLimiter) key(email string) string {
	return fmt.Sprintf("ratelimit:login:%s", strings.ToLower(strings.TrimSpace(email)))
}
