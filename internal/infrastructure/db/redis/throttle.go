package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const throttlePrefix = "login_attempts:"

// LoginThrottle bounds login attempts per key using a fixed window
// (INCR + EXPIRE). The expiry is set on the first hit of each window.
type LoginThrottle struct {
	client *redis.Client
	max    int64
	window time.Duration
}

// NewLoginThrottle creates a LoginThrottle wrapping the given Redis client.
func NewLoginThrottle(client *redis.Client, maxAttempts int, window time.Duration) *LoginThrottle {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginThrottle{client: client, max: int64(maxAttempts), window: window}
}

// Allow counts the attempt and reports whether it is within the window limit.
func (t *LoginThrottle) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := t.key(key)

	n, err := t.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("throttle incr: %w", err)
	}
	if n == 1 {
		if err := t.client.Expire(ctx, redisKey, t.window).Err(); err != nil {
			return false, fmt.Errorf("throttle expire: %w", err)
		}
	}
	return n <= t.max, nil
}

// Reset clears the counter, called after a successful authentication.
func (t *LoginThrottle) Reset(ctx context.Context, key string) error {
	return t.client.Del(ctx, t.key(key)).Err()
}

func (t *LoginThrottle) key(key string) string {
	return throttlePrefix + strings.ToLower(strings.TrimSpace(key))
}
