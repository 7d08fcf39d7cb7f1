package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/richxcame/rental-insights/pkg/resilience"
)

// commandRejections are reply codes for commands the server understood and
// refused. Repeating them gives the same answer.
var commandRejections = map[string]bool{
	"ERR":       true,
	"WRONGTYPE": true,
	"NOAUTH":    true,
	"WRONGPASS": true,
	"NOPERM":    true,
	"EXECABORT": true,
}

func retryPolicy() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.InitialBackoff = 50 * time.Millisecond
	cfg.MaxBackoff = time.Second
	cfg.RetryableChecker = isRedisRetryable
	return cfg
}

// RetryableSet stores value under key, retrying connection failures.
func (c *Client) RetryableSet(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	_, err := resilience.Do(ctx, retryPolicy(), "redis.set", func(ctx context.Context) (string, error) {
		return c.Set(ctx, key, value, expiration).Result()
	})
	return err
}

// RetryableGet reads key, retrying connection failures. A missing key is
// returned as redis.Nil on the first attempt.
func (c *Client) RetryableGet(ctx context.Context, key string) (string, error) {
	return resilience.Do(ctx, retryPolicy(), "redis.get", func(ctx context.Context) (string, error) {
		return c.Get(ctx, key).Result()
	})
}

// RetryableDelete removes keys, retrying connection failures.
func (c *Client) RetryableDelete(ctx context.Context, keys ...string) error {
	_, err := resilience.Do(ctx, retryPolicy(), "redis.delete", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.Delete(ctx, keys...)
	})
	return err
}

// isRedisRetryable treats everything except a miss, a cancelled context or a
// server-side command rejection as a connection problem worth another try.
func isRedisRetryable(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, redis.Nil),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}

	code, _, _ := strings.Cut(err.Error(), " ")
	return !commandRejections[code]
}
