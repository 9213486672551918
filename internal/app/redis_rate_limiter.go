/**
 * @description
 * This file implements distributed rate limiting for the admin API using
 * Redis. Bulk KYC updates are the expensive path, so they are limited
 * per-actor with a fixed window implemented by an atomic INCR + PEXPIRE
 * script.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9: Redis client and Lua script support.
 */
package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var adminRateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisAdminRateLimiter implements fixed-window rate limiting backed by
// Redis so limits hold across admin-service replicas.
type RedisAdminRateLimiter struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisAdminRateLimiter creates a limiter with the given key prefix.
func NewRedisAdminRateLimiter(client redis.UniversalClient, prefix string) *RedisAdminRateLimiter {
	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		trimmed = "transfa:admin_rate_limit"
	}
	return &RedisAdminRateLimiter{
		client: client,
		prefix: strings.TrimSuffix(trimmed, ":"),
	}
}

// ConsumeRateLimit counts one request for (scope, subject) and reports the
// count within the current window plus the retry-after hint in seconds. A
// nil limiter, nil client or non-positive limit disables limiting.
func (r *RedisAdminRateLimiter) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error) {
	if r == nil || r.client == nil || limit <= 0 || window <= 0 {
		return 0, 0, nil
	}

	scope = strings.TrimSpace(scope)
	subject = strings.TrimSpace(subject)
	if scope == "" || subject == "" {
		return 0, 0, nil
	}

	windowMs := window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	key := fmt.Sprintf("%s:%s:%s", r.prefix, scope, subject)
	raw, err := adminRateLimitScript.Run(ctx, r.client, []string{key}, windowMs).Result()
	if err != nil {
		return 0, 0, err
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("unexpected redis limiter response shape: %T", raw)
	}
	current, ok := values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected redis limiter count type: %T", values[0])
	}
	ttlMs, ok := values[1].(int64)
	if !ok {
		return int(current), 0, fmt.Errorf("unexpected redis limiter ttl type: %T", values[1])
	}
	if ttlMs < 0 {
		ttlMs = windowMs
	}

	return int(current), int(math.Ceil(float64(ttlMs) / 1000.0)), nil
}
