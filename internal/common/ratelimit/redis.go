// internal/common/ratelimit/redis.go
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the counter, opens the window on the first
// hit and returns {count, pttl}.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisLimiter shares fixed windows between replicas through Redis.
type RedisLimiter struct {
	client redis.Scripter
	policy Policy
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(client redis.Scripter, prefix string, policy Policy) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		policy: policy,
		prefix: prefix,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Check(ctx context.Context, key string) (Result, error) {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	raw, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, l.policy.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(raw) != 2 {
		return Result{}, fmt.Errorf("rate limit script returned %d values", len(raw))
	}

	resetAt := l.now().Add(time.Duration(raw[1]) * time.Millisecond)
	return newResult(l.policy, int(raw[0]), resetAt), nil
}
