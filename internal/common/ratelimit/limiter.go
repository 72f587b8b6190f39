// internal/common/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"time"
)

// Policy is a fixed quota per fixed window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Result describes the caller's quota after one request was counted.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

// RetryAfter is the time left until the window resets, rounded up to a second.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetTime.Sub(now)
	if d <= 0 {
		return 0
	}
	return (d + time.Second - 1) / time.Second * time.Second
}

// RateLimiter counts a request against key and reports whether it is allowed.
// Every call consumes quota, including rejected ones.
type RateLimiter interface {
	Check(ctx context.Context, key string) (Result, error)
}

func newResult(p Policy, count int, resetAt time.Time) Result {
	remaining := p.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= p.Limit,
		Limit:     p.Limit,
		Remaining: remaining,
		ResetTime: resetAt,
	}
}
