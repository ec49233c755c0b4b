package cache

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitKeyPrefix = "ratelimit:apikey:"
	rateLimitTTL       = 120 * time.Second
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// tokenBucketScript refills and consumes one token atomically.
// Times are in milliseconds so sub-second refill is not lost.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per millisecond
	local burst = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local data = redis.call('HMGET', key, 'tokens', 'ts')
	local tokens = tonumber(data[1]) or burst
	local ts = tonumber(data[2]) or now

	tokens = math.min(burst, tokens + math.max(0, now - ts) * rate)

	local allowed = 0
	local wait = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		wait = math.ceil((1 - tokens) / rate)
	end

	redis.call('HSET', key, 'tokens', tokens, 'ts', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, wait, math.floor(tokens)}
`)

// CheckAPIRateLimit consumes one token from keyID's bucket.
// ratePerMinute 0 means unlimited.
func (c *Cache) CheckAPIRateLimit(ctx context.Context, keyID string, ratePerMinute, burst int) (*RateLimitResult, error) {
	now := time.Now()
	if ratePerMinute <= 0 {
		return &RateLimitResult{Allowed: true, Remaining: int64(burst), ResetAt: now}, nil
	}
	if burst <= 0 {
		burst = 1
	}

	perMilli := float64(ratePerMinute) / float64(time.Minute/time.Millisecond)

	res, err := tokenBucketScript.Run(ctx, c.client,
		[]string{rateLimitKeyPrefix + keyID},
		perMilli, burst, now.UnixMilli(), int(rateLimitTTL.Seconds()),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}

	return bucketResult(now, res, perMilli, burst), nil
}

// bucketResult turns the script reply into a RateLimitResult.
func bucketResult(now time.Time, res []int64, perMilli float64, burst int) *RateLimitResult {
	allowed := res[0] == 1
	wait := time.Duration(res[1]) * time.Millisecond
	remaining := res[2]

	// Time until the bucket is full again.
	missing := float64(int64(burst) - remaining)
	refill := time.Duration(math.Ceil(missing/perMilli)) * time.Millisecond

	return &RateLimitResult{
		Allowed:    allowed,
		Remaining:  remaining,
		ResetAt:    now.Add(refill),
		RetryAfter: wait,
	}
}
