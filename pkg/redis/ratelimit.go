package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript admits a request if fewer than limit were admitted in
// the last window. Returns {admitted, remaining, retry_after_ms}.
var slidingWindowScript = redis.NewScript(`
local key, now, window, limit = KEYS[1], tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local used = redis.call('ZCARD', key)

if used < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window)
	return {1, limit - used - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local wait = 1
if oldest[2] then
	wait = math.max(1, tonumber(oldest[2]) + window - now)
end
return {0, 0, wait}
`)

// RateLimitConfig is one shared limit: at most Limit requests per Window
type RateLimitConfig struct {
	Key    string
	Limit  int
	Window time.Duration
}

// CBOERateLimit is the CDN limit shared by every optiondesk process (api, scheduler)
func CBOERateLimit(perSec int) RateLimitConfig {
	return RateLimitConfig{Key: "cboe", Limit: perSec, Window: time.Second}
}

// RateLimiter is a cross-process sliding window limiter in Redis
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
}

// NewRateLimiter creates a limiter keyed "<prefix>:ratelimit:<key>"
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{client: client, prefix: prefix}
}

// Allow tries to admit one request and reports the remaining budget
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	admitted, remaining, _, err := r.try(ctx, cfg)
	return admitted, remaining, err
}

// Wait blocks until a request is admitted or ctx ends
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		admitted, _, retryAfter, err := r.try(ctx, cfg)
		if err != nil || admitted {
			return err
		}

		timer := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *RateLimiter) try(ctx context.Context, cfg RateLimitConfig) (bool, int, time.Duration, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, 0, nil
	}

	now := time.Now().UnixMilli()
	// 같은 ms 요청끼리 ZSET 멤버가 겹치지 않게
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())

	res, err := slidingWindowScript.Run(ctx, r.client.Redis(),
		[]string{fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)},
		now, cfg.Window.Milliseconds(), cfg.Limit, member,
	).Int64Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("rate limit %s: %w", cfg.Key, err)
	}
	if len(res) != 3 {
		return false, 0, 0, fmt.Errorf("rate limit %s: unexpected reply %v", cfg.Key, res)
	}
	return res[0] == 1, int(res[1]), time.Duration(res[2]) * time.Millisecond, nil
}
