package ratelimit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims entries older than the window and records the
// hit only when the key is under its limit, so rejected calls do not extend
// a lockout. Scores are unix milliseconds.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < max then
  redis.call('ZADD', key, now, ARGV[4])
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window)

local reset = now + window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
  reset = tonumber(oldest[2]) + window
end
return {allowed, count, reset}
`)

// SlidingWindow allows Max hits per key in any Window-long interval using
// a redis sorted set per key.
type SlidingWindow struct {
	Client *redis.Client
	Prefix string
	Window time.Duration
	Max    int
	Now    func() time.Time
}

func (l SlidingWindow) Allow(ctx context.Context, key string) (Decision, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	if l.Client == nil || l.Max <= 0 || l.Window <= 0 {
		return Decision{Allowed: true, Limit: l.Max, Remaining: l.Max, Reset: now.Add(l.Window)}, nil
	}

	res, err := slidingWindowScript.Run(ctx, l.Client, []string{l.Prefix + key},
		now.UnixMilli(), l.Window.Milliseconds(), l.Max, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{Reset: now.Add(l.Window)}, err
	}
	allowed, count, reset := res[0] == 1, int(res[1]), res[2]
	return Decision{
		Allowed:   allowed,
		Limit:     l.Max,
		Remaining: max(l.Max-count, 0),
		Reset:     time.UnixMilli(reset),
	}, nil
}
