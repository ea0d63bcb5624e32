package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// FixedWindow adapts a ulule limiter to the Allower interface.
type FixedWindow struct {
	Limiter *limiter.Limiter
}

// NewFixedWindow builds a redis-backed fixed window limiter from a formatted
// rate such as "10-M".
func NewFixedWindow(client *redis.Client, prefix, formatted string) (FixedWindow, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return FixedWindow{}, fmt.Errorf("ratelimit: parse rate %q: %w", formatted, err)
	}
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return FixedWindow{}, fmt.Errorf("ratelimit: redis store: %w", err)
	}
	return FixedWindow{Limiter: limiter.New(store, rate)}, nil
}

// Allow consumes one token for key.
func (f FixedWindow) Allow(ctx context.Context, key string) (Decision, error) {
	if f.Limiter == nil {
		return Decision{Allowed: true}, nil
	}
	lctx, err := f.Limiter.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !lctx.Reached,
		Limit:     int(lctx.Limit),
		Remaining: int(lctx.Remaining),
		Reset:     time.Unix(lctx.Reset, 0),
	}, nil
}

// ParseRate converts a formatted rate ("600-M") into window and max values
// for SlidingWindow.
func ParseRate(formatted string) (time.Duration, int, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return 0, 0, fmt.Errorf("ratelimit: parse rate %q: %w", formatted, err)
	}
	return rate.Period, int(rate.Limit), nil
}
