package cache

import (
	"context"
	"math"
	"time"

	"gin-seckill/internal/pkg/clock"
	"gin-seckill/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

type Decision struct {
	Admitted  bool
	Remaining int64
	Wait      time.Duration
}

// RateLimiter is a token bucket shared by every instance through Redis.
type RateLimiter struct {
	client redis.UniversalClient
	clock  clock.Clock
}

func NewRateLimiter(client redis.UniversalClient, clk clock.Clock) *RateLimiter {
	return &RateLimiter{
		client: client,
		clock:  clk,
	}
}

func (l *RateLimiter) TryAcquire(ctx context.Context, key string, rate float64, capacity, requested int) (Decision, error) {
	if rate <= 0 || capacity < 1 || requested < 1 {
		return Decision{}, errs.New("invalid token bucket parameters")
	}

	ttl := max(int64(math.Ceil(float64(capacity)/rate))*2, 1)
	now := l.clock.Now().UnixMilli()

	res, err := refillAndTakeScript.Run(ctx, l.client, []string{key}, rate, capacity, now, requested, ttl).Int64()
	if err != nil {
		return Decision{}, errs.Wrap(err, "token bucket script failed")
	}

	if res < 0 {
		return Decision{Admitted: false, Wait: time.Duration(-res) * time.Millisecond}, nil
	}
	return Decision{Admitted: true, Remaining: res}, nil
}
