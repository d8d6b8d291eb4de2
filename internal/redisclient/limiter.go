package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window request counter shared by every API replica.
type Limiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewLimiter(c *Client, limit int, window time.Duration) *Limiter {
	return &Limiter{
		rdb:    c.Raw(),
		prefix: "contentgate:rl:",
		limit:  limit,
		window: window,
	}
}

// Allow counts one hit for key. When the limit is exceeded it returns false and the
// time left until the window resets.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := l.prefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		// NX keeps the first hit's expiry for the whole window
		p.ExpireNX(ctx, k, l.window)
		ttl = p.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("rate limit %s: %w", key, err)
	}

	if incr.Val() <= int64(l.limit) {
		return true, 0, nil
	}

	retry := ttl.Val()
	if retry < 0 {
		retry = l.window
	}
	return false, retry, nil
}
