package cachesvc

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/academia/lms/core"
)

const keyPrefix = "rate_limit:"

// NewRedisClient returns nil when no address is configured.
func NewRedisClient(conf *core.Config) *redis.Client {
	if conf.Redis.Address == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

// RateLimiter is a fixed-window counter stored in Redis.
type RateLimiter struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
}

var _ core.RateLimiter = (*RateLimiter)(nil)

func NewRateLimiter(client redis.Cmdable, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: int64(limit), window: window}
}

func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	key = keyPrefix + key

	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		return true, 0, errors.Wrap(err, "incrementing rate limit counter")
	}
	// first hit of the window
	if count == 1 {
		if err = rl.client.Expire(ctx, key, rl.window).Err(); err != nil {
			return true, 0, errors.Wrap(err, "setting rate limit window")
		}
	}
	if count <= rl.limit {
		return true, 0, nil
	}

	ttl, err := rl.client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = rl.window
	}
	return false, ttl, nil
}

// MemoryRateLimiter is the in-process fallback used when Redis is not configured.
type MemoryRateLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	windows   map[string]*memWindow
	nextSweep time.Time
}

type memWindow struct {
	count   int
	resetAt time.Time
}

var _ core.RateLimiter = (*MemoryRateLimiter)(nil)

func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{limit: limit, window: window, windows: make(map[string]*memWindow)}
}

func (rl *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := core.Now()
	rl.sweep(now)

	w, ok := rl.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &memWindow{resetAt: now.Add(rl.window)}
		rl.windows[key] = w
	}
	w.count++
	if w.count <= rl.limit {
		return true, 0, nil
	}
	return false, w.resetAt.Sub(now), nil
}

// sweep drops the expired windows, at most once per window.
func (rl *MemoryRateLimiter) sweep(now time.Time) {
	if now.Before(rl.nextSweep) {
		return
	}
	for key, w := range rl.windows {
		if !now.Before(w.resetAt) {
			delete(rl.windows, key)
		}
	}
	rl.nextSweep = now.Add(rl.window)
}

// Len returns the number of tracked windows.
func (rl *MemoryRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// NewLimiter uses Redis when a client is available.
func NewLimiter(client *redis.Client, conf *core.Config) core.RateLimiter {
	if client == nil {
		return NewMemoryRateLimiter(conf.Server.RateLimit, conf.Server.RateLimitWindow)
	}
	return NewRateLimiter(client, conf.Server.RateLimit, conf.Server.RateLimitWindow)
}
