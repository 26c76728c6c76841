package core

import (
	"context"
	"time"
)

// RateLimiter counts hits per key within a fixed window.
type RateLimiter interface {
	// Allow records a hit for key. When the limit is exceeded it returns false and the time left in the window.
	Allow(ctx context.Context, key string) (ok bool, retryAfter time.Duration, err error)
}
