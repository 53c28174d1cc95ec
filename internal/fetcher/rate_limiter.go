package fetcher

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces requests to the same host at rpm requests per minute.
// The pipeline is sequential, but the limiter stays host-keyed so mixed URL
// lists throttle each database host independently.
type RateLimiter struct {
	interval   time.Duration
	lastByHost map[string]time.Time
	mu         sync.Mutex
}

func NewRateLimiter(rpm int) *RateLimiter {
	return &RateLimiter{
		interval:   time.Minute / time.Duration(rpm),
		lastByHost: make(map[string]time.Time),
	}
}

// Wait blocks until the next request to host is due or ctx is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context, host string) error {
	rl.mu.Lock()
	last, seen := rl.lastByHost[host]
	now := time.Now()

	var wait time.Duration
	if seen {
		if due := last.Add(rl.interval); due.After(now) {
			wait = due.Sub(now)
		}
	}
	rl.lastByHost[host] = now.Add(wait)
	rl.mu.Unlock()

	if wait == 0 {
		return nil
	}

	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
