package requests

import (
	"context"
	"sync"
	"time"

	"coderanker/pkg/apperrors"
	"coderanker/pkg/config"
)

// Single rate limit window.
type limitWindow struct {
	limit         int
	resetInterval time.Duration
	count         int
	lastReset     time.Time
}

// RateLimiter keeps every window of a provider, a request is only allowed when all of them have room.
type RateLimiter struct {
	provider string
	windows  []*limitWindow
	now      func() time.Time
	mu       sync.Mutex
}

// NewRateLimiter creates a limiter for the provider with the given windows.
func NewRateLimiter(provider string, limits ...config.LimitConfig) *RateLimiter {
	r := &RateLimiter{
		provider: provider,
		now:      time.Now,
	}

	start := r.now()
	for _, limit := range limits {
		r.windows = append(r.windows, &limitWindow{
			limit:         limit.Count,
			resetInterval: limit.ResetInterval,
			lastReset:     start,
		})
	}

	return r
}

// Wait blocks until a request can be done or the context ends.
// When the context ends first the request is reported as rate limited.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		waitTime, ok := r.reserve()
		if ok {
			return nil
		}

		timer := time.NewTimer(waitTime)
		select {
		case <-ctx.Done():
			timer.Stop()
			return apperrors.NewProviderError(r.provider, apperrors.ErrProviderRateLimited, ctx.Err())
		case <-timer.C:
		}
	}
}

// Reserve a slot on every window, or return how long until the slowest full window resets.
func (r *RateLimiter) reserve() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.resetCounts(now)

	var waitTime time.Duration
	for _, window := range r.windows {
		if window.count < window.limit {
			continue
		}

		waitTill := window.resetInterval - now.Sub(window.lastReset)
		if waitTill > waitTime {
			waitTime = waitTill
		}
	}

	if waitTime > 0 {
		return waitTime, false
	}

	for _, window := range r.windows {
		window.count++
	}
	return 0, true
}

// Reset the windows that already expired.
func (r *RateLimiter) resetCounts(now time.Time) {
	for _, window := range r.windows {
		if now.Sub(window.lastReset) >= window.resetInterval {
			window.count = 0
			window.lastReset = now
		}
	}
}
