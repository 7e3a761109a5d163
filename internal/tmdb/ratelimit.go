package tmdb

import (
	"context"
	"sync"
	"time"
)

// TMDB allows roughly 40 requests per 10 seconds; stay under it.
const (
	DefaultRateLimit  = 35
	DefaultRateWindow = 10 * time.Second
)

// RateLimiter caps calls to limit per rolling window. Callers over the cap
// block until the oldest call in the window ages out.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time
	now    func() time.Time
}

// NewRateLimiter creates a limiter allowing limit calls per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// sharedLimiter is used by every Client that is not given its own, so the
// cap holds for the whole process.
var sharedLimiter = NewRateLimiter(DefaultRateLimit, DefaultRateWindow)

// Wait blocks until a call may proceed or ctx is done.
func (l *RateLimiter) Wait(ctx context.Context) error {
	for {
		delay := l.reserve()
		if delay <= 0 {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve records a call and returns 0, or returns how long to wait before
// trying again.
func (l *RateLimiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	expired := 0
	for expired < len(l.stamps) && now.Sub(l.stamps[expired]) >= l.window {
		expired++
	}
	l.stamps = l.stamps[expired:]

	if len(l.stamps) < l.limit {
		l.stamps = append(l.stamps, now)
		return 0
	}
	return l.window - now.Sub(l.stamps[0])
}
