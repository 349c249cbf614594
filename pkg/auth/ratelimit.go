package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyRateLimiter holds one token bucket per API key.
type KeyRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyRateLimiter creates a limiter allowing rps sustained requests and burst
// extra requests per key.
func NewKeyRateLimiter(rps float64, burst int) *KeyRateLimiter {
	return &KeyRateLimiter{
		limiters: make(map[string]*limiterEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether a request for key may proceed now.
func (l *KeyRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// Prune drops buckets idle for longer than idle. The cutoff is never shorter
// than the time an empty bucket needs to refill, so a dropped bucket was full
// and recreating it does not reset the limit early.
func (l *KeyRateLimiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if refill := l.refillDuration(); idle < refill {
		idle = refill
	}

	cutoff := l.now().Add(-idle)
	removed := 0
	for key, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
			removed++
		}
	}
	return removed
}

// refillDuration is how long an empty bucket takes to hold burst tokens again.
func (l *KeyRateLimiter) refillDuration() time.Duration {
	if l.rps <= 0 || l.rps == rate.Inf {
		return 0
	}
	return time.Duration(float64(l.burst) / float64(l.rps) * float64(time.Second))
}

// StartCleanup prunes idle buckets every interval until ctx is done.
func (l *KeyRateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Prune(interval)
			}
		}
	}()
}

// Len returns the number of tracked keys.
func (l *KeyRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
