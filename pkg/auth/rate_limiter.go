package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter throttles requests per key
type RateLimiter interface {
	// Allow reports whether the request identified by key may proceed
	Allow(ctx context.Context, key string) (bool, error)

	// Reset clears the recorded history for a key
	Reset(ctx context.Context, key string) error
}

// SlidingWindowLimiter counts requests inside a rolling window, in process
// memory. It protects a single API instance; extraction runs across the
// Lambda fleet go through the DynamoDB-backed limiter instead.
type SlidingWindowLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	history map[string][]time.Time
}

// NewSlidingWindowLimiter creates a limiter allowing limit requests per window
func NewSlidingWindowLimiter(limit int, window time.Duration) *SlidingWindowLimiter {
	l := &SlidingWindowLimiter{
		limit:   limit,
		window:  window,
		history: make(map[string][]time.Time),
	}
	go l.sweep()
	return l
}

// Allow records the request and reports whether it fits in the window
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.window)

	kept := l.history[key][:0]
	for _, ts := range l.history[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		l.history[key] = kept
		return false, nil
	}

	l.history[key] = append(kept, now)
	return true, nil
}

// Reset clears the recorded history for a key
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.history, key)
	return nil
}

// sweep drops keys whose entire history has aged out, so idle clients do
// not accumulate in memory
func (l *SlidingWindowLimiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		cutoff := time.Now().Add(-l.window)
		for key, history := range l.history {
			stale := true
			for _, ts := range history {
				if ts.After(cutoff) {
					stale = false
					break
				}
			}
			if stale {
				delete(l.history, key)
			}
		}
		l.mu.Unlock()
	}
}

// IPRateLimiter throttles unauthenticated traffic by client address
type IPRateLimiter struct {
	limiter *SlidingWindowLimiter
}

// NewIPRateLimiter creates an address-keyed limiter
func NewIPRateLimiter(requestsPerMinute int) *IPRateLimiter {
	return &IPRateLimiter{
		limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute),
	}
}

// Allow checks the limit for a client address
func (l *IPRateLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	return l.limiter.Allow(ctx, "ip:"+ip)
}

// Reset clears the history for a client address
func (l *IPRateLimiter) Reset(ctx context.Context, ip string) error {
	return l.limiter.Reset(ctx, "ip:"+ip)
}

// UserRateLimiter throttles authenticated traffic per user
type UserRateLimiter struct {
	limiter *SlidingWindowLimiter
}

// NewUserRateLimiter creates a user-keyed limiter
func NewUserRateLimiter(requestsPerMinute int) *UserRateLimiter {
	return &UserRateLimiter{
		limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute),
	}
}

// Allow checks the limit for a user
func (l *UserRateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	return l.limiter.Allow(ctx, "user:"+userID)
}

// Reset clears the history for a user
func (l *UserRateLimiter) Reset(ctx context.Context, userID string) error {
	return l.limiter.Reset(ctx, "user:"+userID)
}
