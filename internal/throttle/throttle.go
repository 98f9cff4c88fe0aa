// Package throttle paces navigations per host.
package throttle

import (
	"context"
	"net/url"
	"sync"
	"time"
)

type RateLimiter struct {
	maxConcurrent int
	rpm           int
	hosts         map[string]*hostLimiter
	mu            sync.Mutex
	now           func() time.Time
}

type hostLimiter struct {
	sem         chan struct{} // Semaphore for concurrency
	windowStart time.Time
	requests    int
	mu          sync.Mutex
}

// NewRateLimiter allows maxConcurrent holders per host and at most rpm
// acquisitions per host per minute. rpm <= 0 disables the per-minute cap.
func NewRateLimiter(maxConcurrent, rpm int) *RateLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &RateLimiter{
		maxConcurrent: maxConcurrent,
		rpm:           rpm,
		hosts:         make(map[string]*hostLimiter),
		now:           time.Now,
	}
}

// Host returns the host part used as the limiter key. Unparseable input is
// used as-is.
func Host(location string) string {
	u, err := url.Parse(location)
	if err != nil || u.Host == "" {
		return location
	}
	return u.Host
}

// Acquire blocks until the host has a free slot and the per-minute budget
// allows another request. The returned release must be called when the
// work for that host is done.
func (rl *RateLimiter) Acquire(ctx context.Context, host string) (release func(), err error) {
	rl.mu.Lock()
	limiter, exists := rl.hosts[host]
	if !exists {
		limiter = &hostLimiter{
			sem: make(chan struct{}, rl.maxConcurrent),
		}
		rl.hosts[host] = limiter
	}
	rl.mu.Unlock()

	// Acquire semaphore (concurrency control)
	select {
	case limiter.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	release = func() { <-limiter.sem }

	if err := rl.waitBudget(ctx, limiter); err != nil {
		release()
		return nil, err
	}
	return release, nil
}

func (rl *RateLimiter) waitBudget(ctx context.Context, limiter *hostLimiter) error {
	if rl.rpm <= 0 {
		return nil
	}

	for {
		limiter.mu.Lock()
		now := rl.now()

		// Reset counters if minute has passed
		if now.Sub(limiter.windowStart) >= time.Minute {
			limiter.requests = 0
			limiter.windowStart = now
		}

		if limiter.requests < rl.rpm {
			limiter.requests++
			limiter.mu.Unlock()
			return nil
		}

		waitTime := time.Minute - now.Sub(limiter.windowStart)
		limiter.mu.Unlock()

		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
