package resilience

import (
	"context"
	"sync"
	"time"
)

// WindowLimiterConfig configures the sliding-window limiter.
type WindowLimiterConfig struct {
	// Limit is the number of requests allowed per Window.
	// Zero or negative disables limiting.
	Limit int

	// Window is the sliding window length.
	// Default: 1 minute
	Window time.Duration

	// WaitOnLimit waits for the window to free a slot instead of
	// returning ErrRateLimitExceeded.
	WaitOnLimit bool

	// MaxWait caps how long WaitOnLimit may block.
	// Default: 1 minute
	MaxWait time.Duration

	// Now overrides the time source.
	Now func() time.Time
}

// WindowLimiter counts requests in a sliding window, the way the TaoStats
// API meters its per-minute quota.
type WindowLimiter struct {
	config WindowLimiterConfig

	mu         sync.Mutex
	timestamps []time.Time
}

// WindowStats describes the limiter's current window.
type WindowStats struct {
	Limit     int
	Used      int
	Remaining int
	ResetIn   time.Duration
}

// NewWindowLimiter creates a new sliding-window limiter.
func NewWindowLimiter(config WindowLimiterConfig) *WindowLimiter {
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.MaxWait <= 0 {
		config.MaxWait = time.Minute
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &WindowLimiter{config: config}
}

// Enabled reports whether the limiter enforces a budget.
func (l *WindowLimiter) Enabled() bool {
	return l != nil && l.config.Limit > 0
}

// Allow records a request if the window has room.
func (l *WindowLimiter) Allow() bool {
	if !l.Enabled() {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.config.Now()
	l.pruneLocked(now)
	if len(l.timestamps) >= l.config.Limit {
		return false
	}
	l.timestamps = append(l.timestamps, now)
	return true
}

// WaitTime returns how long until the oldest request leaves the window.
// Zero means a request would be allowed now.
func (l *WindowLimiter) WaitTime() time.Duration {
	if !l.Enabled() {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waitTimeLocked(l.config.Now())
}

// Wait blocks until a request is allowed, MaxWait elapses, or ctx ends.
func (l *WindowLimiter) Wait(ctx context.Context) error {
	deadline := l.config.Now().Add(l.config.MaxWait)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if l.Allow() {
			return nil
		}

		wait := l.WaitTime()
		if l.config.Now().Add(wait).After(deadline) {
			return ErrRateLimitExceeded
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Execute runs the operation if the window allows it.
func (l *WindowLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if l.Enabled() {
		if l.config.WaitOnLimit {
			if err := l.Wait(ctx); err != nil {
				return err
			}
		} else if !l.Allow() {
			return ErrRateLimitExceeded
		}
	}
	return op(ctx)
}

// Stats returns a snapshot of the current window.
func (l *WindowLimiter) Stats() WindowStats {
	if !l.Enabled() {
		return WindowStats{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.config.Now()
	l.pruneLocked(now)

	remaining := l.config.Limit - len(l.timestamps)
	if remaining < 0 {
		remaining = 0
	}
	return WindowStats{
		Limit:     l.config.Limit,
		Used:      len(l.timestamps),
		Remaining: remaining,
		ResetIn:   l.waitTimeLocked(now),
	}
}

// Reset forgets all recorded requests.
func (l *WindowLimiter) Reset() {
	l.mu.Lock()
	l.timestamps = nil
	l.mu.Unlock()
}

func (l *WindowLimiter) pruneLocked(now time.Time) {
	keep := l.timestamps[:0]
	for _, ts := range l.timestamps {
		if now.Sub(ts) < l.config.Window {
			keep = append(keep, ts)
		}
	}
	l.timestamps = keep
}

func (l *WindowLimiter) waitTimeLocked(now time.Time) time.Duration {
	l.pruneLocked(now)
	if len(l.timestamps) < l.config.Limit || len(l.timestamps) == 0 {
		return 0
	}
	// timestamps are appended in order, so the first is the oldest
	wait := l.timestamps[0].Add(l.config.Window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}
