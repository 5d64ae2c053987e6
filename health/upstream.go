package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultUpstreamWindow is how many recent upstream calls are considered.
const DefaultUpstreamWindow = 20

// UpstreamChecker tracks the outcome of recent upstream calls.
//
// It is degraded when half or more of the window failed and unhealthy when
// every call in a full window failed. Cache hits are not upstream calls and
// should not be recorded.
type UpstreamChecker struct {
	mu       sync.Mutex
	window   []bool
	next     int
	filled   int
	lastErr  string
	lastSeen time.Time
	now      func() time.Time
}

// NewUpstreamChecker creates a checker over the last size calls.
func NewUpstreamChecker(size int) *UpstreamChecker {
	if size <= 0 {
		size = DefaultUpstreamWindow
	}
	return &UpstreamChecker{window: make([]bool, size), now: time.Now}
}

// Name returns the name of this checker.
func (u *UpstreamChecker) Name() string {
	return "upstream"
}

// Record stores the outcome of one upstream call. reason is kept for
// reporting when the call failed.
func (u *UpstreamChecker) Record(ok bool, reason string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.window[u.next] = ok
	u.next = (u.next + 1) % len(u.window)
	if u.filled < len(u.window) {
		u.filled++
	}
	if !ok {
		u.lastErr = reason
	}
	u.lastSeen = u.now()
}

// Check reports the failure ratio of the window.
func (u *UpstreamChecker) Check(_ context.Context) Result {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.filled == 0 {
		return Healthy("no upstream calls yet")
	}

	failed := 0
	for i := 0; i < u.filled; i++ {
		if !u.window[i] {
			failed++
		}
	}

	details := map[string]any{
		"calls":     u.filled,
		"failed":    failed,
		"last_call": u.lastSeen.UTC().Format(time.RFC3339),
	}
	if failed > 0 {
		details["last_error"] = u.lastErr
	}

	msg := fmt.Sprintf("%d of %d recent upstream calls failed", failed, u.filled)
	switch {
	case failed == len(u.window):
		return Unhealthy(msg, ErrCheckFailed).WithDetails(details)
	case failed*2 >= u.filled:
		return Degraded(msg).WithDetails(details)
	default:
		return Healthy(msg).WithDetails(details)
	}
}
