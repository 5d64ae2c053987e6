package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrRateLimitExceeded is returned when the request budget for the
	// current window is spent and waiting is disabled or would exceed MaxWait.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrPoolTimeout is returned when no connection slot frees up within
	// the pool acquisition budget.
	ErrPoolTimeout = errors.New("resilience: connection pool acquisition timed out")
)
