package resilience

import "context"

// Guard composes the outbound request guards.
//
// The execution order is:
// 1. WindowLimiter (if configured) - spends the per-window request budget
// 2. Bulkhead (if configured) - acquires a connection slot
type Guard struct {
	limiter  *WindowLimiter
	bulkhead *Bulkhead
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// NewGuard creates a new guard.
func NewGuard(opts ...GuardOption) *Guard {
	g := &Guard{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithWindowLimiter adds the request budget to the guard.
func WithWindowLimiter(l *WindowLimiter) GuardOption {
	return func(g *Guard) {
		g.limiter = l
	}
}

// WithBulkhead adds the connection pool gate to the guard.
func WithBulkhead(b *Bulkhead) GuardOption {
	return func(g *Guard) {
		g.bulkhead = b
	}
}

// Limiter returns the configured limiter, or nil.
func (g *Guard) Limiter() *WindowLimiter {
	return g.limiter
}

// Bulkhead returns the configured bulkhead, or nil.
func (g *Guard) Bulkhead() *Bulkhead {
	return g.bulkhead
}

// Execute runs the operation through all configured guards.
func (g *Guard) Execute(ctx context.Context, op func(context.Context) error) error {
	execute := op

	if g.bulkhead != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return g.bulkhead.Execute(ctx, inner)
		}
	}

	if g.limiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return g.limiter.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}
