package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGuard_Empty(t *testing.T) {
	g := NewGuard()
	called := false
	if err := g.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !called {
		t.Error("operation was not executed")
	}
}

func TestGuard_PropagatesOperationError(t *testing.T) {
	want := errors.New("boom")
	g := NewGuard(WithBulkhead(NewBulkhead(BulkheadConfig{MaxConcurrent: 1})))

	if err := g.Execute(context.Background(), func(context.Context) error { return want }); !errors.Is(err, want) {
		t.Errorf("Execute() error = %v, want %v", err, want)
	}
	if got := g.Bulkhead().Metrics().Active; got != 0 {
		t.Errorf("slot not released, Active = %d", got)
	}
}

func TestGuard_LimiterRunsBeforeBulkhead(t *testing.T) {
	limiter := NewWindowLimiter(WindowLimiterConfig{Limit: 1, Window: time.Hour})
	bulkhead := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})
	g := NewGuard(WithWindowLimiter(limiter), WithBulkhead(bulkhead))

	op := func(context.Context) error { return nil }
	if err := g.Execute(context.Background(), op); err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}

	err := g.Execute(context.Background(), op)
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("second Execute() error = %v, want ErrRateLimitExceeded", err)
	}
	if got := bulkhead.Metrics().MaxActive; got != 1 {
		t.Errorf("rejected request must not reach the bulkhead, MaxActive = %d", got)
	}
	if g.Limiter() != limiter {
		t.Error("Limiter() should return the configured limiter")
	}
}
