package observe

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

// TestRequestID_RoundTrip verifies IDs attach to and read from contexts.
func TestRequestID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := RequestID(ctx); got != "" {
		t.Errorf("RequestID(empty) = %q, want empty", got)
	}

	ctx = WithRequestID(ctx, "abc")
	if got := RequestID(ctx); got != "abc" {
		t.Errorf("RequestID = %q, want abc", got)
	}
}

// TestEnsureRequestID verifies an existing ID is kept and a missing one is a UUID.
func TestEnsureRequestID(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("generated id %q is not a UUID: %v", id, err)
	}

	same, id2 := EnsureRequestID(ctx)
	if id2 != id || same != ctx {
		t.Errorf("EnsureRequestID replaced an existing id: %q -> %q", id, id2)
	}
}
