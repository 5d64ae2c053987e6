package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return NewTracer(tp.Tracer("test")), recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

// TestToolMeta_Naming verifies span names and IDs with and without namespace.
func TestToolMeta_Naming(t *testing.T) {
	tests := []struct {
		name     string
		meta     ToolMeta
		wantSpan string
		wantID   string
	}{
		{
			name:     "with namespace",
			meta:     ToolMeta{Namespace: "taostats", Name: "get_price_data"},
			wantSpan: "taostats.tool.taostats.get_price_data",
			wantID:   "taostats.get_price_data",
		},
		{
			name:     "without namespace",
			meta:     ToolMeta{Name: "get_cache_stats"},
			wantSpan: "taostats.tool.get_cache_stats",
			wantID:   "get_cache_stats",
		},
		{
			name:     "explicit id",
			meta:     ToolMeta{ID: "custom", Name: "get_events_data"},
			wantSpan: "taostats.tool.get_events_data",
			wantID:   "custom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.SpanName(); got != tt.wantSpan {
				t.Errorf("SpanName() = %q, want %q", got, tt.wantSpan)
			}
			if got := tt.meta.ToolID(); got != tt.wantID {
				t.Errorf("ToolID() = %q, want %q", got, tt.wantID)
			}
		})
	}

	if err := (ToolMeta{}).Validate(); !errors.Is(err, ErrMissingToolName) {
		t.Errorf("Validate() error = %v, want ErrMissingToolName", err)
	}
}

// TestTracer_ToolSpanError verifies error status is recorded on tool spans.
func TestTracer_ToolSpanError(t *testing.T) {
	tracer, recorder := newRecordingTracer()

	ctx := WithRequestID(context.Background(), "req-7")
	_, span := tracer.StartSpan(ctx, ToolMeta{Name: "get_wallet_data"})
	tracer.EndSpan(span, errors.New("invalid address format"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status().Code)
	}
	if v, _ := spanAttr(spans[0], "tool.error"); !v.AsBool() {
		t.Error("tool.error attribute not set")
	}
	if v, _ := spanAttr(spans[0], "request.id"); v.AsString() != "req-7" {
		t.Errorf("request.id = %q, want req-7", v.AsString())
	}
}

// TestTracer_FetchSpan verifies fetch span naming and outcome attributes.
func TestTracer_FetchSpan(t *testing.T) {
	tracer, recorder := newRecordingTracer()

	_, span := tracer.StartFetch(context.Background(), "price/latest")
	tracer.EndFetch(span, FetchRecord{Endpoint: "price/latest", Source: "cache", TTLClass: "dynamic"})

	_, span = tracer.StartFetch(context.Background(), "block")
	tracer.EndFetch(span, FetchRecord{Endpoint: "block", Source: "failed", TTLClass: "dynamic", FailureKind: "timeout", Message: "read timeout"})

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	if spans[0].Name() != "taostats.fetch.price/latest" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	if v, _ := spanAttr(spans[0], "taostats.source"); v.AsString() != "cache" {
		t.Errorf("taostats.source = %q, want cache", v.AsString())
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("hit status = %v, want Ok", spans[0].Status().Code)
	}

	if spans[1].Status().Code != codes.Error || spans[1].Status().Description != "read timeout" {
		t.Errorf("failure status = %+v", spans[1].Status())
	}
	if v, _ := spanAttr(spans[1], "taostats.failure_kind"); v.AsString() != "timeout" {
		t.Errorf("taostats.failure_kind = %q, want timeout", v.AsString())
	}
}

// TestTracer_Noop verifies the no-op tracer produces non-recording spans.
func TestTracer_Noop(t *testing.T) {
	tracer := NoopTracer()
	_, span := tracer.StartFetch(context.Background(), "price/latest")
	if span.IsRecording() {
		t.Error("noop span should not record")
	}
	tracer.EndFetch(span, FetchRecord{})

	if _, ok := NewTracer(nil).(*noopTracer); !ok {
		t.Error("NewTracer(nil) should fall back to the no-op tracer")
	}
}
