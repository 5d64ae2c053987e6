package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	logobserver "go.uber.org/zap/zaptest/observer"
)

type middlewareFixture struct {
	mw       *Middleware
	spans    *tracetest.SpanRecorder
	reader   *sdkmetric.ManualReader
	logs     *logobserver.ObservedLogs
	toolMeta ToolMeta
}

func newMiddlewareFixture(t *testing.T) middlewareFixture {
	t.Helper()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	core, logs := logobserver.New(zapcore.DebugLevel)

	return middlewareFixture{
		mw:       NewMiddleware(NewTracer(tp.Tracer("test")), metrics, NewZapLogger(zap.New(core))),
		spans:    spans,
		reader:   reader,
		logs:     logs,
		toolMeta: ToolMeta{Namespace: "taostats", Name: "get_network_stats"},
	}
}

// TestMiddleware_SuccessPath verifies successful calls record telemetry.
func TestMiddleware_SuccessPath(t *testing.T) {
	f := newMiddlewareFixture(t)

	var seenID string
	wrapped := f.mw.Wrap(func(ctx context.Context, tool ToolMeta, in any) (any, error) {
		seenID = RequestID(ctx)
		return map[string]any{"data": []any{}}, nil
	})

	result, err := wrapped(context.Background(), f.toolMeta, map[string]any{"data_type": "current"})
	if err != nil {
		t.Fatalf("wrapped() error = %v", err)
	}
	if _, ok := result.(map[string]any); !ok {
		t.Errorf("result type = %T, want map", result)
	}
	if seenID == "" {
		t.Error("handler did not receive a request id")
	}

	if got := len(f.spans.Ended()); got != 1 {
		t.Fatalf("expected 1 span, got %d", got)
	}
	if got := sumValue(t, collect(t, f.reader), MetricToolCalls); got != 1 {
		t.Errorf("%s = %d, want 1", MetricToolCalls, got)
	}

	entries := f.logs.FilterMessage("tool call completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 completion log, got %d", len(entries))
	}
	if entries[0].ContextMap()["request_id"] != seenID {
		t.Errorf("log request_id = %v, want %s", entries[0].ContextMap()["request_id"], seenID)
	}
}

// TestMiddleware_ErrorPath verifies errors pass through unchanged and are recorded.
func TestMiddleware_ErrorPath(t *testing.T) {
	f := newMiddlewareFixture(t)
	want := errors.New("page must be positive")

	wrapped := f.mw.Wrap(func(ctx context.Context, tool ToolMeta, in any) (any, error) {
		return nil, want
	})

	_, err := wrapped(context.Background(), f.toolMeta, nil)
	if !errors.Is(err, want) {
		t.Fatalf("wrapped() error = %v, want %v", err, want)
	}

	if got := sumValue(t, collect(t, f.reader), MetricToolErrors); got != 1 {
		t.Errorf("%s = %d, want 1", MetricToolErrors, got)
	}
	entries := f.logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(entries) != 1 || entries[0].ContextMap()["error"] != want.Error() {
		t.Errorf("unexpected warn entries: %+v", entries)
	}
}

// TestMiddleware_KeepsExistingRequestID verifies caller IDs are preserved.
func TestMiddleware_KeepsExistingRequestID(t *testing.T) {
	mw := NewMiddleware(nil, nil, nil)
	wrapped := mw.Wrap(func(ctx context.Context, tool ToolMeta, in any) (any, error) {
		return RequestID(ctx), nil
	})

	got, _ := wrapped(WithRequestID(context.Background(), "rpc-42"), ToolMeta{Name: "x"}, nil)
	if got != "rpc-42" {
		t.Errorf("request id = %v, want rpc-42", got)
	}
}

// TestMiddleware_MeasuresDuration verifies duration is taken around the handler.
func TestMiddleware_MeasuresDuration(t *testing.T) {
	f := newMiddlewareFixture(t)
	wrapped := f.mw.Wrap(func(ctx context.Context, tool ToolMeta, in any) (any, error) {
		time.Sleep(15 * time.Millisecond)
		return nil, nil
	})
	_, _ = wrapped(context.Background(), f.toolMeta, nil)

	entry := f.logs.All()[0]
	if d, _ := entry.ContextMap()["duration_ms"].(float64); d < 15 {
		t.Errorf("duration_ms = %v, want >= 15", d)
	}
}

// TestMiddlewareFromObserver_Nil verifies a nil observer is rejected.
func TestMiddlewareFromObserver_Nil(t *testing.T) {
	if _, err := MiddlewareFromObserver(nil); !errors.Is(err, ErrNilObserver) {
		t.Errorf("MiddlewareFromObserver(nil) error = %v, want ErrNilObserver", err)
	}
}
