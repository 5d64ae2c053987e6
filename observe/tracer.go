package observe

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ToolMeta describes an MCP tool for telemetry purposes.
type ToolMeta struct {
	ID        string // Fully qualified tool ID (namespace.name or just name)
	Namespace string // Tool namespace (may be empty)
	Name      string // Tool name (required)
	Version   string // Tool version (optional)
}

// SpanName returns the span name for a call to this tool.
// Format: taostats.tool.<namespace>.<name> or taostats.tool.<name>
func (m ToolMeta) SpanName() string {
	if m.Namespace != "" {
		return "taostats.tool." + m.Namespace + "." + m.Name
	}
	return "taostats.tool." + m.Name
}

// ToolID returns the fully qualified tool identifier.
func (m ToolMeta) ToolID() string {
	if m.ID != "" {
		return m.ID
	}
	if m.Namespace != "" {
		return m.Namespace + "." + m.Name
	}
	return m.Name
}

// Validate reports whether the metadata is usable.
func (m ToolMeta) Validate() error {
	if m.Name == "" {
		return ErrMissingToolName
	}
	return nil
}

// FetchRecord summarizes one pass through the cached fetch path.
type FetchRecord struct {
	Endpoint    string
	Source      string // "cache", "upstream" or "failed"
	TTLClass    string
	FailureKind string // empty unless the upstream call failed
	Message     string
	Duration    time.Duration
}

// Failed reports whether the fetch degraded to an empty result.
func (r FetchRecord) Failed() bool {
	return r.FailureKind != ""
}

// FetchSpanName returns the span name for fetching endpoint.
func FetchSpanName(endpoint string) string {
	return "taostats.fetch." + endpoint
}

// Tracer wraps OpenTelemetry tracing for tool calls and upstream fetches.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: End* methods must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a span for a tool call.
	StartSpan(ctx context.Context, meta ToolMeta) (context.Context, trace.Span)

	// EndSpan ends a tool span, recording any error.
	EndSpan(span trace.Span, err error)

	// StartFetch starts a span for a cached fetch of endpoint.
	StartFetch(ctx context.Context, endpoint string) (context.Context, trace.Span)

	// EndFetch ends a fetch span with the fetch outcome.
	EndFetch(span trace.Span, rec FetchRecord)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer over the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		return NoopTracer()
	}
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta ToolMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("tool.id", meta.ToolID()),
		attribute.String("tool.name", meta.Name),
		attribute.Bool("tool.error", false),
	}
	if meta.Namespace != "" {
		attrs = append(attrs, attribute.String("tool.namespace", meta.Namespace))
	}
	if meta.Version != "" {
		attrs = append(attrs, attribute.String("tool.version", meta.Version))
	}
	if id := RequestID(ctx); id != "" {
		attrs = append(attrs, attribute.String("request.id", id))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("tool.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (t *tracerImpl) StartFetch(ctx context.Context, endpoint string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("taostats.endpoint", endpoint),
	}
	if id := RequestID(ctx); id != "" {
		attrs = append(attrs, attribute.String("request.id", id))
	}

	return t.tracer.Start(ctx, FetchSpanName(endpoint),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (t *tracerImpl) EndFetch(span trace.Span, rec FetchRecord) {
	span.SetAttributes(
		attribute.String("taostats.source", rec.Source),
		attribute.String("taostats.ttl_class", rec.TTLClass),
	)
	if rec.Failed() {
		span.SetAttributes(attribute.String("taostats.failure_kind", rec.FailureKind))
		span.SetStatus(codes.Error, rec.Message)
		span.RecordError(errors.New(rec.FailureKind + ": " + rec.Message))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// NoopTracer returns a Tracer that records nothing.
func NoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta ToolMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}

func (t *noopTracer) StartFetch(ctx context.Context, endpoint string) (context.Context, trace.Span) {
	return t.noop.Start(ctx, FetchSpanName(endpoint))
}

func (t *noopTracer) EndFetch(span trace.Span, rec FetchRecord) {
	span.End()
}
