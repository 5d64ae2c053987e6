package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	MetricToolCalls     = "taostats.tool.calls"
	MetricToolErrors    = "taostats.tool.errors"
	MetricToolDuration  = "taostats.tool.duration_ms"
	MetricFetchTotal    = "taostats.fetch.total"
	MetricFetchHits     = "taostats.fetch.cache_hits"
	MetricFetchFailures = "taostats.fetch.failures"
	MetricFetchDuration = "taostats.fetch.duration_ms"
)

// Metrics records tool call and fetch metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordExecution records a tool call with duration and error status.
	RecordExecution(ctx context.Context, meta ToolMeta, duration time.Duration, err error)

	// RecordFetch records one cached fetch.
	RecordFetch(ctx context.Context, rec FetchRecord)
}

type metricsImpl struct {
	toolCalls    metric.Int64Counter
	toolErrors   metric.Int64Counter
	toolDuration metric.Float64Histogram

	fetchTotal    metric.Int64Counter
	fetchHits     metric.Int64Counter
	fetchFailures metric.Int64Counter
	fetchDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	var (
		m   metricsImpl
		err error
	)

	if m.toolCalls, err = meter.Int64Counter(MetricToolCalls,
		metric.WithDescription("Total number of tool calls"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}
	if m.toolErrors, err = meter.Int64Counter(MetricToolErrors,
		metric.WithDescription("Tool calls rejected with an error"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if m.toolDuration, err = meter.Float64Histogram(MetricToolDuration,
		metric.WithDescription("Tool call duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.fetchTotal, err = meter.Int64Counter(MetricFetchTotal,
		metric.WithDescription("Total number of cached fetches"),
		metric.WithUnit("{fetch}"),
	); err != nil {
		return nil, err
	}
	if m.fetchHits, err = meter.Int64Counter(MetricFetchHits,
		metric.WithDescription("Fetches served from the cache"),
		metric.WithUnit("{fetch}"),
	); err != nil {
		return nil, err
	}
	if m.fetchFailures, err = meter.Int64Counter(MetricFetchFailures,
		metric.WithDescription("Fetches that degraded to an empty result"),
		metric.WithUnit("{fetch}"),
	); err != nil {
		return nil, err
	}
	if m.fetchDuration, err = meter.Float64Histogram(MetricFetchDuration,
		metric.WithDescription("Fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

func (m *metricsImpl) RecordExecution(ctx context.Context, meta ToolMeta, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("tool.id", meta.ToolID()),
		attribute.String("tool.name", meta.Name),
	}
	if meta.Namespace != "" {
		attrs = append(attrs, attribute.String("tool.namespace", meta.Namespace))
	}
	opt := metric.WithAttributes(attrs...)

	m.toolCalls.Add(ctx, 1, opt)
	if err != nil {
		m.toolErrors.Add(ctx, 1, opt)
	}
	m.toolDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordFetch(ctx context.Context, rec FetchRecord) {
	endpoint := attribute.String("endpoint", rec.Endpoint)
	opt := metric.WithAttributes(endpoint, attribute.String("source", rec.Source))

	m.fetchTotal.Add(ctx, 1, opt)
	m.fetchDuration.Record(ctx, float64(rec.Duration.Milliseconds()), opt)

	switch {
	case rec.Failed():
		m.fetchFailures.Add(ctx, 1, metric.WithAttributes(endpoint, attribute.String("kind", rec.FailureKind)))
	case rec.Source == "cache":
		m.fetchHits.Add(ctx, 1, metric.WithAttributes(endpoint, attribute.String("ttl_class", rec.TTLClass)))
	}
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

// NoopMetrics returns a Metrics that records nothing.
func NoopMetrics() Metrics {
	return noopMetrics{}
}

func (noopMetrics) RecordExecution(context.Context, ToolMeta, time.Duration, error) {}
func (noopMetrics) RecordFetch(context.Context, FetchRecord)                         {}
