package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/taostats-mcp/cache"
	"github.com/jonwraymond/taostats-mcp/observe"
	"github.com/jonwraymond/taostats-mcp/request"
)

// DefaultVersion is used when Request.Version is empty.
const DefaultVersion = "v1"

// Request describes one logical upstream call.
type Request struct {
	Endpoint string
	Params   map[string]any
	Version  string
	UseDtao  bool
}

// normalized returns a copy with defaults applied and Params cloned, so the
// caller's map is never shared with the cache or the executor.
func (r Request) normalized() Request {
	if r.Version == "" {
		r.Version = DefaultVersion
	}
	if r.Params != nil {
		params := make(map[string]any, len(r.Params))
		for k, v := range r.Params {
			params[k] = v
		}
		r.Params = params
	}
	return r
}

// Source tells how an Outcome was produced.
type Source int

const (
	// SourceUpstream means the payload came from a successful upstream call.
	SourceUpstream Source = iota
	// SourceCache means a fresh cached payload was returned.
	SourceCache
	// SourceFailed means the call failed and Value is the empty shape.
	SourceFailed
)

// String returns the string representation of the source.
func (s Source) String() string {
	switch s {
	case SourceCache:
		return "cache"
	case SourceFailed:
		return "failed"
	default:
		return "upstream"
	}
}

// Outcome is the full result of a fetch.
type Outcome struct {
	Value     any
	Source    Source
	Key       string
	TTLClass  cache.TTLClass
	Failure   *request.Failure
	RequestID string
	Duration  time.Duration
}

// Resolver maps an endpoint to a URL and headers.
type Resolver interface {
	ResolveURL(endpoint, version string, useDtao bool) (string, http.Header)
}

// Executor performs one upstream call.
type Executor interface {
	Execute(ctx context.Context, url string, params map[string]any, headers http.Header) request.Result
}

// Hook observes every completed fetch.
type Hook func(ctx context.Context, out Outcome)

// Fetcher is the cached fetch orchestrator.
// It is safe for concurrent use and holds no state beyond its collaborators.
type Fetcher struct {
	store    cache.Cache
	rt       *cache.ReadThrough
	keyer    cache.Keyer
	policy   cache.Policy
	resolver Resolver
	exec     Executor

	logger  observe.Logger
	tracer  observe.Tracer
	metrics observe.Metrics
	hooks   []Hook

	coalesce bool
	group    singleflight.Group
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithKeyer overrides the cache key derivation.
func WithKeyer(k cache.Keyer) Option {
	return func(f *Fetcher) {
		if k != nil {
			f.keyer = k
		}
	}
}

// WithPolicy overrides the TTL classification.
func WithPolicy(p cache.Policy) Option {
	return func(f *Fetcher) {
		f.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t observe.Tracer) Option {
	return func(f *Fetcher) {
		if t != nil {
			f.tracer = t
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observe.Metrics) Option {
	return func(f *Fetcher) {
		if m != nil {
			f.metrics = m
		}
	}
}

// WithCoalescing collapses concurrent misses for the same key into one
// upstream call. Off by default.
func WithCoalescing(enabled bool) Option {
	return func(f *Fetcher) {
		f.coalesce = enabled
	}
}

// WithHook registers a function called after every fetch.
func WithHook(h Hook) Option {
	return func(f *Fetcher) {
		if h != nil {
			f.hooks = append(f.hooks, h)
		}
	}
}

// New creates a Fetcher. A nil store disables caching.
func New(store cache.Cache, resolver Resolver, exec Executor, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:    store,
		keyer:    cache.NewDefaultKeyer(),
		policy:   cache.DefaultPolicy(),
		resolver: resolver,
		exec:     exec,
		logger:   observe.NopLogger(),
		tracer:   observe.NoopTracer(),
		metrics:  observe.NoopMetrics(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.rt = cache.NewReadThrough(store, f.policy)
	return f
}

// Policy returns the TTL classification in use.
func (f *Fetcher) Policy() cache.Policy {
	return f.policy
}

// Fetch returns the decoded payload for req, or the empty failure shape.
func (f *Fetcher) Fetch(ctx context.Context, req Request) any {
	return f.Do(ctx, req).Value
}

// Do performs the fetch and reports how the value was produced.
func (f *Fetcher) Do(ctx context.Context, req Request) Outcome {
	start := time.Now()
	req = req.normalized()

	ctx, requestID := observe.EnsureRequestID(ctx)
	ctx = request.WithEndpoint(ctx, req.Endpoint)
	ctx, span := f.tracer.StartFetch(ctx, req.Endpoint)

	out := Outcome{
		Key:       f.key(ctx, req),
		TTLClass:  f.policy.Classify(req.Endpoint),
		RequestID: requestID,
	}

	payload, source, err := f.rt.Execute(ctx, out.Key, req.Endpoint, func(ctx context.Context) ([]byte, error) {
		return f.load(ctx, out.Key, req)
	})

	if err == nil {
		out.Value, err = decode(payload)
		if err != nil {
			err = &request.Failure{Kind: request.KindUnexpected, Message: "decode payload: " + err.Error()}
		}
	}

	switch {
	case err != nil:
		out.Source = SourceFailed
		out.Failure = asFailure(err)
		out.Value = EmptyResult(out.Failure)
		f.logger.Debug(ctx, "upstream failure contained",
			observe.F("endpoint", req.Endpoint),
			observe.F("kind", out.Failure.Kind.String()),
			observe.F("message", out.Failure.Message),
		)
	case source == cache.SourceCache:
		out.Source = SourceCache
		f.logger.Debug(ctx, "cache hit",
			observe.F("endpoint", req.Endpoint),
			observe.F("ttl_class", out.TTLClass.String()),
		)
	default:
		out.Source = SourceUpstream
		f.logger.Debug(ctx, "cache miss filled",
			observe.F("endpoint", req.Endpoint),
			observe.F("ttl_class", out.TTLClass.String()),
			observe.F("ttl", out.TTLClass.TTL().String()),
		)
	}
	out.Duration = time.Since(start)

	rec := observe.FetchRecord{
		Endpoint: req.Endpoint,
		Source:   out.Source.String(),
		TTLClass: out.TTLClass.String(),
		Duration: out.Duration,
	}
	if out.Failure != nil {
		rec.FailureKind = out.Failure.Kind.String()
		rec.Message = out.Failure.Message
	}
	f.tracer.EndFetch(span, rec)
	f.metrics.RecordFetch(ctx, rec)

	for _, h := range f.hooks {
		h(ctx, out)
	}
	return out
}

// key derives the cache key. Requests whose params cannot be canonicalized
// get an empty key and bypass the cache.
func (f *Fetcher) key(ctx context.Context, req Request) string {
	key, err := f.keyer.Key(req.Endpoint, req.Params, req.Version, req.UseDtao)
	if err != nil {
		f.logger.Warn(ctx, "cache bypassed",
			observe.F("endpoint", req.Endpoint),
			observe.F("error", err.Error()),
		)
		return ""
	}
	return key
}

func (f *Fetcher) load(ctx context.Context, key string, req Request) ([]byte, error) {
	call := func() ([]byte, error) {
		url, headers := f.resolver.ResolveURL(req.Endpoint, req.Version, req.UseDtao)
		res := f.exec.Execute(ctx, url, req.Params, headers)
		if !res.IsOk() {
			return nil, res.Failure()
		}
		return res.Payload(), nil
	}

	if !f.coalesce || key == "" {
		return call()
	}

	v, err, _ := f.group.Do(key, func() (any, error) {
		return call()
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// decode parses payload with numbers kept as json.Number, so cached and
// fresh payloads decode to identical values.
func decode(payload []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func asFailure(err error) *request.Failure {
	var f *request.Failure
	if errors.As(err, &f) {
		return f
	}
	return &request.Failure{Kind: request.KindUnexpected, Message: err.Error()}
}

// EmptyResult returns the degraded value for a failed call.
func EmptyResult(f *request.Failure) map[string]any {
	return map[string]any{
		"data":  []any{},
		"error": f.Error(),
	}
}

// IsEmptyResult reports whether v is a degraded value, returning its error text.
func IsEmptyResult(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	msg, ok := m["error"].(string)
	if !ok {
		return "", false
	}
	data, ok := m["data"].([]any)
	return msg, ok && len(data) == 0
}
