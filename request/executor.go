package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/jonwraymond/taostats-mcp/observe"
	"github.com/jonwraymond/taostats-mcp/resilience"
)

// Default budgets.
const (
	DefaultConnectTimeout   = 5 * time.Second
	DefaultReadTimeout      = 120 * time.Second
	DefaultWriteTimeout     = 120 * time.Second
	DefaultPoolTimeout      = 120 * time.Second
	DefaultMaxConns         = 10
	DefaultMaxResponseBytes = 32 << 20
	DefaultBodySummaryBytes = 512
)

// Config configures an Executor.
type Config struct {
	// ConnectTimeout bounds dialing plus the TLS handshake.
	ConnectTimeout time.Duration

	// ReadTimeout bounds every individual socket read.
	ReadTimeout time.Duration

	// WriteTimeout bounds every individual socket write.
	WriteTimeout time.Duration

	// PoolTimeout bounds the wait for a free connection slot.
	PoolTimeout time.Duration

	// MaxConns is the number of concurrent upstream calls.
	MaxConns int

	// MinuteLimit caps upstream calls per sliding minute. Zero disables it.
	MinuteLimit int

	// MaxResponseBytes caps the accepted body size.
	MaxResponseBytes int64

	// UserAgent is sent when the caller supplies none.
	UserAgent string
}

// DefaultConfig returns the standard budgets.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:   DefaultConnectTimeout,
		ReadTimeout:      DefaultReadTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		PoolTimeout:      DefaultPoolTimeout,
		MaxConns:         DefaultMaxConns,
		MaxResponseBytes: DefaultMaxResponseBytes,
		UserAgent:        "taostats-mcp",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PoolTimeout <= 0 {
		c.PoolTimeout = d.PoolTimeout
	}
	if c.MaxConns <= 0 {
		c.MaxConns = d.MaxConns
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = d.MaxResponseBytes
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	return c
}

// Executor issues single upstream GET calls.
// It is safe for concurrent use.
type Executor struct {
	cfg    Config
	client *http.Client
	guard  *resilience.Guard
	logger observe.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for failure and debug records.
func WithLogger(l observe.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithGuard replaces the guard built from Config.
func WithGuard(g *resilience.Guard) Option {
	return func(e *Executor) {
		if g != nil {
			e.guard = g
		}
	}
}

// WithHTTPClient replaces the HTTP client. The connect, read and write
// budgets then depend on the supplied client's transport.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) {
		if c != nil {
			e.client = c
		}
	}
}

// New creates an Executor.
func New(cfg Config, opts ...Option) *Executor {
	cfg = cfg.withDefaults()

	e := &Executor{
		cfg:    cfg,
		client: &http.Client{Transport: newTransport(cfg)},
		guard: resilience.NewGuard(
			resilience.WithWindowLimiter(resilience.NewWindowLimiter(resilience.WindowLimiterConfig{
				Limit: cfg.MinuteLimit,
			})),
			resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
				MaxConcurrent: cfg.MaxConns,
				MaxWait:       cfg.PoolTimeout,
			})),
		),
		logger: observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective configuration.
func (e *Executor) Config() Config {
	return e.cfg
}

// Guard returns the guard gating upstream calls.
func (e *Executor) Guard() *resilience.Guard {
	return e.guard
}

// Close releases idle connections.
func (e *Executor) Close() {
	e.client.CloseIdleConnections()
}

type endpointKey struct{}

// WithEndpoint records the logical endpoint on ctx so failure logs can name it.
func WithEndpoint(ctx context.Context, endpoint string) context.Context {
	return context.WithValue(ctx, endpointKey{}, endpoint)
}

// EndpointFrom returns the endpoint set by WithEndpoint, or "".
func EndpointFrom(ctx context.Context) string {
	s, _ := ctx.Value(endpointKey{}).(string)
	return s
}

// Execute performs one GET against rawURL with params encoded as a query.
// It never panics and never returns an error: every outcome is a Result.
func (e *Executor) Execute(ctx context.Context, rawURL string, params map[string]any, headers http.Header) Result {
	start := time.Now()

	target, err := buildURL(rawURL, params)
	if err != nil {
		return e.fail(ctx, rawURL, &Failure{Kind: KindUnexpected, Message: err.Error()})
	}

	var (
		body   []byte
		status int
	)
	err = e.guard.Execute(ctx, func(ctx context.Context) error {
		var doErr error
		body, status, doErr = e.do(ctx, target, headers)
		return doErr
	})
	if err != nil {
		return e.fail(ctx, target, e.classify(ctx, target, err))
	}

	if status < 200 || status > 299 {
		return e.fail(ctx, target, httpFailure(status, body))
	}

	if !json.Valid(body) {
		return e.fail(ctx, target, &Failure{
			Kind:    KindUnexpected,
			Message: fmt.Sprintf("decode response from %s: %v", target, ErrInvalidJSON),
		})
	}

	e.logger.Debug(ctx, "taostats request completed",
		observe.F("endpoint", EndpointFrom(ctx)),
		observe.F("url", target),
		observe.F("status", status),
		observe.F("bytes", len(body)),
		observe.F("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return Ok(json.RawMessage(body))
}

func (e *Executor) do(ctx context.Context, target string, headers http.Header) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", e.cfg.UserAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.cfg.MaxResponseBytes+1))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if int64(len(body)) > e.cfg.MaxResponseBytes {
		return nil, resp.StatusCode, ErrResponseTooLarge
	}
	return body, resp.StatusCode, nil
}

func (e *Executor) classify(ctx context.Context, target string, err error) *Failure {
	switch {
	case errors.Is(err, resilience.ErrPoolTimeout):
		return &Failure{Kind: KindTimeout, Phase: PhasePool, Message: fmt.Sprintf("pool timeout: %s", target)}
	case errors.Is(err, resilience.ErrRateLimitExceeded):
		return &Failure{Kind: KindUnexpected, Message: fmt.Sprintf("rate limit of %d requests per minute reached: %s", e.cfg.MinuteLimit, target)}
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil:
		return &Failure{Kind: KindTimeout, Phase: PhaseRequest, Message: fmt.Sprintf("request timeout: %s", target)}
	case errors.Is(err, context.Canceled):
		return &Failure{Kind: KindUnexpected, Message: fmt.Sprintf("request canceled: %s", target)}
	case isTimeout(err):
		phase := timeoutPhase(err)
		return &Failure{Kind: KindTimeout, Phase: phase, Message: fmt.Sprintf("%s timeout: %s", phase, target)}
	default:
		return &Failure{Kind: KindUnexpected, Message: err.Error()}
	}
}

func httpFailure(status int, body []byte) *Failure {
	msg := fmt.Sprintf("%d %s", status, http.StatusText(status))
	if summary := summarize(body, DefaultBodySummaryBytes); summary != "" {
		msg += ": " + summary
	}
	if status == http.StatusUnauthorized {
		msg += " (API key is invalid or not set; check TAOSTATS_API_KEY)"
	}
	return &Failure{Kind: KindHTTPError, StatusCode: status, Message: msg}
}

// summarize trims body to at most limit bytes on a rune boundary.
func summarize(body []byte, limit int) string {
	body = bytes.TrimSpace(body)
	if len(body) <= limit {
		return string(body)
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut]) + "..."
}

func (e *Executor) fail(ctx context.Context, target string, f *Failure) Result {
	fields := []observe.Field{
		observe.F("kind", f.Kind.String()),
		observe.F("endpoint", EndpointFrom(ctx)),
		observe.F("url", target),
		observe.F("message", f.Message),
	}
	if f.Phase != "" {
		fields = append(fields, observe.F("phase", string(f.Phase)))
	}
	if f.StatusCode != 0 {
		fields = append(fields, observe.F("status", f.StatusCode))
	}
	e.logger.Error(ctx, "taostats request failed", fields...)
	return FailedWith(f)
}
