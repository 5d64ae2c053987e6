package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonwraymond/taostats-mcp/cache"
	"github.com/jonwraymond/taostats-mcp/fetch"
	"github.com/jonwraymond/taostats-mcp/observe"
	"github.com/jonwraymond/taostats-mcp/resilience"
)

// Namespace groups the tools in span names and tool IDs.
const Namespace = "taostats"

// Fetcher performs cached TaoStats calls.
type Fetcher interface {
	Fetch(ctx context.Context, req fetch.Request) any
}

// StatsSource reports cache statistics.
type StatsSource interface {
	Stats() cache.Stats
}

// Handler runs a tool against raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Tool is a registered tool.
type Tool struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	InputSchema json.RawMessage `json:"inputSchema" yaml:"-"`

	handler Handler
}

// Meta returns the observability metadata for t.
func (t Tool) Meta() observe.ToolMeta {
	return observe.ToolMeta{Namespace: Namespace, Name: t.Name}
}

// Registry holds the tool set. It is immutable after New and safe for
// concurrent use.
type Registry struct {
	fetcher Fetcher
	now     func() time.Time
	stats   StatsSource
	limiter *resilience.WindowLimiter
	logger  observe.Logger

	tools []Tool
	index map[string]int
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source used for day windows.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithCacheStats enables cache figures in get_cache_stats.
func WithCacheStats(s StatsSource) Option {
	return func(r *Registry) {
		r.stats = s
	}
}

// WithLimiter enables request budget figures in get_cache_stats.
func WithLimiter(l *resilience.WindowLimiter) Option {
	return func(r *Registry) {
		r.limiter = l
	}
}

// WithLogger sets the logger that reports upstream payloads of an
// unexpected shape.
func WithLogger(l observe.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// New builds the registry with every TaoStats tool.
func New(f Fetcher, opts ...Option) *Registry {
	r := &Registry{
		fetcher: f,
		now:     time.Now,
		logger:  observe.NopLogger(),
		index:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, t := range []Tool{
		r.priceTool(),
		r.walletTool(),
		r.tradingViewTool(),
		r.blocksTool(),
		r.extrinsicsTool(),
		r.eventsTool(),
		r.networkStatsTool(),
		r.subnetDistributionTool(),
		r.cacheStatsTool(),
	} {
		r.index[t.Name] = len(r.tools)
		r.tools = append(r.tools, t)
	}
	return r
}

// List returns the tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Lookup returns the named tool.
func (r *Registry) Lookup(name string) (Tool, bool) {
	i, ok := r.index[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// Call runs the named tool.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return t.handler(ctx, args)
}

func (r *Registry) fetch(ctx context.Context, endpoint string, params map[string]any) any {
	return r.fetcher.Fetch(ctx, fetch.Request{Endpoint: endpoint, Params: params})
}
