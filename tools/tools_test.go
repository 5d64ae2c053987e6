package tools

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/taostats-mcp/cache"
	"github.com/jonwraymond/taostats-mcp/fetch"
	"github.com/jonwraymond/taostats-mcp/request"
	"github.com/jonwraymond/taostats-mcp/resilience"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 42, 0, time.UTC)

// recordingFetcher returns canned values per endpoint and records requests.
type recordingFetcher struct {
	mu        sync.Mutex
	requests  []fetch.Request
	responses map[string]any
}

func (f *recordingFetcher) Fetch(_ context.Context, req fetch.Request) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if v, ok := f.responses[req.Endpoint]; ok {
		return v
	}
	return map[string]any{"data": []any{map[string]any{"endpoint": req.Endpoint}}}
}

func (f *recordingFetcher) last(t *testing.T) fetch.Request {
	t.Helper()
	if len(f.requests) == 0 {
		t.Fatal("no fetch issued")
	}
	return f.requests[len(f.requests)-1]
}

func newTestRegistry(responses map[string]any, opts ...Option) (*Registry, *recordingFetcher) {
	f := &recordingFetcher{responses: responses}
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return New(f, opts...), f
}

func call(t *testing.T, r *Registry, name, args string) (any, error) {
	t.Helper()
	return r.Call(context.Background(), name, json.RawMessage(args))
}

func TestRegistry_List(t *testing.T) {
	r, _ := newTestRegistry(nil)

	want := []string{
		"get_price_data",
		"get_wallet_data",
		"get_trading_view_data",
		"get_blocks_data",
		"get_extrinsics_data",
		"get_events_data",
		"get_network_stats",
		"get_subnet_distribution",
		"get_cache_stats",
	}
	var got []string
	for _, tool := range r.List() {
		got = append(got, tool.Name)
		if tool.Description == "" {
			t.Errorf("%s: empty description", tool.Name)
		}
		var schema map[string]any
		if err := json.Unmarshal(tool.InputSchema, &schema); err != nil || schema["type"] != "object" {
			t.Errorf("%s: bad schema %s (%v)", tool.Name, tool.InputSchema, err)
		}
		if tool.Meta().SpanName() != "taostats.tool.taostats."+tool.Name {
			t.Errorf("%s: span name %q", tool.Name, tool.Meta().SpanName())
		}
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestRegistry_UnknownTool(t *testing.T) {
	r, _ := newTestRegistry(nil)
	if _, err := call(t, r, "get_weather", `{}`); !errors.Is(err, ErrUnknownTool) {
		t.Errorf("error = %v, want ErrUnknownTool", err)
	}
}

func TestPriceData(t *testing.T) {
	end := testNow.Truncate(time.Minute).Unix()
	start := end - 7*86400

	tests := []struct {
		name     string
		args     string
		endpoint string
		params   map[string]any
	}{
		{"default current", `{}`, "price/latest", map[string]any{"asset": "tao"}},
		{"history", `{"data_type":"history","days":7}`, "price/history", map[string]any{
			"asset": "tao", "timestamp_start": start, "timestamp_end": end, "limit": 100, "order": "timestamp_desc",
		}},
		{"ohlc", `{"data_type":"ohlc","days":7,"periods":"1h"}`, "price/ohlc", map[string]any{
			"asset": "tao", "period": "1h", "timestamp_start": start, "timestamp_end": end, "limit": 100,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, f := newTestRegistry(nil)
			if _, err := call(t, r, "get_price_data", tt.args); err != nil {
				t.Fatalf("Call() error = %v", err)
			}
			req := f.last(t)
			if req.Endpoint != tt.endpoint || !reflect.DeepEqual(req.Params, tt.params) {
				t.Errorf("request = %+v, want %s %v", req, tt.endpoint, tt.params)
			}
			if req.UseDtao || req.Version != "" {
				t.Errorf("unexpected routing: %+v", req)
			}
		})
	}
}

func TestPriceData_CurrentReturnsFirstItem(t *testing.T) {
	r, _ := newTestRegistry(map[string]any{
		"price/latest": map[string]any{"data": []any{
			map[string]any{"price": json.Number("412.5")},
			map[string]any{"price": json.Number("1")},
		}},
	})
	got, err := call(t, r, "get_price_data", `{"data_type":"current"}`)
	if err != nil {
		t.Fatal(err)
	}
	if want := map[string]any{"price": json.Number("412.5")}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestPriceData_FailurePassesThrough(t *testing.T) {
	failed := fetch.EmptyResult(&request.Failure{Kind: request.KindTimeout, Message: "read timeout: https://api.taostats.io/api/price/latest/v1"})
	r, _ := newTestRegistry(map[string]any{"price/latest": failed})

	got, err := call(t, r, "get_price_data", `{}`)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	msg, ok := fetch.IsEmptyResult(got)
	if !ok || msg != "timeout: read timeout: https://api.taostats.io/api/price/latest/v1" {
		t.Errorf("got %#v", got)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		tool  string
		args  string
		field string
	}{
		{"get_price_data", `{"days":0}`, "days"},
		{"get_price_data", `{"data_type":"weekly"}`, "data_type"},
		{"get_price_data", `{"days":"seven"}`, "days"},
		{"get_price_data", `{"data_type":"ohlc","periods":""}`, "periods"},
		{"get_price_data", `{"currency":"usd"}`, "currency"},
		{"get_price_data", `[1,2]`, "arguments"},
		{"get_wallet_data", `{"data_type":"account"}`, "address"},
		{"get_wallet_data", `{"data_type":"account_history"}`, "address"},
		{"get_wallet_data", `{"address":"1abc"}`, "address"},
		{"get_wallet_data", `{"from_address":"zz"}`, "from_address"},
		{"get_wallet_data", `{"to_address":"zz"}`, "to_address"},
		{"get_wallet_data", `{"limit":201}`, "limit"},
		{"get_wallet_data", `{"limit":0}`, "limit"},
		{"get_wallet_data", `{"page":0}`, "page"},
		{"get_wallet_data", `{"days":-1}`, "days"},
		{"get_wallet_data", `{"amount_min":"lots"}`, "amount_min"},
		{"get_wallet_data", `{"amount_max":"-1"}`, "amount_max"},
		{"get_wallet_data", `{"amount_min":"10","amount_max":"2.5"}`, "amount_min"},
		{"get_wallet_data", `{"data_type":"staking"}`, "data_type"},
		{"get_trading_view_data", `{"from_timestamp":100,"to_timestamp":100}`, "from_timestamp"},
		{"get_blocks_data", `{"block_start":10,"block_end":9}`, "block_start"},
		{"get_blocks_data", `{"timestamp_start":10,"timestamp_end":9}`, "timestamp_start"},
		{"get_extrinsics_data", `{"limit":500}`, "limit"},
		{"get_events_data", `{"page":-3}`, "page"},
		{"get_network_stats", `{"data_type":"history","limit":0}`, "limit"},
		{"get_network_stats", `{"data_type":"forecast"}`, "data_type"},
		{"get_subnet_distribution", `{"netuid":-1}`, "netuid"},
		{"get_subnet_distribution", `{"data_type":"stake"}`, "data_type"},
		{"get_cache_stats", `{"verbose":true}`, "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.tool+" "+tt.args, func(t *testing.T) {
			r, f := newTestRegistry(nil)
			_, err := call(t, r, tt.tool, tt.args)

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q (%v)", ve.Field, tt.field, err)
			}
			if !IsValidation(err) {
				t.Error("IsValidation() = false")
			}
			if len(f.requests) != 0 {
				t.Errorf("invalid call reached the fetcher: %+v", f.requests)
			}
		})
	}
}

func TestWalletData(t *testing.T) {
	const addr = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"

	tests := []struct {
		name     string
		args     string
		endpoint string
		params   map[string]any
	}{
		{"default transfers", `{}`, "transfer", map[string]any{"network": "finney", "page": 1, "limit": 50}},
		{"account", `{"data_type":"account","address":"` + addr + `","order":"balance_desc","block_start":1}`, "account/latest", map[string]any{
			"network": "finney", "page": 1, "limit": 50, "address": addr, "order": "balance_desc",
		}},
		{"account history", `{"data_type":"account_history","address":"` + addr + `","timestamp_start":1700000000,"limit":10}`, "account/history", map[string]any{
			"network": "finney", "page": 1, "limit": 10, "address": addr, "timestamp_start": int64(1700000000),
		}},
		{"transfers with filters", `{"from_address":"0xabc","to_address":"` + addr + `","amount_min":"1.50","amount_max":"100","extrinsic_id":"1-2","block_end":9}`, "transfer", map[string]any{
			"network": "finney", "page": 1, "limit": 50, "from": "0xabc", "to": addr,
			"amount_min": "1.5", "amount_max": "100", "extrinsic_id": "1-2", "block_end": int64(9),
		}},
		{"exchanges", `{"data_type":"exchanges","network":"test","page":2,"amount_min":"5"}`, "exchange", map[string]any{
			"network": "test", "page": 2, "limit": 50,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, f := newTestRegistry(nil)
			if _, err := call(t, r, "get_wallet_data", tt.args); err != nil {
				t.Fatalf("Call() error = %v", err)
			}
			req := f.last(t)
			if req.Endpoint != tt.endpoint {
				t.Errorf("Endpoint = %q, want %q", req.Endpoint, tt.endpoint)
			}
			if !reflect.DeepEqual(req.Params, tt.params) {
				t.Errorf("Params = %#v, want %#v", req.Params, tt.params)
			}
		})
	}
}

func TestTradingViewData(t *testing.T) {
	r, f := newTestRegistry(map[string]any{
		"tradingview/udf/history": map[string]any{"s": "ok", "c": []any{json.Number("1")}},
	})

	got, err := call(t, r, "get_trading_view_data", `{"symbol":"SUB-19"}`)
	if err != nil {
		t.Fatal(err)
	}
	if got.(map[string]any)["s"] != "ok" {
		t.Errorf("got %#v", got)
	}

	req := f.last(t)
	to := testNow.Truncate(time.Minute).Unix()
	want := map[string]any{"symbol": "SUB-19", "resolution": "1D", "from": to - 30*86400, "to": to}
	if !req.UseDtao || req.Endpoint != "tradingview/udf/history" || !reflect.DeepEqual(req.Params, want) {
		t.Errorf("request = %+v, want dtao with %v", req, want)
	}
}

func TestTradingViewData_NoData(t *testing.T) {
	failed := fetch.EmptyResult(&request.Failure{Kind: request.KindHTTPError, Message: "404 Not Found"})

	tests := []struct {
		name     string
		response any
		wantErr  any
	}{
		{"empty data", map[string]any{"data": []any{}}, nil},
		{"empty object", map[string]any{}, nil},
		{"null", nil, nil},
		{"empty list", []any{}, nil},
		{"failure", failed, "http_error: 404 Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRegistry(map[string]any{"tradingview/udf/history": tt.response})
			got, err := call(t, r, "get_trading_view_data", `{"symbol":"SUB-3","resolution":"60","from_timestamp":1,"to_timestamp":2}`)
			if err != nil {
				t.Fatal(err)
			}
			m := got.(map[string]any)
			if m["s"] != "no_data" || m["symbol"] != "SUB-3" || m["resolution"] != "60" {
				t.Errorf("got %#v", m)
			}
			for _, series := range []string{"c", "h", "l", "o", "t", "v"} {
				if s, ok := m[series].([]any); !ok || len(s) != 0 {
					t.Errorf("series %s = %#v", series, m[series])
				}
			}
			if m["error"] != tt.wantErr {
				t.Errorf("error = %#v, want %#v", m["error"], tt.wantErr)
			}
		})
	}
}

func TestChainTools(t *testing.T) {
	tests := []struct {
		tool     string
		args     string
		endpoint string
		params   map[string]any
	}{
		{"get_blocks_data", `{}`, "block", map[string]any{"page": 1, "limit": 50}},
		{"get_blocks_data", `{"block_start":1,"block_end":5,"validator":"5F","spec_version":220,"order":"block_number_desc"}`, "block", map[string]any{
			"page": 1, "limit": 50, "block_start": int64(1), "block_end": int64(5), "validator": "5F", "spec_version": int64(220), "order": "block_number_desc",
		}},
		{"get_extrinsics_data", `{"full_name":"SubtensorModule.move_stake","id":"5416952-0028","limit":200}`, "extrinsic", map[string]any{
			"page": 1, "limit": 200, "full_name": "SubtensorModule.move_stake", "id": "5416952-0028",
		}},
		{"get_events_data", `{"pallet":"Balances","name":"Transfer","call_id":"c","timestamp_end":99}`, "event", map[string]any{
			"page": 1, "limit": 50, "pallet": "Balances", "name": "Transfer", "call_id": "c", "timestamp_end": int64(99),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.tool+" "+tt.args, func(t *testing.T) {
			r, f := newTestRegistry(nil)
			if _, err := call(t, r, tt.tool, tt.args); err != nil {
				t.Fatalf("Call() error = %v", err)
			}
			req := f.last(t)
			if req.Endpoint != tt.endpoint || !reflect.DeepEqual(req.Params, tt.params) {
				t.Errorf("request = %s %#v, want %s %#v", req.Endpoint, req.Params, tt.endpoint, tt.params)
			}
		})
	}
}

func TestNetworkStats(t *testing.T) {
	r, f := newTestRegistry(map[string]any{
		"stats/latest": map[string]any{"data": []any{map[string]any{"block_number": json.Number("5")}}},
	})

	got, err := call(t, r, "get_network_stats", `null`)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, map[string]any{"block_number": json.Number("5")}) {
		t.Errorf("current = %#v", got)
	}
	if req := f.last(t); req.Endpoint != "stats/latest" || req.Params != nil {
		t.Errorf("request = %+v", req)
	}

	if _, err := call(t, r, "get_network_stats", `{"data_type":"history","block_number":7}`); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"page": 1, "limit": 50, "frequency": "by_day", "block_number": int64(7)}
	if req := f.last(t); req.Endpoint != "stats/history" || !reflect.DeepEqual(req.Params, want) {
		t.Errorf("history request = %+v", req)
	}
}

func TestSubnetDistribution(t *testing.T) {
	tests := []struct {
		args     string
		endpoint string
		netuid   int
	}{
		{`{}`, "subnet/distribution/coldkey", 1},
		{`{"netuid":0,"data_type":"ip_distribution"}`, "subnet/distribution/ip", 0},
		{`{"netuid":19,"data_type":"miner_incentive"}`, "subnet/distribution/incentive", 19},
	}
	for _, tt := range tests {
		r, f := newTestRegistry(nil)
		if _, err := call(t, r, "get_subnet_distribution", tt.args); err != nil {
			t.Fatalf("%s: %v", tt.args, err)
		}
		req := f.last(t)
		if req.Endpoint != tt.endpoint || req.Params["netuid"] != tt.netuid {
			t.Errorf("%s: request = %+v", tt.args, req)
		}
	}
}

func TestCacheStats(t *testing.T) {
	store := cache.NewMemoryCache()
	ctx := context.Background()
	_ = store.Set(ctx, "k", []byte(`{}`), time.Minute)
	store.Get(ctx, "k")
	store.Get(ctx, "missing")

	clock := testNow
	limiter := resilience.NewWindowLimiter(resilience.WindowLimiterConfig{
		Limit: 2,
		Now:   func() time.Time { return clock },
	})

	r, _ := newTestRegistry(nil, WithCacheStats(store), WithLimiter(limiter))

	got, err := call(t, r, "get_cache_stats", ``)
	if err != nil {
		t.Fatal(err)
	}
	m := got.(map[string]any)
	if m["size"] != 1 || m["hits"] != int64(1) || m["misses"] != int64(1) || m["hit_ratio"] != 0.5 {
		t.Errorf("cache figures = %#v", m)
	}
	if m["api_calls_remaining"] != 2 || m["window_reset_time"] != "Available now" {
		t.Errorf("budget figures = %#v", m)
	}

	limiter.Allow()
	clock = clock.Add(20 * time.Second)
	limiter.Allow()

	m = r.cacheStats()
	if m["api_calls_remaining"] != 0 || m["current_minute_requests"] != 2 || m["window_reset_time"] != "40 seconds" {
		t.Errorf("exhausted budget = %#v", m)
	}
}

func TestCacheStats_Disabled(t *testing.T) {
	r, _ := newTestRegistry(nil)
	got, err := call(t, r, "get_cache_stats", `{}`)
	if err != nil {
		t.Fatal(err)
	}
	if want := map[string]any{"rate_limit": "disabled"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}
