package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jonwraymond/taostats-mcp/fetch"
	"github.com/jonwraymond/taostats-mcp/observe"
)

type tradingViewArgs struct {
	Symbol        string `json:"symbol"`
	Resolution    string `json:"resolution"`
	FromTimestamp *int64 `json:"from_timestamp"`
	ToTimestamp   *int64 `json:"to_timestamp"`
}

func (r *Registry) tradingViewTool() Tool {
	return Tool{
		Name:        "get_trading_view_data",
		Description: "Retrieve Trading View chart data for subnet price analysis with customizable time ranges and resolutions",
		InputSchema: objectSchema(
			strProp("symbol", `"SUB-" followed by the subnet netuid, e.g. "SUB-19"`).def("SUB-1"),
			strProp("resolution", "Chart resolution: 1, 5, 15, 60 (minutes) or 1D, 7D, 30D").def("1D"),
			intProp("from_timestamp", "Start as unix seconds; defaults to 30 days ago"),
			intProp("to_timestamp", "End as unix seconds; defaults to now"),
		),
		handler: r.tradingView,
	}
}

func (r *Registry) tradingView(ctx context.Context, raw json.RawMessage) (any, error) {
	args := tradingViewArgs{Symbol: "SUB-1", Resolution: "1D"}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	now := r.now().Truncate(time.Minute)
	from := orDefault(args.FromTimestamp, now.AddDate(0, 0, -DefaultDays).Unix())
	to := orDefault(args.ToTimestamp, now.Unix())
	if from >= to {
		return nil, invalid("from_timestamp", "must be earlier than to_timestamp")
	}

	v := r.fetcher.Fetch(ctx, fetch.Request{
		Endpoint: "tradingview/udf/history",
		Params: map[string]any{
			"symbol":     args.Symbol,
			"resolution": args.Resolution,
			"from":       from,
			"to":         to,
		},
		UseDtao: true,
	})

	if emptyChart(v) {
		var failure any
		if msg, degraded := fetch.IsEmptyResult(v); degraded {
			failure = msg
		} else {
			r.logger.Warn(ctx, "empty chart response",
				observe.F("symbol", args.Symbol),
				observe.F("resolution", args.Resolution),
			)
		}
		return noChartData(args.Symbol, args.Resolution, failure), nil
	}
	return conform[chartData](ctx, r, "get_trading_view_data", withRequestFields(v, args)), nil
}

// emptyChart reports whether v carries nothing to chart: no value, an empty
// value, or an empty data list.
func emptyChart(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case map[string]any:
		if len(x) == 0 {
			return true
		}
		data, ok := x["data"].([]any)
		return ok && len(data) == 0
	case []any:
		return len(x) == 0
	case string:
		return x == ""
	case bool:
		return !x
	}
	return false
}

// withRequestFields fills symbol and resolution from args when the UDF
// payload omits them.
func withRequestFields(v any, args tradingViewArgs) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m)+2)
	for k, val := range m {
		out[k] = val
	}
	if _, ok := out["symbol"]; !ok {
		out["symbol"] = args.Symbol
	}
	if _, ok := out["resolution"]; !ok {
		out["resolution"] = args.Resolution
	}
	return out
}

// noChartData is the UDF "no_data" shape. A failure message, if any, is kept.
func noChartData(symbol, resolution string, failure any) map[string]any {
	out := map[string]any{
		"symbol":     symbol,
		"resolution": resolution,
		"s":          "no_data",
	}
	for _, series := range []string{"c", "h", "l", "o", "t", "v"} {
		out[series] = []any{}
	}
	if failure != nil {
		out["error"] = failure
	}
	return out
}
