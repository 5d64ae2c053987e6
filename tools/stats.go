package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

const networkStatsToolName = "get_network_stats"

type networkStatsArgs struct {
	rangeArgs

	DataType  string `json:"data_type"`
	Frequency string `json:"frequency"`
}

func (r *Registry) networkStatsTool() Tool {
	return Tool{
		Name:        networkStatsToolName,
		Description: "Retrieve network statistics data including blockchain metrics, account numbers, and economic indicators",
		InputSchema: objectSchema(append(rangeProps(),
			enumProp("data_type", "Latest snapshot or history", "current", "history"),
			strProp("frequency", `History frequency, e.g. "by_day"`).def("by_day"),
		)...),
		handler: r.networkStats,
	}
}

func (r *Registry) networkStats(ctx context.Context, raw json.RawMessage) (any, error) {
	args := networkStatsArgs{DataType: "current", Frequency: "by_day"}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if err := oneOf("data_type", args.DataType, "current", "history"); err != nil {
		return nil, err
	}

	if args.DataType == "current" {
		v := r.fetch(ctx, "stats/latest", nil)
		if item, ok := firstItem(v); ok {
			return conform[networkStats](ctx, r, networkStatsToolName, item), nil
		}
		return v, nil
	}

	if err := args.validate(); err != nil {
		return nil, err
	}
	p := args.params()
	p["frequency"] = args.Frequency
	return conform[networkStatsList](ctx, r, networkStatsToolName, r.fetch(ctx, "stats/history", p)), nil
}

type subnetArgs struct {
	Netuid   *int   `json:"netuid"`
	DataType string `json:"data_type"`
}

var distributionEndpoints = map[string]string{
	"coldkey_distribution": "subnet/distribution/coldkey",
	"ip_distribution":      "subnet/distribution/ip",
	"miner_incentive":      "subnet/distribution/incentive",
}

func (r *Registry) subnetDistributionTool() Tool {
	return Tool{
		Name:        "get_subnet_distribution",
		Description: "Get distribution statistics about subnets including coldkey distribution and IP distribution",
		InputSchema: objectSchema(
			intProp("netuid", "Subnet ID").min(0).def(1),
			enumProp("data_type", "Distribution to query", "coldkey_distribution", "ip_distribution", "miner_incentive"),
		),
		handler: r.subnetDistribution,
	}
}

func (r *Registry) subnetDistribution(ctx context.Context, raw json.RawMessage) (any, error) {
	args := subnetArgs{DataType: "coldkey_distribution"}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	netuid := orDefault(args.Netuid, 1)
	if netuid < 0 {
		return nil, invalid("netuid", "must be non-negative, got %d", netuid)
	}
	endpoint, ok := distributionEndpoints[args.DataType]
	if !ok {
		return nil, oneOf("data_type", args.DataType, "coldkey_distribution", "ip_distribution", "miner_incentive")
	}
	return r.fetch(ctx, endpoint, map[string]any{"netuid": netuid}), nil
}

func (r *Registry) cacheStatsTool() Tool {
	return Tool{
		Name:        "get_cache_stats",
		Description: "Report response cache size and hit rate, and the remaining TaoStats request budget for the current minute",
		InputSchema: objectSchema(),
		handler: func(_ context.Context, raw json.RawMessage) (any, error) {
			if err := decodeArgs(raw, &struct{}{}); err != nil {
				return nil, err
			}
			return r.cacheStats(), nil
		},
	}
}

func (r *Registry) cacheStats() map[string]any {
	out := map[string]any{}

	if r.stats != nil {
		s := r.stats.Stats()
		ratio := 0.0
		if lookups := s.Hits + s.Misses; lookups > 0 {
			ratio = float64(s.Hits) / float64(lookups)
		}
		out["size"] = s.Size
		out["hits"] = s.Hits
		out["misses"] = s.Misses
		out["sets"] = s.Sets
		out["evictions"] = s.Evictions
		out["hit_ratio"] = ratio
	}

	if !r.limiter.Enabled() {
		out["rate_limit"] = "disabled"
		return out
	}

	w := r.limiter.Stats()
	out["minute_request_limit"] = w.Limit
	out["current_minute_requests"] = w.Used
	out["api_calls_remaining"] = w.Remaining
	if w.Remaining > 0 {
		out["window_reset_time"] = "Available now"
	} else {
		out["window_reset_time"] = fmt.Sprintf("%d seconds", int(w.ResetIn.Seconds()))
	}
	return out
}
