package tools

import (
	"context"
	"encoding/json"
)

const priceToolName = "get_price_data"

type priceArgs struct {
	DataType string `json:"data_type"`
	Days     *int   `json:"days"`
	Periods  string `json:"periods"`
}

func (r *Registry) priceTool() Tool {
	return Tool{
		Name:        priceToolName,
		Description: "Retrieve TAO price data including current price, historical prices, and OHLC data for market analysis",
		InputSchema: objectSchema(
			enumProp("data_type", "Type of price data to retrieve", "current", "history", "ohlc"),
			intProp("days", `Number of days of data (used with "history" and "ohlc")`).min(1).def(DefaultDays),
			strProp("periods", `OHLC period such as "1m", "1h" or "1d"`).def("1d"),
		),
		handler: r.price,
	}
}

func (r *Registry) price(ctx context.Context, raw json.RawMessage) (any, error) {
	args := priceArgs{DataType: "current", Periods: "1d"}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	days := orDefault(args.Days, DefaultDays)
	if err := checkDays(days); err != nil {
		return nil, err
	}
	if err := oneOf("data_type", args.DataType, "current", "history", "ohlc"); err != nil {
		return nil, err
	}

	switch args.DataType {
	case "current":
		v := r.fetch(ctx, "price/latest", map[string]any{"asset": "tao"})
		if item, ok := firstItem(v); ok {
			return conform[priceData](ctx, r, priceToolName, item), nil
		}
		return v, nil
	case "history":
		start, end := window(r.now(), days)
		v := r.fetch(ctx, "price/history", map[string]any{
			"asset":           "tao",
			"timestamp_start": start,
			"timestamp_end":   end,
			"limit":           100,
			"order":           "timestamp_desc",
		})
		return conform[priceHistory](ctx, r, priceToolName, v), nil
	default:
		if args.Periods == "" {
			return nil, invalid("periods", "must not be empty")
		}
		start, end := window(r.now(), days)
		v := r.fetch(ctx, "price/ohlc", map[string]any{
			"asset":           "tao",
			"period":          args.Periods,
			"timestamp_start": start,
			"timestamp_end":   end,
			"limit":           100,
		})
		return conform[priceOHLC](ctx, r, priceToolName, v), nil
	}
}
