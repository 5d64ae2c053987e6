package tools

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

const walletToolName = "get_wallet_data"

type walletArgs struct {
	rangeArgs

	DataType        string  `json:"data_type"`
	Address         *string `json:"address"`
	Network         string  `json:"network"`
	FromAddress     *string `json:"from_address"`
	ToAddress       *string `json:"to_address"`
	TransactionHash *string `json:"transaction_hash"`
	ExtrinsicID     *string `json:"extrinsic_id"`
	AmountMin       *string `json:"amount_min"`
	AmountMax       *string `json:"amount_max"`
	Days            *int    `json:"days"`
}

var walletEndpoints = map[string]string{
	"account":         "account/latest",
	"account_history": "account/history",
	"transfers":       "transfer",
	"exchanges":       "exchange",
}

func (r *Registry) walletTool() Tool {
	props := []prop{
		enumProp("data_type", "Type of wallet data to retrieve", "transfers", "account", "account_history", "exchanges"),
		strProp("address", `SS58 or 0x address; required for "account" and "account_history"`),
		strProp("network", "Network to query").def("finney"),
		strProp("from_address", "Filter transfers by sender address"),
		strProp("to_address", "Filter transfers by recipient address"),
		strProp("transaction_hash", "Filter transfers by transaction hash"),
		strProp("extrinsic_id", "Filter transfers by extrinsic ID"),
		strProp("amount_min", "Minimum transfer amount as a decimal string"),
		strProp("amount_max", "Maximum transfer amount as a decimal string"),
		intProp("days", "Deprecated; accepted for compatibility").min(1).def(DefaultDays),
	}
	return Tool{
		Name:        walletToolName,
		Description: "Access wallet and account data including balances, transaction history, and token transfers",
		InputSchema: objectSchema(append(props, rangeProps()...)...),
		handler:     r.wallet,
	}
}

func (r *Registry) wallet(ctx context.Context, raw json.RawMessage) (any, error) {
	args := walletArgs{DataType: "transfers", Network: "finney"}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	if err := args.validate(); err != nil {
		return nil, err
	}

	p := map[string]any{
		"network": args.Network,
		"page":    orDefault(args.Page, DefaultPage),
		"limit":   orDefault(args.Limit, DefaultLimit),
	}
	setOpt(p, "address", args.Address)
	setOpt(p, "order", args.Order)

	if args.DataType != "account" {
		setOpt(p, "block_number", args.BlockNumber)
		setOpt(p, "block_start", args.BlockStart)
		setOpt(p, "block_end", args.BlockEnd)
		setOpt(p, "timestamp_start", args.TimestampStart)
		setOpt(p, "timestamp_end", args.TimestampEnd)
	}

	if args.DataType == "transfers" {
		setOpt(p, "from", args.FromAddress)
		setOpt(p, "to", args.ToAddress)
		setOpt(p, "transaction_hash", args.TransactionHash)
		setOpt(p, "extrinsic_id", args.ExtrinsicID)
		if err := setAmounts(p, args.AmountMin, args.AmountMax); err != nil {
			return nil, err
		}
	}

	v := r.fetch(ctx, walletEndpoints[args.DataType], p)
	switch args.DataType {
	case "account":
		return conform[accountList](ctx, r, walletToolName, v), nil
	case "account_history":
		return conform[accountHistory](ctx, r, walletToolName, v), nil
	case "exchanges":
		return conform[exchangeList](ctx, r, walletToolName, v), nil
	default:
		return conform[transferList](ctx, r, walletToolName, v), nil
	}
}

func (a walletArgs) validate() error {
	if err := oneOf("data_type", a.DataType, "account", "account_history", "transfers", "exchanges"); err != nil {
		return err
	}
	if err := a.rangeArgs.validate(); err != nil {
		return err
	}
	if err := checkDays(orDefault(a.Days, DefaultDays)); err != nil {
		return err
	}
	if a.Address == nil && (a.DataType == "account" || a.DataType == "account_history") {
		return invalid("address", "is required for %s", a.DataType)
	}
	if err := checkAddress("address", a.Address); err != nil {
		return err
	}
	if err := checkAddress("from_address", a.FromAddress); err != nil {
		return err
	}
	return checkAddress("to_address", a.ToAddress)
}

// setAmounts parses the amount filters and forwards them in canonical
// decimal form.
func setAmounts(p map[string]any, minRaw, maxRaw *string) error {
	lo, err := parseAmount("amount_min", minRaw)
	if err != nil {
		return err
	}
	hi, err := parseAmount("amount_max", maxRaw)
	if err != nil {
		return err
	}
	if lo != nil && hi != nil && lo.GreaterThan(*hi) {
		return invalid("amount_min", "must be less than or equal to amount_max")
	}
	if lo != nil {
		p["amount_min"] = lo.String()
	}
	if hi != nil {
		p["amount_max"] = hi.String()
	}
	return nil
}

func parseAmount(field string, raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil, invalid(field, "must be a decimal number, got %q", *raw)
	}
	if d.IsNegative() {
		return nil, invalid(field, "must not be negative")
	}
	return &d, nil
}
