package tools

import (
	"context"
	"encoding/json"
)

type blocksArgs struct {
	rangeArgs

	Hash        *string `json:"hash"`
	SpecVersion *int64  `json:"spec_version"`
	Validator   *string `json:"validator"`
}

type extrinsicsArgs struct {
	rangeArgs

	Hash          *string `json:"hash"`
	FullName      *string `json:"full_name"`
	ID            *string `json:"id"`
	SignerAddress *string `json:"signer_address"`
}

type eventsArgs struct {
	rangeArgs

	Pallet      *string `json:"pallet"`
	Phase       *string `json:"phase"`
	Name        *string `json:"name"`
	FullName    *string `json:"full_name"`
	ExtrinsicID *string `json:"extrinsic_id"`
	CallID      *string `json:"call_id"`
	ID          *string `json:"id"`
}

func (r *Registry) blocksTool() Tool {
	return Tool{
		Name:        "get_blocks_data",
		Description: "Retrieve blockchain blocks data with filtering options for block numbers, timestamps, and other attributes",
		InputSchema: objectSchema(append(rangeProps(),
			strProp("hash", "Block hash"),
			intProp("spec_version", "Runtime spec version"),
			strProp("validator", "Validator address"),
		)...),
		handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args blocksArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			if err := args.validate(); err != nil {
				return nil, err
			}
			p := args.params()
			setOpt(p, "hash", args.Hash)
			setOpt(p, "spec_version", args.SpecVersion)
			setOpt(p, "validator", args.Validator)
			return conform[blockList](ctx, r, "get_blocks_data", r.fetch(ctx, "block", p)), nil
		},
	}
}

func (r *Registry) extrinsicsTool() Tool {
	return Tool{
		Name:        "get_extrinsics_data",
		Description: "Retrieve blockchain extrinsic (transaction) data with filtering options based on block, time, sender, or transaction type",
		InputSchema: objectSchema(append(rangeProps(),
			strProp("hash", "Extrinsic hash"),
			strProp("full_name", `Extrinsic full name, e.g. "SubtensorModule.move_stake"`),
			strProp("id", `Extrinsic ID, e.g. "5416952-0028"`),
			strProp("signer_address", "Signer address"),
		)...),
		handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args extrinsicsArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			if err := args.validate(); err != nil {
				return nil, err
			}
			p := args.params()
			setOpt(p, "hash", args.Hash)
			setOpt(p, "full_name", args.FullName)
			setOpt(p, "id", args.ID)
			setOpt(p, "signer_address", args.SignerAddress)
			return conform[extrinsicList](ctx, r, "get_extrinsics_data", r.fetch(ctx, "extrinsic", p)), nil
		},
	}
}

func (r *Registry) eventsTool() Tool {
	return Tool{
		Name:        "get_events_data",
		Description: "Retrieve blockchain event data with filtering options for block, type, timestamp, and related transactions",
		InputSchema: objectSchema(append(rangeProps(),
			strProp("pallet", `Pallet name, e.g. "SubtensorModule"`),
			strProp("phase", `Event phase, e.g. "ApplyExtrinsic"`),
			strProp("name", `Event name, e.g. "StakeRemoved"`),
			strProp("full_name", `Event full name, e.g. "SubtensorModule.StakeRemoved"`),
			strProp("extrinsic_id", `Extrinsic ID, e.g. "5416968-0023"`),
			strProp("call_id", "Call ID"),
			strProp("id", `Event ID, e.g. "5416968-0075"`),
		)...),
		handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args eventsArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			if err := args.validate(); err != nil {
				return nil, err
			}
			p := args.params()
			setOpt(p, "pallet", args.Pallet)
			setOpt(p, "phase", args.Phase)
			setOpt(p, "name", args.Name)
			setOpt(p, "full_name", args.FullName)
			setOpt(p, "extrinsic_id", args.ExtrinsicID)
			setOpt(p, "call_id", args.CallID)
			setOpt(p, "id", args.ID)
			return conform[eventList](ctx, r, "get_events_data", r.fetch(ctx, "event", p)), nil
		},
	}
}
