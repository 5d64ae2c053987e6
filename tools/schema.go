package tools

import "encoding/json"

// prop is one property of a tool input schema.
type prop struct {
	name   string
	schema map[string]any
}

func intProp(name, desc string) prop {
	return prop{name: name, schema: map[string]any{"type": "integer", "description": desc}}
}

func strProp(name, desc string) prop {
	return prop{name: name, schema: map[string]any{"type": "string", "description": desc}}
}

func enumProp(name, desc string, values ...string) prop {
	p := strProp(name, desc)
	p.schema["enum"] = values
	p.schema["default"] = values[0]
	return p
}

func (p prop) min(v int) prop {
	p.schema["minimum"] = v
	return p
}

func (p prop) max(v int) prop {
	p.schema["maximum"] = v
	return p
}

func (p prop) def(v any) prop {
	p.schema["default"] = v
	return p
}

func pagingProps() []prop {
	return []prop{
		intProp("page", "Page number for pagination").min(1).def(DefaultPage),
		intProp("limit", "Number of entries to return").min(1).max(MaxLimit).def(DefaultLimit),
	}
}

func rangeProps() []prop {
	return append([]prop{
		intProp("block_number", "Exact block number"),
		intProp("block_start", "Start of block range (inclusive)"),
		intProp("block_end", "End of block range (inclusive)"),
		intProp("timestamp_start", "Start of range as unix seconds (inclusive)"),
		intProp("timestamp_end", "End of range as unix seconds (inclusive)"),
		strProp("order", `Ordering of results, e.g. "block_number_desc"`),
	}, pagingProps()...)
}

// objectSchema renders a closed JSON object schema.
func objectSchema(props ...prop) json.RawMessage {
	properties := make(map[string]any, len(props))
	for _, p := range props {
		properties[p.name] = p.schema
	}
	raw, err := json.Marshal(map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	})
	if err != nil {
		panic("tools: schema: " + err.Error())
	}
	return raw
}
