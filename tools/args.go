package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"
)

// Shared argument bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 200
	DefaultDays  = 30
)

// decodeArgs strictly decodes raw into dst. Absent or null arguments leave
// dst untouched so defaults apply.
func decodeArgs(raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return argsError(err)
	}
	return nil
}

func argsError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "arguments"
		}
		return invalid(field, "must be %s", describeKind(typeErr.Type))
	}
	if name, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		return invalid(strings.Trim(name, `"`), "unknown argument")
	}
	return invalid("arguments", "%v", err)
}

func describeKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		return "an integer"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Struct, reflect.Map:
		return "an object"
	default:
		return t.String()
	}
}

func orDefault[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}

// setOpt copies *v into params when v is set.
func setOpt[T any](params map[string]any, key string, v *T) {
	if v != nil {
		params[key] = *v
	}
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return invalid(field, "must be one of %s, got %q", strings.Join(allowed, ", "), value)
}

func checkPaging(page, limit int) error {
	if limit < 1 || limit > MaxLimit {
		return invalid("limit", "must be between 1 and %d, got %d", MaxLimit, limit)
	}
	if page < 1 {
		return invalid("page", "must be positive, got %d", page)
	}
	return nil
}

func checkDays(days int) error {
	if days < 1 {
		return invalid("days", "must be positive, got %d", days)
	}
	return nil
}

func checkOrder(startField string, start *int64, endField string, end *int64) error {
	if start != nil && end != nil && *start > *end {
		return invalid(startField, "must be less than or equal to %s", endField)
	}
	return nil
}

// checkAddress accepts SS58 (leading 5) and hex (leading 0x) addresses.
func checkAddress(field string, addr *string) error {
	if addr == nil {
		return nil
	}
	if !strings.HasPrefix(*addr, "5") && !strings.HasPrefix(*addr, "0x") {
		return invalid(field, "invalid address format %q", *addr)
	}
	return nil
}

// window converts days before now into unix second bounds. now is truncated
// to the minute so repeated calls within a minute share a cache entry.
func window(now time.Time, days int) (start, end int64) {
	end = now.Truncate(time.Minute).Unix()
	return end - int64(days)*24*60*60, end
}

// rangeArgs are the block and timestamp filters shared by the chain tools.
type rangeArgs struct {
	BlockNumber    *int64  `json:"block_number"`
	BlockStart     *int64  `json:"block_start"`
	BlockEnd       *int64  `json:"block_end"`
	TimestampStart *int64  `json:"timestamp_start"`
	TimestampEnd   *int64  `json:"timestamp_end"`
	Order          *string `json:"order"`
	Page           *int    `json:"page"`
	Limit          *int    `json:"limit"`
}

func (a rangeArgs) validate() error {
	if err := checkPaging(orDefault(a.Page, DefaultPage), orDefault(a.Limit, DefaultLimit)); err != nil {
		return err
	}
	if err := checkOrder("block_start", a.BlockStart, "block_end", a.BlockEnd); err != nil {
		return err
	}
	return checkOrder("timestamp_start", a.TimestampStart, "timestamp_end", a.TimestampEnd)
}

func (a rangeArgs) params() map[string]any {
	p := map[string]any{
		"page":  orDefault(a.Page, DefaultPage),
		"limit": orDefault(a.Limit, DefaultLimit),
	}
	setOpt(p, "block_number", a.BlockNumber)
	setOpt(p, "block_start", a.BlockStart)
	setOpt(p, "block_end", a.BlockEnd)
	setOpt(p, "timestamp_start", a.TimestampStart)
	setOpt(p, "timestamp_end", a.TimestampEnd)
	setOpt(p, "order", a.Order)
	return p
}

// firstItem returns data[0] when v carries a non-empty data list.
func firstItem(v any) (any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	data, ok := m["data"].([]any)
	if !ok || len(data) == 0 {
		return nil, false
	}
	return data[0], true
}
