package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jonwraymond/taostats-mcp/fetch"
	"github.com/jonwraymond/taostats-mcp/observe"
)

// model is an upstream payload shape.
//
// Non-pointer fields are required and must be present and non-null; pointer
// and omitempty fields are optional. Unknown upstream fields are dropped.
// check enforces the value constraints a field type cannot express.
type model interface {
	check() error
}

// conform returns v decoded into T and re-encoded, so absent optional
// fields read as null and numeric strings in number fields become numbers.
// A payload that does not fit T is logged and returned unchanged, as are
// degraded results.
func conform[T any, PT interface {
	*T
	model
}](ctx context.Context, r *Registry, tool string, v any) any {
	if _, degraded := fetch.IsEmptyResult(v); degraded {
		return v
	}
	out, err := normalize[T, PT](v)
	if err != nil {
		r.logger.Warn(ctx, "response does not match model",
			observe.F("tool", tool),
			observe.F("model", reflect.TypeFor[T]().Name()),
			observe.F("reason", err.Error()),
		)
		return v
	}
	return out
}

func normalize[T any, PT interface {
	*T
	model
}](v any) (any, error) {
	if err := requireFields(v, reflect.TypeFor[T](), ""); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m T
	if err := decodeNumbers(raw, &m); err != nil {
		return nil, err
	}
	if err := PT(&m).check(); err != nil {
		return nil, err
	}

	raw, err = json.Marshal(&m)
	if err != nil {
		return nil, err
	}
	var out any
	if err := decodeNumbers(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeNumbers(raw []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(dst)
}

// requireFields walks raw against the shape of t and reports the first
// required field that is absent or null.
func requireFields(raw any, t reflect.Type, path string) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		obj, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: want an object, got %T", pathOr(path), raw)
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
			if f.Anonymous && name == "" {
				if err := requireFields(raw, f.Type, path); err != nil {
					return err
				}
				continue
			}
			if !f.IsExported() || name == "" || name == "-" {
				continue
			}
			val, present := obj[name]
			if !present || val == nil {
				if f.Type.Kind() == reflect.Pointer || strings.Contains(opts, "omitempty") {
					continue
				}
				return fmt.Errorf("%s: field required", joinPath(path, name))
			}
			if err := requireFields(val, f.Type, joinPath(path, name)); err != nil {
				return err
			}
		}
	case reflect.Slice:
		// non-list values are left to the decoder
		items, _ := raw.([]any)
		for i, item := range items {
			if err := requireFields(item, t.Elem(), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func pathOr(path string) string {
	if path == "" {
		return "response"
	}
	return path
}

// page is the TaoStats list envelope.
type page[T any] struct {
	Data       []T            `json:"data"`
	Pagination map[string]any `json:"pagination,omitempty"`
}

func (p *page[T]) check() error {
	for i := range p.Data {
		if m, ok := any(&p.Data[i]).(model); ok {
			if err := m.check(); err != nil {
				return fmt.Errorf("data[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// filledPage is a list envelope that must carry at least one item.
type filledPage[T any] struct {
	page[T]
}

func (p *filledPage[T]) check() error {
	if len(p.Data) == 0 {
		return errors.New("data: must not be empty")
	}
	return p.page.check()
}

type noChecks struct{}

func (noChecks) check() error { return nil }

func positive(field string, n json.Number) error {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if !d.IsPositive() {
		return fmt.Errorf("%s: must be positive, got %s", field, n)
	}
	return nil
}

func nonNegative(field string, n int64) error {
	if n < 0 {
		return fmt.Errorf("%s: must be non-negative, got %d", field, n)
	}
	return nil
}

func nonNegativeAmount(field, s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if d.IsNegative() {
		return fmt.Errorf("%s: must be non-negative, got %s", field, s)
	}
	return nil
}

type priceData struct {
	CreatedAt             *string      `json:"created_at"`
	UpdatedAt             *string      `json:"updated_at"`
	Name                  *string      `json:"name"`
	Symbol                string       `json:"symbol"`
	Slug                  *string      `json:"slug"`
	CirculatingSupply     *string      `json:"circulating_supply"`
	MaxSupply             *string      `json:"max_supply"`
	TotalSupply           *string      `json:"total_supply"`
	LastUpdated           *string      `json:"last_updated"`
	Price                 json.Number  `json:"price"`
	Volume24h             *json.Number `json:"volume_24h"`
	MarketCap             *json.Number `json:"market_cap"`
	PercentChange1h       *string      `json:"percent_change_1h"`
	PercentChange24h      *string      `json:"percent_change_24h"`
	PercentChange7d       *string      `json:"percent_change_7d"`
	PercentChange30d      *string      `json:"percent_change_30d"`
	PercentChange60d      *string      `json:"percent_change_60d"`
	PercentChange90d      *string      `json:"percent_change_90d"`
	MarketCapDominance    *string      `json:"market_cap_dominance"`
	FullyDilutedMarketCap *string      `json:"fully_diluted_market_cap"`
}

func (p *priceData) check() error {
	return positive("price", p.Price)
}

type pricePoint struct {
	noChecks

	CreatedAt             string      `json:"created_at"`
	UpdatedAt             string      `json:"updated_at"`
	Name                  string      `json:"name"`
	Symbol                string      `json:"symbol"`
	Slug                  string      `json:"slug"`
	CirculatingSupply     string      `json:"circulating_supply"`
	MaxSupply             string      `json:"max_supply"`
	TotalSupply           string      `json:"total_supply"`
	LastUpdated           string      `json:"last_updated"`
	Price                 json.Number `json:"price"`
	Volume24h             json.Number `json:"volume_24h"`
	MarketCap             json.Number `json:"market_cap"`
	PercentChange1h       string      `json:"percent_change_1h"`
	PercentChange24h      string      `json:"percent_change_24h"`
	PercentChange7d       string      `json:"percent_change_7d"`
	PercentChange30d      string      `json:"percent_change_30d"`
	PercentChange60d      string      `json:"percent_change_60d"`
	PercentChange90d      string      `json:"percent_change_90d"`
	MarketCapDominance    string      `json:"market_cap_dominance"`
	FullyDilutedMarketCap string      `json:"fully_diluted_market_cap"`
}

type priceHistory struct {
	filledPage[pricePoint]
}

type ohlcPoint struct {
	noChecks

	Period    string `json:"period"`
	Timestamp string `json:"timestamp"`
	Asset     string `json:"asset"`
	Volume24h string `json:"volume_24h"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
}

type priceOHLC struct {
	filledPage[ohlcPoint]
}

type accountAddress struct {
	SS58 string `json:"ss58"`
	Hex  string `json:"hex"`
}

func (a *accountAddress) check() error {
	if !strings.HasPrefix(a.SS58, "5") {
		return fmt.Errorf("ss58: invalid address format %q", a.SS58)
	}
	if !strings.HasPrefix(a.Hex, "0x") {
		return fmt.Errorf("hex: invalid address format %q", a.Hex)
	}
	return nil
}

type accountSnapshot struct {
	Address                 accountAddress `json:"address"`
	Network                 string         `json:"network"`
	BlockNumber             int64          `json:"block_number"`
	Timestamp               string         `json:"timestamp"`
	Rank                    int64          `json:"rank"`
	BalanceFree             string         `json:"balance_free"`
	BalanceStaked           string         `json:"balance_staked"`
	BalanceStakedAlphaAsTao string         `json:"balance_staked_alpha_as_tao"`
	BalanceStakedRoot       string         `json:"balance_staked_root"`
	BalanceTotal            string         `json:"balance_total"`
	CreatedOnDate           string         `json:"created_on_date"`
	CreatedOnNetwork        string         `json:"created_on_network"`
	ColdkeySwap             *string        `json:"coldkey_swap"`
}

func (a *accountSnapshot) check() error {
	if err := a.Address.check(); err != nil {
		return fmt.Errorf("address.%w", err)
	}
	return nil
}

type accountInfo struct {
	accountSnapshot

	BalanceFree24hAgo             *string `json:"balance_free_24hr_ago"`
	BalanceStaked24hAgo           *string `json:"balance_staked_24hr_ago"`
	BalanceStakedAlphaAsTao24hAgo *string `json:"balance_staked_alpha_as_tao_24hr_ago"`
	BalanceStakedRoot24hAgo       *string `json:"balance_staked_root_24hr_ago"`
	BalanceTotal24hAgo            *string `json:"balance_total_24hr_ago"`
}

type accountList struct {
	page[accountInfo]
}

type accountHistory struct {
	page[accountSnapshot]
}

type transfer struct {
	ID              string         `json:"id"`
	To              accountAddress `json:"to"`
	From            accountAddress `json:"from"`
	Network         string         `json:"network"`
	BlockNumber     int64          `json:"block_number"`
	Timestamp       string         `json:"timestamp"`
	Amount          string         `json:"amount"`
	Fee             string         `json:"fee"`
	TransactionHash string         `json:"transaction_hash"`
	ExtrinsicID     string         `json:"extrinsic_id"`
}

func (t *transfer) check() error {
	if err := t.To.check(); err != nil {
		return fmt.Errorf("to.%w", err)
	}
	if err := t.From.check(); err != nil {
		return fmt.Errorf("from.%w", err)
	}
	if err := nonNegativeAmount("amount", t.Amount); err != nil {
		return err
	}
	return nonNegativeAmount("fee", t.Fee)
}

type transferList struct {
	page[transfer]
}

type exchange struct {
	Coldkey accountAddress `json:"coldkey"`
	Name    string         `json:"name"`
	Icon    *string        `json:"icon"`
}

func (e *exchange) check() error {
	if err := e.Coldkey.check(); err != nil {
		return fmt.Errorf("coldkey.%w", err)
	}
	return nil
}

type exchangeList struct {
	page[exchange]
}

type chartData struct {
	Symbol     string        `json:"symbol"`
	Resolution string        `json:"resolution"`
	C          []json.Number `json:"c"`
	H          []json.Number `json:"h"`
	L          []json.Number `json:"l"`
	O          []json.Number `json:"o"`
	T          []int64       `json:"t"`
	V          []json.Number `json:"v"`
	S          string        `json:"s"`
}

func (c *chartData) check() error {
	for i, s := range [][]json.Number{c.C, c.H, c.L, c.O, c.V} {
		if len(s) != len(c.T) {
			return fmt.Errorf("%s: %d points for %d timestamps", "chlov"[i:i+1], len(s), len(c.T))
		}
	}
	return nil
}

type block struct {
	BlockNumber     int64   `json:"block_number"`
	Hash            string  `json:"hash"`
	ParentHash      string  `json:"parent_hash"`
	StateRoot       string  `json:"state_root"`
	ExtrinsicsRoot  string  `json:"extrinsics_root"`
	SpecName        string  `json:"spec_name"`
	SpecVersion     int64   `json:"spec_version"`
	ImplName        string  `json:"impl_name"`
	ImplVersion     int64   `json:"impl_version"`
	Timestamp       string  `json:"timestamp"`
	Validator       *string `json:"validator"`
	EventsCount     int64   `json:"events_count"`
	ExtrinsicsCount int64   `json:"extrinsics_count"`
	CallsCount      int64   `json:"calls_count"`
}

func (b *block) check() error {
	return nonNegative("block_number", b.BlockNumber)
}

type blockList struct {
	page[block]
}

type extrinsicError struct {
	ExtraInfo *string `json:"extra_info"`
	Name      string  `json:"name"`
	Pallet    string  `json:"pallet"`
}

type extrinsic struct {
	noChecks

	Timestamp     string          `json:"timestamp"`
	BlockNumber   int64           `json:"block_number"`
	Hash          string          `json:"hash"`
	ID            string          `json:"id"`
	Index         int64           `json:"index"`
	Version       int64           `json:"version"`
	Signature     map[string]any  `json:"signature,omitempty"`
	SignerAddress *string         `json:"signer_address"`
	Tip           *string         `json:"tip"`
	Fee           *string         `json:"fee"`
	Success       bool            `json:"success"`
	Error         *extrinsicError `json:"error"`
	CallID        string          `json:"call_id"`
	FullName      string          `json:"full_name"`
	CallArgs      map[string]any  `json:"call_args"`
}

type extrinsicList struct {
	page[extrinsic]
}

type event struct {
	ID             string  `json:"id"`
	ExtrinsicIndex int64   `json:"extrinsic_index"`
	Index          int64   `json:"index"`
	Phase          string  `json:"phase"`
	Pallet         string  `json:"pallet"`
	Name           string  `json:"name"`
	FullName       string  `json:"full_name"`
	Args           any     `json:"args"`
	BlockNumber    int64   `json:"block_number"`
	ExtrinsicID    string  `json:"extrinsic_id"`
	CallID         *string `json:"call_id"`
	Timestamp      string  `json:"timestamp"`
}

func (e *event) check() error {
	switch e.Args.(type) {
	case map[string]any, []any:
		return nil
	default:
		return fmt.Errorf("args: want an object or a list, got %T", e.Args)
	}
}

type eventList struct {
	page[event]
}

type networkStats struct {
	noChecks

	BlockNumber            int64  `json:"block_number"`
	Timestamp              string `json:"timestamp"`
	Issued                 string `json:"issued"`
	Staked                 string `json:"staked"`
	Accounts               int64  `json:"accounts"`
	ActiveAccounts         *int64 `json:"active_accounts"`
	BalanceHolders         int64  `json:"balance_holders"`
	ActiveBalanceHolders   *int64 `json:"active_balance_holders"`
	Extrinsics             int64  `json:"extrinsics"`
	Transfers              int64  `json:"transfers"`
	Subnets                int64  `json:"subnets"`
	SubnetRegistrationCost string `json:"subnet_registration_cost"`
}

type networkStatsList struct {
	page[networkStats]
}
