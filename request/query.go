package request

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// EncodeQuery renders params as a query string sorted by key. Nil values
// are skipped; slices repeat the key once per element.
func EncodeQuery(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	values := make(url.Values, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		if list, ok := v.([]any); ok {
			for _, item := range list {
				values.Add(k, formatValue(item))
			}
			continue
		}
		if list, ok := v.([]string); ok {
			for _, item := range list {
				values.Add(k, item)
			}
			continue
		}
		values.Set(k, formatValue(v))
	}
	return values.Encode()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// buildURL appends the encoded params to rawURL, keeping any query already
// present on it.
func buildURL(rawURL string, params map[string]any) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	q := EncodeQuery(params)
	switch {
	case q == "":
	case u.RawQuery == "":
		u.RawQuery = q
	default:
		u.RawQuery = u.RawQuery + "&" + q
	}
	return u.String(), nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
