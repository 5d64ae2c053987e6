package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// KeyPrefix starts every key produced by DefaultKeyer.
const KeyPrefix = "taostats"

// MaxEndpointSegment bounds the endpoint part of a key so that every key
// fits within MaxKeyLength.
const MaxEndpointSegment = 128

// Keyer generates deterministic cache keys from request descriptors.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map iteration order.
// - Distinctness: inputs differing in any field must produce different keys.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key for an endpoint call.
	Key(endpoint string, params map[string]any, version string, useDtao bool) (string, error)
}

// DefaultKeyer generates SHA-256 based cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
// Format: taostats:<endpoint>:<hash>
// where hash is the hex SHA-256 of the canonical JSON of all four fields.
// The endpoint segment is informational and lets InvalidatePrefix target
// one endpoint; uniqueness comes from the hash alone. Long endpoints are
// cut to MaxEndpointSegment bytes.
func (k *DefaultKeyer) Key(endpoint string, params map[string]any, version string, useDtao bool) (string, error) {
	if params == nil {
		params = map[string]any{}
	}
	descriptor := map[string]any{
		"endpoint": endpoint,
		"params":   params,
		"version":  version,
		"dtao":     useDtao,
	}

	canonical, err := canonicalize(descriptor)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize request: %w", err)
	}

	hash := sha256.Sum256(canonical)
	return EndpointPrefix(endpoint) + hex.EncodeToString(hash[:]), nil
}

// EndpointPrefix returns the key prefix shared by every key for endpoint.
// Endpoints sharing their first MaxEndpointSegment bytes share a prefix.
func EndpointPrefix(endpoint string) string {
	return KeyPrefix + ":" + endpointSegment(endpoint) + ":"
}

// endpointSegment truncates endpoint on a rune boundary and replaces line
// breaks, which ValidateKey rejects.
func endpointSegment(endpoint string) string {
	if len(endpoint) > MaxEndpointSegment {
		cut := MaxEndpointSegment
		for cut > 0 && !utf8.RuneStart(endpoint[cut]) {
			cut--
		}
		endpoint = endpoint[:cut]
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return '_'
		}
		return r
	}, endpoint)
}

// canonicalize produces a deterministic JSON representation of the input.
// Maps are sorted by key to ensure consistent ordering.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case map[string]string:
		m := make(map[string]any, len(val))
		for k, s := range val {
			m[k] = s
		}
		return canonicalizeMap(m)
	case []any:
		return canonicalizeSlice(val)
	default:
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
