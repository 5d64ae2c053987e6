package cache

import (
	"strings"
	"time"
)

// TTLClass groups endpoints by how quickly their data goes stale.
type TTLClass int

const (
	// Dynamic data such as prices and latest stats.
	Dynamic TTLClass = iota
	// SemiDynamic data such as neurons, subnets and stake.
	SemiDynamic
	// Historical data that rarely changes once written.
	Historical
)

// TTL durations per class.
const (
	HistoricalTTL  = 24 * time.Hour
	SemiDynamicTTL = time.Hour
	DynamicTTL     = 5 * time.Minute
)

// String returns the string representation of the class.
func (c TTLClass) String() string {
	switch c {
	case Historical:
		return "historical"
	case SemiDynamic:
		return "semi_dynamic"
	case Dynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// TTL returns the fixed time-to-live for the class.
func (c TTLClass) TTL() time.Duration {
	switch c {
	case Historical:
		return HistoricalTTL
	case SemiDynamic:
		return SemiDynamicTTL
	default:
		return DynamicTTL
	}
}

// TTLRule maps a keyword set to a class.
type TTLRule struct {
	Class    TTLClass
	Keywords []string
}

// Matches reports whether endpoint contains any keyword (case-sensitive).
func (r TTLRule) Matches(endpoint string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(endpoint, kw) {
			return true
		}
	}
	return false
}

// Policy classifies endpoints into TTL classes.
//
// Rules are evaluated in order and the first match wins; endpoints matching
// no rule fall back to Default.
type Policy struct {
	Rules   []TTLRule
	Default TTLClass
}

// DefaultPolicy returns the TaoStats classification:
// historical keywords, then semi-dynamic keywords, then Dynamic.
func DefaultPolicy() Policy {
	return Policy{
		Rules: []TTLRule{
			{Class: Historical, Keywords: []string{"registration", "historical", "history"}},
			{Class: SemiDynamic, Keywords: []string{"neuron", "subnet", "stake"}},
		},
		Default: Dynamic,
	}
}

// Classify returns the class of the first matching rule.
func (p Policy) Classify(endpoint string) TTLClass {
	for _, rule := range p.Rules {
		if rule.Matches(endpoint) {
			return rule.Class
		}
	}
	return p.Default
}

// TTL returns the time-to-live for endpoint.
func (p Policy) TTL(endpoint string) time.Duration {
	return p.Classify(endpoint).TTL()
}
