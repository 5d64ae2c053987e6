package router

import (
	"net/http"
	"strings"
)

// Default upstream bases.
const (
	DefaultBaseURL     = "https://api.taostats.io/api"
	DefaultDtaoBaseURL = "https://api.taostats.io/api/dtao"
)

// DtaoPrefix marks endpoints that already include the dtao path segment.
const DtaoPrefix = "dtao/"

// Config configures a Router.
type Config struct {
	// BaseURL is the primary namespace base.
	// Default: DefaultBaseURL
	BaseURL string

	// DtaoBaseURL is the dtao namespace base.
	// Default: DefaultDtaoBaseURL
	DtaoBaseURL string

	// APIKey is sent verbatim in the Authorization header. Empty omits it.
	APIKey string
}

// Router maps (endpoint, version, dtao) to a URL and request headers.
// It is safe for concurrent use.
type Router struct {
	base     string
	dtaoBase string
	apiKey   string
}

// New creates a Router, filling unset bases with the defaults.
func New(cfg Config) *Router {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.DtaoBaseURL == "" {
		cfg.DtaoBaseURL = DefaultDtaoBaseURL
	}
	return &Router{
		base:     strings.TrimRight(cfg.BaseURL, "/"),
		dtaoBase: strings.TrimRight(cfg.DtaoBaseURL, "/"),
		apiKey:   cfg.APIKey,
	}
}

// ResolveURL returns the upstream URL for endpoint and the headers to send.
//
//   - useDtao: dtaoBase/endpoint
//   - endpoint starts with "dtao/": base/endpoint
//   - otherwise: base/endpoint/version
func (r *Router) ResolveURL(endpoint, version string, useDtao bool) (string, http.Header) {
	var url string
	switch {
	case useDtao:
		url = r.dtaoBase + "/" + endpoint
	case strings.HasPrefix(endpoint, DtaoPrefix):
		url = r.base + "/" + endpoint
	default:
		url = r.base + "/" + endpoint + "/" + version
	}
	return url, r.Headers()
}

// Headers returns a fresh header set for an upstream call.
func (r *Router) Headers() http.Header {
	h := make(http.Header, 2)
	h.Set("Accept", "application/json")
	if r.apiKey != "" {
		// TaoStats expects the raw key, not a Bearer token
		h.Set("Authorization", r.apiKey)
	}
	return h
}
