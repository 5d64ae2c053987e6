// Package router resolves logical TaoStats endpoint names into request URLs.
//
// Endpoints live in one of two namespaces. The primary namespace appends the
// API version to the endpoint path; the dtao namespace does not:
//
//	r := router.New(router.Config{APIKey: key})
//	url, headers := r.ResolveURL("price/latest", "v1", false)
//	// https://api.taostats.io/api/price/latest/v1
//
//	url, _ = r.ResolveURL("tradingview/udf/history", "v1", true)
//	// https://api.taostats.io/api/dtao/tradingview/udf/history
//
// Endpoints that already carry a "dtao/" prefix stay on the primary base
// without a version suffix.
//
// Resolution is a pure transformation. Malformed endpoint names are passed
// through unchanged and fail at the upstream.
package router
