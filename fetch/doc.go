// Package fetch is the cached path from a tool call to the TaoStats API.
//
// A Fetcher derives a cache key from the request, returns a fresh cached
// payload when one exists, and otherwise resolves the URL, performs one
// upstream call and stores the payload under the TTL of the endpoint's
// class. Failed calls are never cached; they degrade to
//
//	{"data": [], "error": "<kind>: <message>"}
//
// so callers always receive a value of the usual shape.
package fetch
