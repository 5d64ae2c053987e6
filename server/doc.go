// Package server speaks line-delimited JSON-RPC 2.0 over stdio and exposes
// the tools registry as an MCP server.
//
// Supported methods are initialize, ping, tools/list and tools/call.
// Notifications are accepted and ignored. Requests are dispatched
// concurrently up to a configurable limit; responses are written whole,
// one per line, in completion order.
package server
