// Package tools defines the TaoStats tools exposed over MCP.
//
// Each tool validates its arguments, maps them onto one TaoStats endpoint
// and returns whatever the fetcher produced. Invalid arguments are the only
// error a tool returns (*ValidationError); upstream failures arrive as the
// {"data": [], "error": "..."} shape and are passed through unchanged.
package tools
