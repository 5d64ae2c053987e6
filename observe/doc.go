// Package observe provides the logging, tracing and metrics primitives used
// by the TaoStats bridge.
//
// Logs are structured JSON written by zap to stderr; stdout belongs to the
// MCP transport. Tool calls and upstream fetches are traced and metered
// through OpenTelemetry, with exporters selected by name (see exporters).
package observe
