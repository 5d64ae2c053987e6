// Package cache provides the TTL-tiered response cache for TaoStats calls.
//
// It provides a Cache interface with an in-memory implementation, SHA-256
// key derivation over (endpoint, params, version, dtao), and an ordered
// keyword policy that assigns each endpoint a historical, semi-dynamic or
// dynamic TTL.
package cache
