package cache

import (
	"context"
)

// LoadFunc fetches a payload from the source of truth.
type LoadFunc func(ctx context.Context) ([]byte, error)

// Source tells where a read-through result came from.
type Source int

const (
	// SourceUpstream means the loader was called.
	SourceUpstream Source = iota
	// SourceCache means a fresh entry was returned without loading.
	SourceCache
)

// String returns the string representation of the source.
func (s Source) String() string {
	if s == SourceCache {
		return "cache"
	}
	return "upstream"
}

// ReadThrough wraps a loader with caching.
type ReadThrough struct {
	cache  Cache
	policy Policy
}

// NewReadThrough creates a read-through wrapper over c using policy for TTLs.
func NewReadThrough(c Cache, policy Policy) *ReadThrough {
	return &ReadThrough{
		cache:  c,
		policy: policy,
	}
}

// Policy returns the classification policy.
func (m *ReadThrough) Policy() Policy {
	return m.policy
}

// Execute returns the cached value for key or loads it.
// On cache hit, returns cached result without calling load.
// On cache miss, calls load and stores the result for the TTL of endpoint.
// Errors are NOT cached. Invalid keys bypass the cache entirely.
func (m *ReadThrough) Execute(ctx context.Context, key, endpoint string, load LoadFunc) ([]byte, Source, error) {
	if m.cache == nil || ValidateKey(key) != nil {
		result, err := load(ctx)
		return result, SourceUpstream, err
	}

	if cached, ok := m.cache.Get(ctx, key); ok {
		return cached, SourceCache, nil
	}

	result, err := load(ctx)
	if err != nil {
		return result, SourceUpstream, err
	}

	if ttl := m.policy.TTL(endpoint); ttl > 0 {
		_ = m.cache.Set(ctx, key, result, ttl)
	}

	return result, SourceUpstream, nil
}
