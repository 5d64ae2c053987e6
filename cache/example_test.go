package cache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/taostats-mcp/cache"
)

func ExampleNewMemoryCache() {
	c := cache.NewMemoryCache()
	ctx := context.Background()

	_ = c.Set(ctx, "my-key", []byte(`{"price":"412.5"}`), 5*time.Minute)

	value, ok := c.Get(ctx, "my-key")
	if ok {
		fmt.Println("Value:", string(value))
	}
	// Output:
	// Value: {"price":"412.5"}
}

func ExamplePolicy_Classify() {
	p := cache.DefaultPolicy()

	for _, endpoint := range []string{"stats/history", "subnet/distribution/ip", "price/latest"} {
		fmt.Printf("%s: %s (%v)\n", endpoint, p.Classify(endpoint), p.TTL(endpoint))
	}
	// Output:
	// stats/history: historical (24h0m0s)
	// subnet/distribution/ip: semi_dynamic (1h0m0s)
	// price/latest: dynamic (5m0s)
}

func ExampleDefaultKeyer_Key() {
	keyer := cache.NewDefaultKeyer()

	k1, _ := keyer.Key("block", map[string]any{"page": 1, "limit": 50}, "v1", false)
	k2, _ := keyer.Key("block", map[string]any{"limit": 50, "page": 1}, "v1", false)
	k3, _ := keyer.Key("block", map[string]any{"limit": 50, "page": 2}, "v1", false)

	fmt.Println("Same params, same key:", k1 == k2)
	fmt.Println("Different params, different key:", k1 != k3)
	// Output:
	// Same params, same key: true
	// Different params, different key: true
}
