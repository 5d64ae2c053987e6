// Package resilience provides the guards placed in front of upstream calls.
//
// It deliberately contains no retry logic: every TaoStats request is a
// single attempt. Two guards are available:
//
//   - Bulkhead: bounds in-flight requests and how long a caller may wait
//     for a connection slot (the pool acquisition timeout).
//
//   - WindowLimiter: a sliding-window request budget matching the
//     upstream per-minute quota.
//
// # Usage
//
//	guard := resilience.NewGuard(
//	    resilience.WithWindowLimiter(resilience.NewWindowLimiter(resilience.WindowLimiterConfig{
//	        Limit: 5,
//	    })),
//	    resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
//	        MaxConcurrent: 10,
//	        MaxWait:       120 * time.Second,
//	    })),
//	)
//
//	err := guard.Execute(ctx, func(ctx context.Context) error {
//	    return callUpstream(ctx)
//	})
package resilience
