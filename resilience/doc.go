// Package resilience provides patterns for protecting outbound calls to
// remote, rate-limited, occasionally-failing services.
//
// This package includes:
//   - CircuitBreaker: Stops invoking a failing dependency until it recovers
//   - Retry: Retries failed operations with configurable backoff strategies
//   - Bulkhead: Limits concurrent access to isolate failures
//   - RateLimiter: Sliding-window admission control
//   - AdaptiveRateLimiter: Expands throughput on success, contracts on throttling
//
// These patterns can be combined for comprehensive resilience:
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("github"))
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 10})
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{RequestsPerPeriod: 60})
//
//	err := bh.Execute(ctx, func() error {
//	    return cb.Execute(func() error {
//	        if _, err := rl.Wait(ctx); err != nil {
//	            return err
//	        }
//	        return callRemote(ctx)
//	    })
//	})
//
// The orchestrator package composes these primitives behind a single
// Execute entry point keyed by dependency name.
package resilience
