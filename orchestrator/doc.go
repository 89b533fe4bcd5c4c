// Package orchestrator composes the resilience primitives into a single
// entry point. An Orchestrator executes a remote call keyed by dependency
// name, lazily creating the named circuit breaker, bulkhead, or rate
// limiter it needs from a shared Registry.
//
// Composition order (outer to inner): overall timeout, retry loop,
// bulkhead, circuit breaker, the call itself. A timeout bounds the whole
// attempt sequence including backoff sleeps.
//
// Example:
//
//	orch := orchestrator.New()
//	result, err := orchestrator.Do(ctx, orch, "github",
//		func(ctx context.Context) (*Repo, error) {
//			return client.FetchRepo(ctx, "guardkit")
//		},
//		orchestrator.WithCircuitBreaker(),
//		orchestrator.WithRetry(resilience.DefaultRetryConfig()),
//		orchestrator.WithTimeout(30*time.Second),
//	)
//
// The Registry is safe for concurrent use and can be shared across
// orchestrators or used directly for observability snapshots.
package orchestrator
