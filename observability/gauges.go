package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/guardkit/guardkit/orchestrator"
)

// breakerStateValue encodes breaker state for the gauge:
// closed=0, open=1, half-open=2.
func breakerStateValue(state string) int64 {
	switch state {
	case "open":
		return 1
	case "half-open":
		return 2
	default:
		return 0
	}
}

// RegisterRegistryGauges registers observable gauges that sample every
// named breaker, bulkhead, rate limiter, and cache in the registry on
// each metric export. Returns the registration so callers can Unregister
// on shutdown.
func RegisterRegistryGauges(meter metric.Meter, reg *orchestrator.Registry) (metric.Registration, error) {
	breakerState, err := meter.Int64ObservableGauge("resilience.breaker.state",
		metric.WithDescription("Circuit breaker state (0=closed, 1=open, 2=half-open)"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.breaker.state gauge: %w", err)
	}

	breakerFailures, err := meter.Int64ObservableGauge("resilience.breaker.failures",
		metric.WithDescription("Consecutive failures counted by the breaker"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.breaker.failures gauge: %w", err)
	}

	bulkheadActive, err := meter.Int64ObservableGauge("resilience.bulkhead.active",
		metric.WithDescription("Concurrent calls currently holding a bulkhead slot"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.bulkhead.active gauge: %w", err)
	}

	rateLimitUsed, err := meter.Int64ObservableGauge("resilience.ratelimit.used",
		metric.WithDescription("Admissions consumed in the current window"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.ratelimit.used gauge: %w", err)
	}

	rateLimitCurrent, err := meter.Int64ObservableGauge("resilience.ratelimit.limit",
		metric.WithDescription("Current limit of an adaptive rate limiter"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.ratelimit.limit gauge: %w", err)
	}

	cacheSize, err := meter.Int64ObservableGauge("resilience.cache.size",
		metric.WithDescription("Entries currently held in the cache"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.cache.size gauge: %w", err)
	}

	cacheHits, err := meter.Int64ObservableCounter("resilience.cache.hits",
		metric.WithDescription("Cumulative cache hits"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.cache.hits counter: %w", err)
	}

	registration, err := meter.RegisterCallback(
		func(ctx context.Context, observer metric.Observer) error {
			stats := reg.AllStats()

			for name, cb := range stats.CircuitBreakers {
				attrs := metric.WithAttributes(attribute.String("dependency", name))
				observer.ObserveInt64(breakerState, breakerStateValue(cb.State), attrs)
				observer.ObserveInt64(breakerFailures, int64(cb.Failures), attrs)
			}
			for name, bh := range stats.Bulkheads {
				attrs := metric.WithAttributes(attribute.String("dependency", name))
				observer.ObserveInt64(bulkheadActive, int64(bh.Active), attrs)
			}
			for name, rl := range stats.RateLimiters {
				attrs := metric.WithAttributes(attribute.String("dependency", name))
				observer.ObserveInt64(rateLimitUsed, int64(rl.Used), attrs)
			}
			for name, al := range stats.Adaptive {
				attrs := metric.WithAttributes(attribute.String("dependency", name))
				observer.ObserveInt64(rateLimitCurrent, int64(al.CurrentLimit), attrs)
			}
			for name, c := range stats.Caches {
				attrs := metric.WithAttributes(attribute.String("dependency", name))
				observer.ObserveInt64(cacheSize, int64(c.Size), attrs)
				observer.ObserveInt64(cacheHits, int64(c.Hits), attrs)
			}
			return nil
		},
		breakerState, breakerFailures, bulkheadActive, rateLimitUsed, rateLimitCurrent, cacheSize, cacheHits,
	)
	if err != nil {
		return nil, fmt.Errorf("registering registry gauges: %w", err)
	}
	return registration, nil
}
