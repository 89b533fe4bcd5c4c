// Package observability provides OpenTelemetry tracing and metrics for
// resilience-guarded remote calls.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-app"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "remote.call")
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("my-app"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("my-app"))
//	metrics.RecordCall(ctx, "github", "ok", duration)
//
// Registry gauges sample every named breaker, bulkhead, limiter, and
// cache on each export:
//
//	observability.RegisterRegistryGauges(observability.Meter("my-app"), orch.Registry())
//
// Health Checks:
//
//	health := observability.NewServiceHealth("my-app", "1.0.0")
//	health.AddComponent(observability.BreakerHealth(cb.Stats()))
package observability
