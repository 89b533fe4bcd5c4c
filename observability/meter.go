package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/guardkit/guardkit/logger"
	"github.com/guardkit/guardkit/version"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the application.
	ServiceName string
	// ServiceVersion is the version of the application.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.Short(),
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	if config.ServiceVersion == "" {
		config.ServiceVersion = version.Short()
	}

	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds metric instruments for resilience-guarded calls. Its
// record methods are designed to plug into the hook fields of the
// resilience primitives (OnRetry, OnStateChange, OnReject, OnLimit).
type Metrics struct {
	callTotal          metric.Int64Counter
	callDuration       metric.Float64Histogram
	retryTotal         metric.Int64Counter
	breakerTransitions metric.Int64Counter
	bulkheadRejections metric.Int64Counter
	rateLimitWait      metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	callTotal, err := meter.Int64Counter("resilience.call.total",
		metric.WithDescription("Total number of guarded calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.call.total counter: %w", err)
	}

	callDuration, err := meter.Float64Histogram("resilience.call.duration",
		metric.WithDescription("Duration of guarded calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.call.duration histogram: %w", err)
	}

	retryTotal, err := meter.Int64Counter("resilience.retry.total",
		metric.WithDescription("Total retry attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.retry.total counter: %w", err)
	}

	breakerTransitions, err := meter.Int64Counter("resilience.breaker.transitions",
		metric.WithDescription("Circuit breaker state transitions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.breaker.transitions counter: %w", err)
	}

	bulkheadRejections, err := meter.Int64Counter("resilience.bulkhead.rejections",
		metric.WithDescription("Calls rejected by a full bulkhead"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.bulkhead.rejections counter: %w", err)
	}

	rateLimitWait, err := meter.Float64Histogram("resilience.ratelimit.wait",
		metric.WithDescription("Time spent waiting for rate limit capacity in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resilience.ratelimit.wait histogram: %w", err)
	}

	return &Metrics{
		callTotal:          callTotal,
		callDuration:       callDuration,
		retryTotal:         retryTotal,
		breakerTransitions: breakerTransitions,
		bulkheadRejections: bulkheadRejections,
		rateLimitWait:      rateLimitWait,
	}, nil
}

// RecordCall records a completed guarded call.
func (m *Metrics) RecordCall(ctx context.Context, dependency, status string, duration time.Duration) {
	m.callTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dependency", dependency),
		attribute.String("status", status),
	))
	m.callDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("dependency", dependency),
	))
}

// RecordRetry records one retry attempt against a dependency.
func (m *Metrics) RecordRetry(ctx context.Context, dependency string, attempt int) {
	m.retryTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dependency", dependency),
		attribute.Int("attempt", attempt),
	))
}

// RecordStateChange records a circuit breaker transition.
func (m *Metrics) RecordStateChange(ctx context.Context, dependency, from, to string) {
	m.breakerTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dependency", dependency),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordBulkheadRejection records a call turned away by a full bulkhead.
func (m *Metrics) RecordBulkheadRejection(ctx context.Context, dependency string) {
	m.bulkheadRejections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dependency", dependency),
	))
}

// RecordRateLimitWait records time spent blocked on window capacity.
func (m *Metrics) RecordRateLimitWait(ctx context.Context, dependency string, waited time.Duration) {
	m.rateLimitWait.Record(ctx, waited.Seconds(), metric.WithAttributes(
		attribute.String("dependency", dependency),
	))
}
