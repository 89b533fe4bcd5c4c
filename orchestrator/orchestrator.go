package orchestrator

import (
	"context"
	"time"

	"github.com/guardkit/guardkit/logger"
	"github.com/guardkit/guardkit/resilience"
)

// Orchestrator executes remote calls keyed by dependency name, applying
// the resilience layers selected per call. Instances are drawn from a
// shared Registry, so two calls against the same name share one breaker
// and one bulkhead.
type Orchestrator struct {
	registry *Registry
	log      *logger.Logger
}

// New creates an orchestrator with its own registry.
func New() *Orchestrator {
	return NewWithRegistry(NewRegistry())
}

// NewWithRegistry creates an orchestrator backed by an existing registry.
func NewWithRegistry(registry *Registry) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		log:      logger.WithComponent("orchestrator"),
	}
}

// Registry returns the backing registry for direct access and stats.
func (o *Orchestrator) Registry() *Registry { return o.registry }

// callOptions selects which layers wrap a single call. All layers are
// off until enabled.
type callOptions struct {
	bulkhead    bool
	bulkheadCfg *resilience.BulkheadConfig

	breaker    bool
	breakerCfg *resilience.CircuitBreakerConfig

	limiter    bool
	limiterCfg *resilience.RateLimiterConfig

	retry *resilience.RetryConfig

	timeout time.Duration
}

// Option configures a single Execute or Do call.
type Option func(*callOptions)

// WithBulkhead bounds concurrent calls using the named bulkhead with
// default configuration.
func WithBulkhead() Option {
	return func(c *callOptions) { c.bulkhead = true }
}

// WithBulkheadConfig bounds concurrent calls using a bulkhead created
// from config on first use. The config's Name is overridden by the
// call's dependency name.
func WithBulkheadConfig(config resilience.BulkheadConfig) Option {
	return func(c *callOptions) {
		c.bulkhead = true
		c.bulkheadCfg = &config
	}
}

// WithCircuitBreaker guards the call with the named circuit breaker
// using default configuration.
func WithCircuitBreaker() Option {
	return func(c *callOptions) { c.breaker = true }
}

// WithCircuitBreakerConfig guards the call with a breaker created from
// config on first use. The config's Name is overridden by the call's
// dependency name.
func WithCircuitBreakerConfig(config resilience.CircuitBreakerConfig) Option {
	return func(c *callOptions) {
		c.breaker = true
		c.breakerCfg = &config
	}
}

// WithRateLimiter waits for window capacity on the named limiter before
// the first attempt. The wait respects context cancellation.
func WithRateLimiter() Option {
	return func(c *callOptions) { c.limiter = true }
}

// WithRateLimiterConfig waits on a limiter created from config on first
// use. The config's Name is overridden by the call's dependency name.
func WithRateLimiterConfig(config resilience.RateLimiterConfig) Option {
	return func(c *callOptions) {
		c.limiter = true
		c.limiterCfg = &config
	}
}

// WithRetry re-invokes the composed call per the retry configuration.
func WithRetry(config resilience.RetryConfig) Option {
	return func(c *callOptions) { c.retry = &config }
}

// WithTimeout bounds the entire attempt sequence, backoff sleeps
// included. A firing timeout aborts remaining attempts.
func WithTimeout(d time.Duration) Option {
	return func(c *callOptions) { c.timeout = d }
}

// Execute runs fn for the named dependency with the selected layers.
// With no options it is a plain passthrough.
func (o *Orchestrator) Execute(ctx context.Context, name string, fn func(ctx context.Context) error, opts ...Option) error {
	_, err := Do(ctx, o, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, opts...)
	return err
}

// Do runs fn for the named dependency with the selected layers and
// returns its result. Layers nest outer to inner as timeout, retry,
// bulkhead, circuit breaker; a bulkhead slot is acquired per attempt so
// a call sleeping through backoff never holds one.
func Do[T any](ctx context.Context, o *Orchestrator, name string, fn func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var c callOptions
	for _, opt := range opts {
		opt(&c)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.limiter {
		rl := o.limiterFor(name, c.limiterCfg)
		waited, err := rl.Wait(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		if waited > 0 {
			o.log.Debug("rate limit wait", logger.Fields(
				logger.FieldDependency, name,
				logger.FieldDelay, waited.Milliseconds(),
			))
		}
	}

	call := func() (T, error) {
		return fn(ctx)
	}

	if c.breaker {
		cb := o.breakerFor(name, c.breakerCfg)
		inner := call
		call = func() (T, error) {
			return resilience.Do(cb, inner)
		}
	}

	if c.bulkhead {
		bh := o.bulkheadFor(name, c.bulkheadCfg)
		inner := call
		call = func() (T, error) {
			return resilience.ExecuteWithResult(ctx, bh, inner)
		}
	}

	if c.retry != nil {
		return resilience.Retry(ctx, *c.retry, call)
	}
	return call()
}

func (o *Orchestrator) breakerFor(name string, cfg *resilience.CircuitBreakerConfig) *resilience.CircuitBreaker {
	if cfg != nil {
		config := *cfg
		config.Name = name
		return o.registry.CircuitBreakerWith(config)
	}
	return o.registry.CircuitBreaker(name)
}

func (o *Orchestrator) bulkheadFor(name string, cfg *resilience.BulkheadConfig) *resilience.Bulkhead {
	if cfg != nil {
		config := *cfg
		config.Name = name
		return o.registry.BulkheadWith(config)
	}
	return o.registry.Bulkhead(name)
}

func (o *Orchestrator) limiterFor(name string, cfg *resilience.RateLimiterConfig) *resilience.RateLimiter {
	if cfg != nil {
		config := *cfg
		config.Name = name
		return o.registry.RateLimiterWith(config)
	}
	return o.registry.RateLimiter(name)
}
