package orchestrator

import (
	"sync"

	"github.com/guardkit/guardkit/cache"
	"github.com/guardkit/guardkit/logger"
	"github.com/guardkit/guardkit/resilience"
)

// Registry holds shared, name-keyed resilience instances with lazy
// creation. One breaker, bulkhead, limiter, or cache exists per logical
// dependency name; repeated lookups return the same instance. Construct
// one Registry at process start and pass it to whatever needs it instead
// of reaching for package-level state.
type Registry struct {
	mu        sync.Mutex
	breakers  map[string]*resilience.CircuitBreaker
	bulkheads map[string]*resilience.Bulkhead
	limiters  map[string]*resilience.RateLimiter
	adaptive  map[string]*resilience.AdaptiveRateLimiter
	caches    map[string]*cache.Cache[any]

	log *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		breakers:  make(map[string]*resilience.CircuitBreaker),
		bulkheads: make(map[string]*resilience.Bulkhead),
		limiters:  make(map[string]*resilience.RateLimiter),
		adaptive:  make(map[string]*resilience.AdaptiveRateLimiter),
		caches:    make(map[string]*cache.Cache[any]),
		log:       logger.WithComponent("registry"),
	}
}

// CircuitBreaker returns the breaker for name, creating it with default
// configuration on first use.
func (r *Registry) CircuitBreaker(name string) *resilience.CircuitBreaker {
	return r.CircuitBreakerWith(resilience.DefaultCircuitBreakerConfig(name))
}

// CircuitBreakerWith returns the breaker for config.Name, creating it
// from config on first use. An existing breaker is returned as-is; the
// config only applies to creation.
func (r *Registry) CircuitBreakerWith(config resilience.CircuitBreakerConfig) *resilience.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[config.Name]; ok {
		return cb
	}
	cb := resilience.NewCircuitBreaker(config)
	r.breakers[config.Name] = cb
	r.log.Debug("circuit breaker created", logger.Fields(logger.FieldDependency, config.Name))
	return cb
}

// Bulkhead returns the bulkhead for name, creating it with default
// configuration on first use.
func (r *Registry) Bulkhead(name string) *resilience.Bulkhead {
	return r.BulkheadWith(resilience.DefaultBulkheadConfig(name))
}

// BulkheadWith returns the bulkhead for config.Name, creating it from
// config on first use.
func (r *Registry) BulkheadWith(config resilience.BulkheadConfig) *resilience.Bulkhead {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bh, ok := r.bulkheads[config.Name]; ok {
		return bh
	}
	bh := resilience.NewBulkhead(config)
	r.bulkheads[config.Name] = bh
	r.log.Debug("bulkhead created", logger.Fields(logger.FieldDependency, config.Name))
	return bh
}

// RateLimiter returns the limiter for name, creating it with default
// configuration on first use.
func (r *Registry) RateLimiter(name string) *resilience.RateLimiter {
	return r.RateLimiterWith(resilience.DefaultRateLimiterConfig(name))
}

// RateLimiterWith returns the limiter for config.Name, creating it from
// config on first use.
func (r *Registry) RateLimiterWith(config resilience.RateLimiterConfig) *resilience.RateLimiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rl, ok := r.limiters[config.Name]; ok {
		return rl
	}
	rl := resilience.NewRateLimiter(config)
	r.limiters[config.Name] = rl
	r.log.Debug("rate limiter created", logger.Fields(logger.FieldDependency, config.Name))
	return rl
}

// AdaptiveRateLimiter returns the adaptive limiter for name, creating it
// with default configuration on first use.
func (r *Registry) AdaptiveRateLimiter(name string) *resilience.AdaptiveRateLimiter {
	return r.AdaptiveRateLimiterWith(resilience.DefaultAdaptiveRateLimiterConfig(name))
}

// AdaptiveRateLimiterWith returns the adaptive limiter for config.Name,
// creating it from config on first use.
func (r *Registry) AdaptiveRateLimiterWith(config resilience.AdaptiveRateLimiterConfig) *resilience.AdaptiveRateLimiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if al, ok := r.adaptive[config.Name]; ok {
		return al
	}
	al := resilience.NewAdaptiveRateLimiter(config)
	r.adaptive[config.Name] = al
	r.log.Debug("adaptive rate limiter created", logger.Fields(logger.FieldDependency, config.Name))
	return al
}

// Cache returns the cache for name, creating it with default
// configuration on first use.
func (r *Registry) Cache(name string) *cache.Cache[any] {
	return r.CacheWith(cache.DefaultConfig(name))
}

// CacheWith returns the cache for config.Name, creating it from config
// on first use.
func (r *Registry) CacheWith(config cache.Config) *cache.Cache[any] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.caches[config.Name]; ok {
		return c
	}
	c := cache.New[any](config)
	r.caches[config.Name] = c
	r.log.Debug("cache created", logger.Fields(logger.FieldDependency, config.Name))
	return c
}

// Stats is a point-in-time snapshot of every registered instance.
type Stats struct {
	CircuitBreakers map[string]resilience.CircuitBreakerStats      `json:"circuit_breakers"`
	Bulkheads       map[string]resilience.BulkheadStats            `json:"bulkheads"`
	RateLimiters    map[string]resilience.RateLimiterUsage         `json:"rate_limiters"`
	Adaptive        map[string]resilience.AdaptiveRateLimiterStats `json:"adaptive_rate_limiters"`
	Caches          map[string]cache.Stats                         `json:"caches"`
}

// AllStats returns a snapshot of every named instance for observability.
func (r *Registry) AllStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{
		CircuitBreakers: make(map[string]resilience.CircuitBreakerStats, len(r.breakers)),
		Bulkheads:       make(map[string]resilience.BulkheadStats, len(r.bulkheads)),
		RateLimiters:    make(map[string]resilience.RateLimiterUsage, len(r.limiters)),
		Adaptive:        make(map[string]resilience.AdaptiveRateLimiterStats, len(r.adaptive)),
		Caches:          make(map[string]cache.Stats, len(r.caches)),
	}
	for name, cb := range r.breakers {
		s.CircuitBreakers[name] = cb.Stats()
	}
	for name, bh := range r.bulkheads {
		s.Bulkheads[name] = bh.Stats()
	}
	for name, rl := range r.limiters {
		s.RateLimiters[name] = rl.Usage()
	}
	for name, al := range r.adaptive {
		s.Adaptive[name] = al.Stats()
	}
	for name, c := range r.caches {
		s.Caches[name] = c.Stats()
	}
	return s
}

// ResetAll forces every circuit breaker back to closed and clears every
// cache. Intended for tests and operational recovery.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cb := range r.breakers {
		cb.Reset()
	}
	for _, c := range r.caches {
		c.Clear()
	}
	r.log.Info("all resilience state reset", logger.Fields(
		"breakers", len(r.breakers),
		"caches", len(r.caches),
	))
}
