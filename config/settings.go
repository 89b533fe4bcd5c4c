package config

import (
	"fmt"
	"time"

	"github.com/guardkit/guardkit/cache"
	"github.com/guardkit/guardkit/logger"
	"github.com/guardkit/guardkit/resilience"
	"github.com/guardkit/guardkit/validation"
)

// CircuitBreakerSettings configures a named circuit breaker.
type CircuitBreakerSettings struct {
	FailureThreshold int           `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	SuccessThreshold int           `yaml:"success_threshold" mapstructure:"success_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout" mapstructure:"recovery_timeout"`
}

// Build converts the settings into a runtime configuration.
func (s CircuitBreakerSettings) Build(name string) resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: s.FailureThreshold,
		SuccessThreshold: s.SuccessThreshold,
		RecoveryTimeout:  s.RecoveryTimeout,
	}
}

// RetrySettings configures retry behavior.
type RetrySettings struct {
	MaxAttempts   int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	Strategy      string        `yaml:"strategy" mapstructure:"strategy"`
	BaseDelay     time.Duration `yaml:"base_delay" mapstructure:"base_delay"`
	MaxDelay      time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor" mapstructure:"backoff_factor"`
	Jitter        *bool         `yaml:"jitter" mapstructure:"jitter"`
}

// Build converts the settings into a runtime configuration.
// An unknown strategy name is an error.
func (s RetrySettings) Build() (resilience.RetryConfig, error) {
	strategy := resilience.StrategyExponential
	if s.Strategy != "" {
		var err error
		strategy, err = resilience.ParseStrategy(s.Strategy)
		if err != nil {
			return resilience.RetryConfig{}, err
		}
	}

	jitter := true
	if s.Jitter != nil {
		jitter = *s.Jitter
	}

	return resilience.RetryConfig{
		MaxAttempts:   s.MaxAttempts,
		Strategy:      strategy,
		BaseDelay:     s.BaseDelay,
		MaxDelay:      s.MaxDelay,
		BackoffFactor: s.BackoffFactor,
		Jitter:        jitter,
	}, nil
}

// AdaptiveSettings configures adaptive rate limiting.
type AdaptiveSettings struct {
	Enabled           bool    `yaml:"enabled" mapstructure:"enabled"`
	MinLimit          int     `yaml:"min_limit" mapstructure:"min_limit"`
	MaxLimit          int     `yaml:"max_limit" mapstructure:"max_limit"`
	IncreaseThreshold int     `yaml:"increase_threshold" mapstructure:"increase_threshold"`
	IncreaseFactor    float64 `yaml:"increase_factor" mapstructure:"increase_factor"`
	DecreaseFactor    float64 `yaml:"decrease_factor" mapstructure:"decrease_factor"`
}

// RateLimitSettings configures a named rate limiter.
type RateLimitSettings struct {
	RequestsPerPeriod int              `yaml:"requests_per_period" mapstructure:"requests_per_period"`
	Period            time.Duration    `yaml:"period" mapstructure:"period"`
	Adaptive          AdaptiveSettings `yaml:"adaptive" mapstructure:"adaptive"`
}

// Build converts the settings into a runtime configuration.
func (s RateLimitSettings) Build(name string) resilience.RateLimiterConfig {
	return resilience.RateLimiterConfig{
		Name:              name,
		RequestsPerPeriod: s.RequestsPerPeriod,
		Period:            s.Period,
	}
}

// BuildAdaptive converts the settings into an adaptive runtime
// configuration, using the plain limit as the initial limit.
func (s RateLimitSettings) BuildAdaptive(name string) resilience.AdaptiveRateLimiterConfig {
	return resilience.AdaptiveRateLimiterConfig{
		Name:              name,
		InitialLimit:      s.RequestsPerPeriod,
		Period:            s.Period,
		MinLimit:          s.Adaptive.MinLimit,
		MaxLimit:          s.Adaptive.MaxLimit,
		IncreaseThreshold: s.Adaptive.IncreaseThreshold,
		IncreaseFactor:    s.Adaptive.IncreaseFactor,
		DecreaseFactor:    s.Adaptive.DecreaseFactor,
	}
}

// BulkheadSettings configures a named bulkhead.
type BulkheadSettings struct {
	MaxConcurrent int           `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	MaxWait       time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
}

// Build converts the settings into a runtime configuration.
func (s BulkheadSettings) Build(name string) resilience.BulkheadConfig {
	return resilience.BulkheadConfig{
		Name:          name,
		MaxConcurrent: s.MaxConcurrent,
		MaxWait:       s.MaxWait,
	}
}

// CacheSettings configures a named cache.
type CacheSettings struct {
	MaxSize    int           `yaml:"max_size" mapstructure:"max_size"`
	DefaultTTL time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
}

// Build converts the settings into a runtime configuration.
func (s CacheSettings) Build(name string) cache.Config {
	return cache.Config{
		Name:       name,
		MaxSize:    s.MaxSize,
		DefaultTTL: s.DefaultTTL,
	}
}

// DefaultSettings holds the settings applied to every dependency that has
// no override of its own.
type DefaultSettings struct {
	CircuitBreaker CircuitBreakerSettings `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	Retry          RetrySettings          `yaml:"retry" mapstructure:"retry"`
	RateLimit      RateLimitSettings      `yaml:"rate_limit" mapstructure:"rate_limit"`
	Bulkhead       BulkheadSettings       `yaml:"bulkhead" mapstructure:"bulkhead"`
	Cache          CacheSettings          `yaml:"cache" mapstructure:"cache"`
}

// DependencySettings overrides defaults for one named dependency. Nil
// fields fall through to the defaults.
type DependencySettings struct {
	CircuitBreaker *CircuitBreakerSettings `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	Retry          *RetrySettings          `yaml:"retry" mapstructure:"retry"`
	RateLimit      *RateLimitSettings      `yaml:"rate_limit" mapstructure:"rate_limit"`
	Bulkhead       *BulkheadSettings       `yaml:"bulkhead" mapstructure:"bulkhead"`
	Cache          *CacheSettings          `yaml:"cache" mapstructure:"cache"`
}

// Config is the root configuration for a guardkit application.
type Config struct {
	Name         string                        `yaml:"name" mapstructure:"name"`
	Environment  string                        `yaml:"environment" mapstructure:"environment"`
	Debug        bool                          `yaml:"debug" mapstructure:"debug"`
	Logging      logger.Config                 `yaml:"logging" mapstructure:"logging"`
	Defaults     DefaultSettings               `yaml:"defaults" mapstructure:"defaults"`
	Dependencies map[string]DependencySettings `yaml:"dependencies" mapstructure:"dependencies"`
}

// ApplyDefaults fills every unset field with its default value.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	c.Logging.ApplyDefaults()

	d := &c.Defaults
	if d.CircuitBreaker.FailureThreshold == 0 {
		d.CircuitBreaker.FailureThreshold = 5
	}
	if d.CircuitBreaker.SuccessThreshold == 0 {
		d.CircuitBreaker.SuccessThreshold = 3
	}
	if d.CircuitBreaker.RecoveryTimeout == 0 {
		d.CircuitBreaker.RecoveryTimeout = 60 * time.Second
	}

	if d.Retry.MaxAttempts == 0 {
		d.Retry.MaxAttempts = 3
	}
	if d.Retry.Strategy == "" {
		d.Retry.Strategy = "exponential"
	}
	if d.Retry.BaseDelay == 0 {
		d.Retry.BaseDelay = time.Second
	}
	if d.Retry.MaxDelay == 0 {
		d.Retry.MaxDelay = 60 * time.Second
	}
	if d.Retry.BackoffFactor == 0 {
		d.Retry.BackoffFactor = 2.0
	}

	if d.RateLimit.RequestsPerPeriod == 0 {
		d.RateLimit.RequestsPerPeriod = 60
	}
	if d.RateLimit.Period == 0 {
		d.RateLimit.Period = 60 * time.Second
	}
	if d.RateLimit.Adaptive.MinLimit == 0 {
		d.RateLimit.Adaptive.MinLimit = 10
	}
	if d.RateLimit.Adaptive.MaxLimit == 0 {
		d.RateLimit.Adaptive.MaxLimit = 200
	}
	if d.RateLimit.Adaptive.IncreaseThreshold == 0 {
		d.RateLimit.Adaptive.IncreaseThreshold = 10
	}
	if d.RateLimit.Adaptive.IncreaseFactor == 0 {
		d.RateLimit.Adaptive.IncreaseFactor = 1.1
	}
	if d.RateLimit.Adaptive.DecreaseFactor == 0 {
		d.RateLimit.Adaptive.DecreaseFactor = 0.5
	}

	if d.Bulkhead.MaxConcurrent == 0 {
		d.Bulkhead.MaxConcurrent = 10
	}

	if d.Cache.MaxSize == 0 {
		d.Cache.MaxSize = 128
	}
	if d.Cache.DefaultTTL == 0 {
		d.Cache.DefaultTTL = 5 * time.Minute
	}
}

var strategyNames = []string{"exponential", "fixed", "linear", "jitter"}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	v := validation.New()
	v.OneOf("environment", c.Environment, []string{"development", "staging", "production"})

	validateSettings(v, "defaults", c.Defaults.CircuitBreaker, c.Defaults.Retry, c.Defaults.RateLimit, c.Defaults.Bulkhead, c.Defaults.Cache)

	for name, dep := range c.Dependencies {
		prefix := "dependencies." + name
		if dep.CircuitBreaker != nil {
			validateCircuitBreaker(v, prefix, *dep.CircuitBreaker)
		}
		if dep.Retry != nil {
			validateRetry(v, prefix, *dep.Retry)
		}
		if dep.RateLimit != nil {
			validateRateLimit(v, prefix, *dep.RateLimit)
		}
		if dep.Bulkhead != nil {
			validateBulkhead(v, prefix, *dep.Bulkhead)
		}
		if dep.Cache != nil {
			validateCache(v, prefix, *dep.Cache)
		}
	}

	return v.Validate()
}

func validateSettings(v *validation.Validator, prefix string, cb CircuitBreakerSettings, r RetrySettings, rl RateLimitSettings, bh BulkheadSettings, ca CacheSettings) {
	validateCircuitBreaker(v, prefix, cb)
	validateRetry(v, prefix, r)
	validateRateLimit(v, prefix, rl)
	validateBulkhead(v, prefix, bh)
	validateCache(v, prefix, ca)
}

func validateCircuitBreaker(v *validation.Validator, prefix string, s CircuitBreakerSettings) {
	v.Min(prefix+".circuit_breaker.failure_threshold", s.FailureThreshold, 1)
	v.Min(prefix+".circuit_breaker.success_threshold", s.SuccessThreshold, 1)
	v.PositiveDuration(prefix+".circuit_breaker.recovery_timeout", s.RecoveryTimeout)
}

func validateRetry(v *validation.Validator, prefix string, s RetrySettings) {
	v.Min(prefix+".retry.max_attempts", s.MaxAttempts, 1)
	v.OneOf(prefix+".retry.strategy", s.Strategy, strategyNames)
	v.PositiveDuration(prefix+".retry.base_delay", s.BaseDelay)
	v.PositiveDuration(prefix+".retry.max_delay", s.MaxDelay)
	v.PositiveFloat(prefix+".retry.backoff_factor", s.BackoffFactor)
	v.Custom(s.MaxDelay >= s.BaseDelay, prefix+".retry.max_delay", "must be at least base_delay")
}

func validateRateLimit(v *validation.Validator, prefix string, s RateLimitSettings) {
	v.Min(prefix+".rate_limit.requests_per_period", s.RequestsPerPeriod, 1)
	v.PositiveDuration(prefix+".rate_limit.period", s.Period)
	if s.Adaptive.Enabled {
		v.Min(prefix+".rate_limit.adaptive.min_limit", s.Adaptive.MinLimit, 1)
		v.Custom(s.Adaptive.MaxLimit >= s.Adaptive.MinLimit,
			prefix+".rate_limit.adaptive.max_limit", "must be at least min_limit")
		v.Min(prefix+".rate_limit.adaptive.increase_threshold", s.Adaptive.IncreaseThreshold, 1)
		v.Custom(s.Adaptive.IncreaseFactor > 1,
			prefix+".rate_limit.adaptive.increase_factor", "must be greater than 1")
		v.Custom(s.Adaptive.DecreaseFactor > 0 && s.Adaptive.DecreaseFactor < 1,
			prefix+".rate_limit.adaptive.decrease_factor", "must be between 0 and 1")
	}
}

func validateBulkhead(v *validation.Validator, prefix string, s BulkheadSettings) {
	v.Min(prefix+".bulkhead.max_concurrent", s.MaxConcurrent, 1)
	v.Custom(s.MaxWait >= 0, prefix+".bulkhead.max_wait", "must not be negative")
}

func validateCache(v *validation.Validator, prefix string, s CacheSettings) {
	v.Min(prefix+".cache.max_size", s.MaxSize, 1)
}

// dependency returns the override block for name, if any.
func (c *Config) dependency(name string) DependencySettings {
	if c.Dependencies == nil {
		return DependencySettings{}
	}
	return c.Dependencies[name]
}

// CircuitBreakerFor returns the effective breaker configuration for a
// dependency, applying its override when present.
func (c *Config) CircuitBreakerFor(name string) resilience.CircuitBreakerConfig {
	if dep := c.dependency(name); dep.CircuitBreaker != nil {
		return dep.CircuitBreaker.Build(name)
	}
	return c.Defaults.CircuitBreaker.Build(name)
}

// RetryFor returns the effective retry configuration for a dependency.
func (c *Config) RetryFor(name string) (resilience.RetryConfig, error) {
	if dep := c.dependency(name); dep.Retry != nil {
		return dep.Retry.Build()
	}
	return c.Defaults.Retry.Build()
}

// RateLimiterFor returns the effective rate limiter configuration for a
// dependency.
func (c *Config) RateLimiterFor(name string) resilience.RateLimiterConfig {
	if dep := c.dependency(name); dep.RateLimit != nil {
		return dep.RateLimit.Build(name)
	}
	return c.Defaults.RateLimit.Build(name)
}

// AdaptiveRateLimiterFor returns the effective adaptive limiter
// configuration for a dependency.
func (c *Config) AdaptiveRateLimiterFor(name string) resilience.AdaptiveRateLimiterConfig {
	if dep := c.dependency(name); dep.RateLimit != nil {
		return dep.RateLimit.BuildAdaptive(name)
	}
	return c.Defaults.RateLimit.BuildAdaptive(name)
}

// BulkheadFor returns the effective bulkhead configuration for a
// dependency.
func (c *Config) BulkheadFor(name string) resilience.BulkheadConfig {
	if dep := c.dependency(name); dep.Bulkhead != nil {
		return dep.Bulkhead.Build(name)
	}
	return c.Defaults.Bulkhead.Build(name)
}

// CacheFor returns the effective cache configuration for a dependency.
func (c *Config) CacheFor(name string) cache.Config {
	if dep := c.dependency(name); dep.Cache != nil {
		return dep.Cache.Build(name)
	}
	return c.Defaults.Cache.Build(name)
}
