package httpclient

import (
	"time"

	"github.com/guardkit/guardkit/resilience"
	"github.com/guardkit/guardkit/validation"
)

// Config configures an HTTP client. The resilience fields are optional;
// nil fields mean the corresponding layer is skipped.
type Config struct {
	// Name identifies the remote dependency for logging and breaker state.
	Name string
	// BaseURL is prepended to relative request paths.
	BaseURL string
	// Timeout bounds each individual request attempt.
	Timeout time.Duration
	// Headers are applied to every request.
	Headers map[string]string
	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// CircuitBreaker guards requests when set.
	CircuitBreaker *resilience.CircuitBreakerConfig
	// Retry re-invokes failed requests when set. Rate-limit hints from
	// 429 responses take precedence over the computed backoff.
	Retry *resilience.RetryConfig
	// RateLimiter paces requests when set.
	RateLimiter *resilience.RateLimiterConfig
	// AdaptiveRateLimiter paces requests and resizes on feedback when
	// set. Takes precedence over RateLimiter.
	AdaptiveRateLimiter *resilience.AdaptiveRateLimiterConfig
}

// ApplyDefaults fills unset fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "http"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "guardkit-httpclient"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	v := validation.New()
	v.Required("name", c.Name)
	v.PositiveDuration("timeout", c.Timeout)
	return v.Validate()
}
