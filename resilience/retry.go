package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	guarderrors "github.com/guardkit/guardkit/errors"
)

// ErrMaxRetriesExceeded is matched by errors returned after all retry
// attempts are exhausted.
var ErrMaxRetriesExceeded = errors.New("max retries exceeded")

// MaxRetriesError wraps the last underlying error after exhausting attempts.
type MaxRetriesError struct {
	Attempts int
	Err      error
}

// Error returns the string representation of the error.
func (e *MaxRetriesError) Error() string {
	return fmt.Sprintf("max retries exceeded after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the last underlying error.
func (e *MaxRetriesError) Unwrap() error { return e.Err }

// Is matches the ErrMaxRetriesExceeded sentinel.
func (e *MaxRetriesError) Is(target error) bool { return target == ErrMaxRetriesExceeded }

// Strategy selects how retry delays grow across attempts.
type Strategy int

const (
	// StrategyExponential multiplies the base delay by factor^(attempt-1).
	StrategyExponential Strategy = iota
	// StrategyFixed uses the base delay for every attempt.
	StrategyFixed
	// StrategyLinear multiplies the base delay by the attempt number.
	StrategyLinear
	// StrategyJitter is exponential backoff with jitter always applied.
	StrategyJitter
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyExponential:
		return "exponential"
	case StrategyFixed:
		return "fixed"
	case StrategyLinear:
		return "linear"
	case StrategyJitter:
		return "jitter"
	default:
		return "unknown"
	}
}

// ParseStrategy converts a strategy name into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "exponential", "":
		return StrategyExponential, nil
	case "fixed":
		return StrategyFixed, nil
	case "linear":
		return StrategyLinear, nil
	case "jitter":
		return StrategyJitter, nil
	default:
		return StrategyExponential, fmt.Errorf("unknown retry strategy %q", name)
	}
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int
	// Strategy selects the backoff curve.
	Strategy Strategy
	// BaseDelay is the initial delay between retries.
	BaseDelay time.Duration
	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration
	// BackoffFactor is the multiplier for exponential backoff.
	BackoffFactor float64
	// Jitter widens each delay by up to 10% to avoid synchronized retry storms.
	Jitter bool
	// RetryIf determines if an error should be retried.
	RetryIf func(error) bool
	// OnRetry is called before each retry sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		Strategy:      StrategyExponential,
		BaseDelay:     time.Second,
		MaxDelay:      60 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
		RetryIf:       DefaultRetryIf,
	}
}

// DefaultRetryIf retries transient errors. Context cancellation and
// validation-class errors propagate immediately.
func DefaultRetryIf(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	return guarderrors.IsRetryable(err)
}

// jitterFraction is the maximum uniform widening applied to a computed delay.
const jitterFraction = 0.1

// withDefaults fills zero fields with defaults.
func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 60 * time.Second
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = 2.0
	}
	if c.RetryIf == nil {
		c.RetryIf = DefaultRetryIf
	}
	return c
}

// ShouldRetry reports whether another attempt should be made after a failure
// on the given attempt number (1-based).
func (c RetryConfig) ShouldRetry(attempt int, err error) bool {
	cfg := c.withDefaults()
	if attempt >= cfg.MaxAttempts {
		return false
	}
	return cfg.RetryIf(err)
}

// Delay computes the sleep before the next attempt. A server-provided
// retry-after hint carried by err takes precedence over the strategy's base;
// the result is clamped to [0, MaxDelay] and then optionally widened by up
// to 10% uniform jitter.
func (c RetryConfig) Delay(attempt int, err error) time.Duration {
	cfg := c.withDefaults()

	var delay float64
	if hint, ok := guarderrors.RetryAfterHint(err); ok {
		delay = float64(hint)
	} else {
		switch cfg.Strategy {
		case StrategyFixed:
			delay = float64(cfg.BaseDelay)
		case StrategyLinear:
			delay = float64(cfg.BaseDelay) * float64(attempt)
		default: // StrategyExponential, StrategyJitter
			delay = float64(cfg.BaseDelay) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
		}
	}

	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if delay < 0 {
		delay = 0
	}

	if cfg.Jitter || cfg.Strategy == StrategyJitter {
		delay += rand.Float64() * jitterFraction * delay
	}

	return time.Duration(delay)
}

// Retry executes a function with retry logic. On a retryable failure with
// attempts remaining it sleeps for Delay, then retries; on exhaustion it
// returns a MaxRetriesError wrapping the last error. Sleeps are cancellable
// through ctx.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	cfg = cfg.withDefaults()

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !cfg.RetryIf(err) {
			return zero, err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		delay := cfg.Delay(attempt, err)

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, &MaxRetriesError{Attempts: cfg.MaxAttempts, Err: lastErr}
}

// RetryFunc executes a function that returns only an error.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func() error) error {
	_, err := Retry(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
