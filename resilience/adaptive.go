package resilience

import (
	"context"
	"math"
	"sync"
	"time"
)

// AdaptiveRateLimiterConfig configures an adaptive rate limiter.
type AdaptiveRateLimiterConfig struct {
	// Name identifies this limiter for metrics/logging.
	Name string
	// InitialLimit is the starting admissions per period.
	InitialLimit int
	// Period is the length of the trailing window.
	Period time.Duration
	// MinLimit is the floor the limit can contract to.
	MinLimit int
	// MaxLimit is the ceiling the limit can expand to.
	MaxLimit int
	// IncreaseThreshold is the consecutive successes required before expanding.
	IncreaseThreshold int
	// IncreaseFactor multiplies the limit on expansion.
	IncreaseFactor float64
	// DecreaseFactor multiplies the limit on throttling feedback.
	DecreaseFactor float64
	// OnResize is called whenever the limit changes.
	OnResize func(name string, from, to int)
}

// DefaultAdaptiveRateLimiterConfig returns sensible defaults.
func DefaultAdaptiveRateLimiterConfig(name string) AdaptiveRateLimiterConfig {
	return AdaptiveRateLimiterConfig{
		Name:              name,
		InitialLimit:      60,
		Period:            60 * time.Second,
		MinLimit:          10,
		MaxLimit:          200,
		IncreaseThreshold: 10,
		IncreaseFactor:    1.1,
		DecreaseFactor:    0.5,
	}
}

// AdaptiveRateLimiterStats is a read-only snapshot for observability.
type AdaptiveRateLimiterStats struct {
	Name                 string  `json:"name"`
	CurrentLimit         int     `json:"current_limit"`
	MinLimit             int     `json:"min_limit"`
	MaxLimit             int     `json:"max_limit"`
	ConsecutiveSuccesses int     `json:"consecutive_successes"`
	RateLimitSignals     uint64  `json:"rate_limit_signals"`
	UsedPercent          float64 `json:"used_percent"`
}

// AdaptiveRateLimiter wraps a sliding-window RateLimiter and resizes it
// based on success/failure feedback from the remote service. The response
// is asymmetric: throttling feedback halves the limit immediately, while
// expansion requires sustained success. Each resize rebuilds the inner
// limiter, so the window history starts fresh at the new limit.
type AdaptiveRateLimiter struct {
	config AdaptiveRateLimiterConfig

	mu           sync.Mutex
	inner        *RateLimiter
	currentLimit int
	successes    int
	signals      uint64
}

// NewAdaptiveRateLimiter creates a new adaptive rate limiter.
func NewAdaptiveRateLimiter(config AdaptiveRateLimiterConfig) *AdaptiveRateLimiter {
	if config.InitialLimit <= 0 {
		config.InitialLimit = 60
	}
	if config.Period <= 0 {
		config.Period = 60 * time.Second
	}
	if config.MinLimit <= 0 {
		config.MinLimit = 10
	}
	if config.MaxLimit <= 0 {
		config.MaxLimit = 200
	}
	if config.IncreaseThreshold <= 0 {
		config.IncreaseThreshold = 10
	}
	if config.IncreaseFactor <= 1 {
		config.IncreaseFactor = 1.1
	}
	if config.DecreaseFactor <= 0 || config.DecreaseFactor >= 1 {
		config.DecreaseFactor = 0.5
	}
	if config.InitialLimit < config.MinLimit {
		config.InitialLimit = config.MinLimit
	}
	if config.InitialLimit > config.MaxLimit {
		config.InitialLimit = config.MaxLimit
	}

	a := &AdaptiveRateLimiter{
		config:       config,
		currentLimit: config.InitialLimit,
	}
	a.inner = a.buildLimiter(config.InitialLimit)
	return a
}

// Allow admits a request if the current window has capacity.
func (a *AdaptiveRateLimiter) Allow() bool {
	return a.limiter().Allow()
}

// CanRequest reports whether a request would be admitted right now.
func (a *AdaptiveRateLimiter) CanRequest() bool {
	return a.limiter().CanRequest()
}

// Wait blocks until the current window has capacity. In-flight waiters keep
// the limiter they started on; a resize applies to subsequent calls.
func (a *AdaptiveRateLimiter) Wait(ctx context.Context) (time.Duration, error) {
	return a.limiter().Wait(ctx)
}

// RecordSuccess feeds a successful remote call back into the limiter.
// After IncreaseThreshold consecutive successes the limit expands by
// IncreaseFactor, clamped to MaxLimit.
func (a *AdaptiveRateLimiter) RecordSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.successes++
	if a.successes < a.config.IncreaseThreshold {
		return
	}
	a.successes = 0

	next := clamp(
		int(math.Round(float64(a.currentLimit)*a.config.IncreaseFactor)),
		a.config.MinLimit, a.config.MaxLimit,
	)
	a.resize(next)
}

// RecordRateLimitSignal feeds a throttling rejection back into the limiter.
// The limit contracts by DecreaseFactor immediately, clamped to MinLimit,
// and the success streak resets.
func (a *AdaptiveRateLimiter) RecordRateLimitSignal() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.signals++
	a.successes = 0

	next := clamp(
		int(math.Round(float64(a.currentLimit)*a.config.DecreaseFactor)),
		a.config.MinLimit, a.config.MaxLimit,
	)
	a.resize(next)
}

// Limit returns the current admissions per period.
func (a *AdaptiveRateLimiter) Limit() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentLimit
}

// Usage returns window occupancy of the current inner limiter.
func (a *AdaptiveRateLimiter) Usage() RateLimiterUsage {
	return a.limiter().Usage()
}

// Stats returns a read-only snapshot of the adaptive limiter.
func (a *AdaptiveRateLimiter) Stats() AdaptiveRateLimiterStats {
	a.mu.Lock()
	inner := a.inner
	stats := AdaptiveRateLimiterStats{
		Name:                 a.config.Name,
		CurrentLimit:         a.currentLimit,
		MinLimit:             a.config.MinLimit,
		MaxLimit:             a.config.MaxLimit,
		ConsecutiveSuccesses: a.successes,
		RateLimitSignals:     a.signals,
	}
	a.mu.Unlock()

	stats.UsedPercent = inner.Usage().Percent
	return stats
}

// resize rebuilds the inner limiter at the new limit, discarding window
// history. Caller holds the lock.
func (a *AdaptiveRateLimiter) resize(to int) {
	if to == a.currentLimit {
		return
	}
	from := a.currentLimit
	a.currentLimit = to
	a.inner = a.buildLimiter(to)

	if a.config.OnResize != nil {
		a.config.OnResize(a.config.Name, from, to)
	}
}

func (a *AdaptiveRateLimiter) buildLimiter(limit int) *RateLimiter {
	return NewRateLimiter(RateLimiterConfig{
		Name:              a.config.Name,
		RequestsPerPeriod: limit,
		Period:            a.config.Period,
	})
}

func (a *AdaptiveRateLimiter) limiter() *RateLimiter {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inner
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
