package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned by non-blocking admission when the window is full.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimiterConfig configures a sliding-window rate limiter.
type RateLimiterConfig struct {
	// Name identifies this rate limiter for metrics/logging.
	Name string
	// RequestsPerPeriod is the number of admissions allowed per period.
	RequestsPerPeriod int
	// Period is the length of the trailing window.
	Period time.Duration
	// OnLimit is called when a request is rate limited.
	OnLimit func(name string)
}

// DefaultRateLimiterConfig returns sensible defaults.
func DefaultRateLimiterConfig(name string) RateLimiterConfig {
	return RateLimiterConfig{
		Name:              name,
		RequestsPerPeriod: 60,
		Period:            60 * time.Second,
	}
}

// RateLimiterUsage reports window occupancy for observability.
type RateLimiterUsage struct {
	Name      string    `json:"name"`
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Percent   float64   `json:"percent"`
	ResetAt   time.Time `json:"reset_at"`
}

// RateLimiter implements sliding-window admission control. It counts
// admissions within a trailing window rather than fixed calendar buckets:
// at most RequestsPerPeriod admissions are retained per Period, pruned on
// every check.
type RateLimiter struct {
	config RateLimiterConfig

	mu         sync.Mutex
	timestamps []time.Time
	now        func() time.Time
}

// NewRateLimiter creates a new sliding-window rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.RequestsPerPeriod <= 0 {
		config.RequestsPerPeriod = 60
	}
	if config.Period <= 0 {
		config.Period = 60 * time.Second
	}

	return &RateLimiter{
		config:     config,
		timestamps: make([]time.Time, 0, config.RequestsPerPeriod),
		now:        time.Now,
	}
}

// Allow admits a request if the window has capacity, without blocking.
// Returns false if rate limited.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.prune(rl.now())

	if len(rl.timestamps) < rl.config.RequestsPerPeriod {
		rl.timestamps = append(rl.timestamps, rl.now())
		return true
	}

	if rl.config.OnLimit != nil {
		rl.config.OnLimit(rl.config.Name)
	}
	return false
}

// CanRequest reports whether a request would be admitted right now.
// It is a read-only probe: no admission is recorded.
func (rl *RateLimiter) CanRequest() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.prune(rl.now())
	return len(rl.timestamps) < rl.config.RequestsPerPeriod
}

// Wait blocks until the window has capacity and records the admission.
// It returns how long the caller waited. The sleep happens outside the
// lock and is cancellable through ctx.
func (rl *RateLimiter) Wait(ctx context.Context) (time.Duration, error) {
	start := rl.now()

	for {
		rl.mu.Lock()
		now := rl.now()
		rl.prune(now)

		if len(rl.timestamps) < rl.config.RequestsPerPeriod {
			rl.timestamps = append(rl.timestamps, now)
			rl.mu.Unlock()
			return rl.now().Sub(start), nil
		}

		// Window is full: capacity frees when the oldest admission ages out.
		waitUntil := rl.timestamps[0].Add(rl.config.Period)
		rl.mu.Unlock()

		if rl.config.OnLimit != nil {
			rl.config.OnLimit(rl.config.Name)
		}

		timer := time.NewTimer(waitUntil.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return rl.now().Sub(start), ctx.Err()
		case <-timer.C:
		}
	}
}

// Execute runs a function if the window has capacity.
func (rl *RateLimiter) Execute(fn func() error) error {
	if !rl.Allow() {
		return ErrRateLimited
	}
	return fn()
}

// ExecuteWait blocks until the window has capacity, then runs the function.
func (rl *RateLimiter) ExecuteWait(ctx context.Context, fn func() error) error {
	if _, err := rl.Wait(ctx); err != nil {
		return err
	}
	return fn()
}

// Usage returns window occupancy: admissions used, slots remaining, and the
// projected time the oldest admission ages out.
func (rl *RateLimiter) Usage() RateLimiterUsage {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.prune(rl.now())

	usage := RateLimiterUsage{
		Name:      rl.config.Name,
		Used:      len(rl.timestamps),
		Limit:     rl.config.RequestsPerPeriod,
		Remaining: rl.config.RequestsPerPeriod - len(rl.timestamps),
		Percent:   float64(len(rl.timestamps)) / float64(rl.config.RequestsPerPeriod) * 100,
	}
	if len(rl.timestamps) > 0 {
		usage.ResetAt = rl.timestamps[0].Add(rl.config.Period)
	}
	return usage
}

// Limit returns the configured admissions per period.
func (rl *RateLimiter) Limit() int {
	return rl.config.RequestsPerPeriod
}

// Period returns the window length.
func (rl *RateLimiter) Period() time.Duration {
	return rl.config.Period
}

// prune drops admissions older than the trailing window. Caller holds the lock.
func (rl *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-rl.config.Period)
	i := 0
	for i < len(rl.timestamps) && !rl.timestamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		rl.timestamps = append(rl.timestamps[:0], rl.timestamps[i:]...)
	}
}
