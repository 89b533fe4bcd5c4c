package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// Common bulkhead errors.
var (
	ErrBulkheadFull    = errors.New("bulkhead is full")
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies this bulkhead for metrics/logging.
	Name string
	// MaxConcurrent is the maximum number of concurrent calls.
	MaxConcurrent int
	// MaxWait bounds how long Acquire waits for a slot. 0 means wait until
	// the caller's context is done.
	MaxWait time.Duration
	// OnReject is called when a request is rejected.
	OnReject func(name string)
	// OnAcquire is called when a slot is acquired.
	OnAcquire func(name string)
	// OnRelease is called when a slot is released.
	OnRelease func(name string)
}

// DefaultBulkheadConfig returns sensible defaults.
func DefaultBulkheadConfig(name string) BulkheadConfig {
	return BulkheadConfig{
		Name:          name,
		MaxConcurrent: 10,
		MaxWait:       0, // Queue until the context is done
	}
}

// BulkheadStats is a read-only snapshot for observability.
type BulkheadStats struct {
	Name           string `json:"name"`
	MaxConcurrent  int    `json:"max_concurrent"`
	Active         int    `json:"active"`
	AvailableSlots int    `json:"available_slots"`
	TotalAdmitted  uint64 `json:"total_admitted"`
	TotalRejected  uint64 `json:"total_rejected"`
}

// Bulkhead implements the bulkhead pattern for concurrency limiting.
// It isolates components so one slow dependency cannot exhaust the process.
type Bulkhead struct {
	config BulkheadConfig
	sem    chan struct{}

	totalAdmitted atomic.Uint64
	totalRejected atomic.Uint64
}

// NewBulkhead creates a new bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}

	return &Bulkhead{
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrent),
	}
}

// Execute runs the given function within the bulkhead. The slot is released
// on every exit path, including panics and cancellation.
// Returns ErrBulkheadTimeout if MaxWait elapses before a slot frees.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()

	return fn()
}

// ExecuteWithResult runs a function that returns a value within a bulkhead.
func ExecuteWithResult[T any](ctx context.Context, b *Bulkhead, fn func() (T, error)) (T, error) {
	var result T
	err := b.Execute(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

// Acquire claims a slot, blocking until one frees, MaxWait elapses, or the
// context is done. With MaxWait 0 the wait is bounded only by the context.
// Callers must pair every successful Acquire with a Release, normally via
// defer. Only a MaxWait timeout counts toward TotalRejected; a caller
// cancelling its own context is not a rejection.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	// Try immediate acquire
	select {
	case b.sem <- struct{}{}:
		b.admitted()
		return nil
	default:
	}

	var timeout <-chan time.Time
	if b.config.MaxWait > 0 {
		timer := time.NewTimer(b.config.MaxWait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case b.sem <- struct{}{}:
		b.admitted()
		return nil
	case <-timeout:
		b.rejected()
		return ErrBulkheadTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire claims a slot without waiting.
// Returns ErrBulkheadFull when no slot is free.
func (b *Bulkhead) TryAcquire() error {
	select {
	case b.sem <- struct{}{}:
		b.admitted()
		return nil
	default:
		b.rejected()
		return ErrBulkheadFull
	}
}

// Release returns a slot to the bulkhead.
func (b *Bulkhead) Release() {
	<-b.sem
	if b.config.OnRelease != nil {
		b.config.OnRelease(b.config.Name)
	}
}

func (b *Bulkhead) admitted() {
	b.totalAdmitted.Add(1)
	if b.config.OnAcquire != nil {
		b.config.OnAcquire(b.config.Name)
	}
}

func (b *Bulkhead) rejected() {
	b.totalRejected.Add(1)
	if b.config.OnReject != nil {
		b.config.OnReject(b.config.Name)
	}
}

// Available returns the number of available slots.
func (b *Bulkhead) Available() int {
	return b.config.MaxConcurrent - len(b.sem)
}

// InUse returns the number of slots currently in use.
func (b *Bulkhead) InUse() int {
	return len(b.sem)
}

// MaxConcurrent returns the maximum concurrent calls allowed.
func (b *Bulkhead) MaxConcurrent() int {
	return b.config.MaxConcurrent
}

// Stats returns a read-only snapshot of the bulkhead.
func (b *Bulkhead) Stats() BulkheadStats {
	active := len(b.sem)
	return BulkheadStats{
		Name:           b.config.Name,
		MaxConcurrent:  b.config.MaxConcurrent,
		Active:         active,
		AvailableSlots: b.config.MaxConcurrent - active,
		TotalAdmitted:  b.totalAdmitted.Load(),
		TotalRejected:  b.totalRejected.Load(),
	}
}
