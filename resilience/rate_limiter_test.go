package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:              "test",
		RequestsPerPeriod: 3,
		Period:            time.Second,
	})

	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Errorf("request %d should have been admitted", i)
		}
	}
	if rl.Allow() {
		t.Error("request beyond the limit should have been rejected")
	}
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:              "test",
		RequestsPerPeriod: 2,
		Period:            50 * time.Millisecond,
	})

	if !rl.Allow() || !rl.Allow() {
		t.Fatal("expected first two admissions")
	}
	if rl.Allow() {
		t.Fatal("expected rejection while window is full")
	}

	time.Sleep(60 * time.Millisecond)

	if !rl.Allow() {
		t.Error("expected admission after the window slid past old entries")
	}
}

func TestRateLimiter_CanRequestIsReadOnly(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:              "test",
		RequestsPerPeriod: 1,
		Period:            time.Second,
	})

	// Probing repeatedly must not consume capacity
	for i := 0; i < 5; i++ {
		if !rl.CanRequest() {
			t.Fatalf("probe %d should report capacity", i)
		}
	}

	if !rl.Allow() {
		t.Error("expected the single admission to still be available")
	}
	if rl.CanRequest() {
		t.Error("probe should report a full window")
	}
}

func TestRateLimiter_WaitAdmitsImmediatelyWithCapacity(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:              "test",
		RequestsPerPeriod: 5,
		Period:            time.Second,
	})

	waited, err := rl.Wait(context.Background())
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if waited > 10*time.Millisecond {
		t.Errorf("expected immediate admission, waited %v", waited)
	}
}

func TestRateLimiter_WaitBlocksUntilCapacity(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:              "test",
		RequestsPerPeriod: 1,
		Period:            50 * time.Millisecond,
	})

	if !rl.Allow() {
		t.Fatal("expected first admission")
	}

	start := time.Now()
	waited, err := rl.Wait(context.Background())
	elapsed := time.Since(start)

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if elapsed < 30*time.Millisecond {
		t.Errorf("expected to block until the window slid, blocked %v", elapsed)
	}
	if waited < 30*time.Millisecond {
		t.Errorf("expected reported wait to match, got %v", waited)
	}
}

func TestRateLimiter_WaitCancellable(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:              "test",
		RequestsPerPeriod: 1,
		Period:            time.Hour, // Would block forever without cancellation
	})

	if !rl.Allow() {
		t.Fatal("expected first admission")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := rl.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestRateLimiter_AdmissionBoundUnderConcurrency(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:              "test",
		RequestsPerPeriod: 5,
		Period:            time.Second,
	})

	var admitted int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow() {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 5 {
		t.Errorf("expected exactly 5 admissions, got %d", admitted)
	}
}

func TestRateLimiter_Usage(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:              "api",
		RequestsPerPeriod: 4,
		Period:            time.Second,
	})

	rl.Allow()
	rl.Allow()

	usage := rl.Usage()
	if usage.Used != 2 {
		t.Errorf("expected 2 used, got %d", usage.Used)
	}
	if usage.Remaining != 2 {
		t.Errorf("expected 2 remaining, got %d", usage.Remaining)
	}
	if usage.Percent != 50 {
		t.Errorf("expected 50%%, got %v", usage.Percent)
	}
	if usage.ResetAt.IsZero() {
		t.Error("expected a projected reset time")
	}
}

func TestRateLimiter_OnLimitHook(t *testing.T) {
	var limited int

	rl := NewRateLimiter(RateLimiterConfig{
		Name:              "test",
		RequestsPerPeriod: 1,
		Period:            time.Second,
		OnLimit: func(name string) {
			limited++
		},
	})

	rl.Allow()
	rl.Allow()

	if limited != 1 {
		t.Errorf("expected 1 limit callback, got %d", limited)
	}
}

func TestRateLimiter_Execute(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:              "test",
		RequestsPerPeriod: 1,
		Period:            time.Second,
	})

	if err := rl.Execute(func() error { return nil }); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := rl.Execute(func() error { return nil }); !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}
