package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	guarderrors "github.com/guardkit/guardkit/errors"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows requests to pass through.
	StateClosed State = iota
	// StateOpen blocks all requests.
	StateOpen
	// StateHalfOpen allows trial requests to test recovery.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the circuit rejects a call without
// invoking the protected function.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Condition determines whether an error counts as a breaker failure.
type Condition func(error) bool

// DefaultCondition counts every error except context cancellation and
// validation-class errors. A call cancelled by its caller says nothing about
// the health of the dependency, and a malformed request never will.
func DefaultCondition(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !guarderrors.IsValidation(err)
}

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies this circuit breaker for metrics/logging.
	Name string
	// FailureThreshold is the number of consecutive failures before opening.
	FailureThreshold int
	// SuccessThreshold is the number of consecutive successes in half-open
	// state required before closing.
	SuccessThreshold int
	// RecoveryTimeout is how long to wait before transitioning from open to half-open.
	RecoveryTimeout time.Duration
	// Condition decides which errors count as failures. Defaults to DefaultCondition.
	Condition Condition
	// OnStateChange is called when state changes.
	OnStateChange func(name string, from, to State)
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 3,
		RecoveryTimeout:  60 * time.Second,
	}
}

// CircuitBreakerStats is a read-only snapshot for observability.
type CircuitBreakerStats struct {
	Name             string        `json:"name"`
	State            string        `json:"state"`
	Failures         int           `json:"failures"`
	Successes        int           `json:"successes"`
	FailureThreshold int           `json:"failure_threshold"`
	SuccessThreshold int           `json:"success_threshold"`
	RecoveryTimeout  time.Duration `json:"recovery_timeout"`
	LastFailureTime  time.Time     `json:"last_failure_time"`
}

// CircuitBreaker implements the circuit breaker pattern.
// It prevents cascading failures by failing fast when a dependency is unhealthy.
//
// States:
//   - Closed: Normal operation, requests pass through
//   - Open: Dependency is unhealthy, requests fail immediately
//   - Half-Open: Testing if the dependency recovered
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu              sync.Mutex
	state           State
	failures        int
	successes       int
	lastFailureTime time.Time
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 3
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 60 * time.Second
	}
	if config.Condition == nil {
		config.Condition = DefaultCondition
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Execute runs the given function through the circuit breaker.
// Returns ErrCircuitOpen without invoking fn if the circuit is open and the
// recovery timeout has not elapsed. The breaker never swallows fn's error,
// it only gates calls.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allowRequest() {
		return ErrCircuitOpen
	}

	err := fn()
	cb.recordResult(err)
	return err
}

// Do runs a function returning a value through a circuit breaker.
func Do[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	var result T
	err := cb.Execute(func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

// State returns the state an arriving call would observe. It never commits
// the open to half-open transition, so observability polling cannot mutate
// the breaker or fire OnStateChange.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.projectedState()
}

// Reset resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.toState(StateClosed)
	cb.failures = 0
	cb.successes = 0
}

// Failures returns the current failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Stats returns a read-only snapshot of the breaker.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CircuitBreakerStats{
		Name:             cb.config.Name,
		State:            cb.projectedState().String(),
		Failures:         cb.failures,
		Successes:        cb.successes,
		FailureThreshold: cb.config.FailureThreshold,
		SuccessThreshold: cb.config.SuccessThreshold,
		RecoveryTimeout:  cb.config.RecoveryTimeout,
		LastFailureTime:  cb.lastFailureTime,
	}
}

// allowRequest checks if a request should be allowed.
func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState() != StateOpen
}

// recordResult records the result of a request. Cancellation is treated as
// neither success nor failure: the call says nothing about the dependency.
func (cb *CircuitBreaker) recordResult(err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		if cb.config.Condition(err) {
			cb.onFailure()
		}
		return
	}
	cb.onSuccess()
}

// onSuccess handles a successful request.
func (cb *CircuitBreaker) onSuccess() {
	switch cb.currentState() {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.toState(StateClosed)
		}
	}
}

// onFailure handles a counted failure.
func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.lastFailureTime = time.Now()

	switch cb.currentState() {
	case StateClosed:
		if cb.failures >= cb.config.FailureThreshold {
			cb.toState(StateOpen)
		}
	case StateHalfOpen:
		// A single failure during recovery testing reopens the circuit.
		cb.toState(StateOpen)
	}
}

// projectedState reports the state without committing the recovery
// transition. Read-only accessors use it.
func (cb *CircuitBreaker) projectedState() State {
	if cb.state == StateOpen && time.Since(cb.lastFailureTime) >= cb.config.RecoveryTimeout {
		return StateHalfOpen
	}
	return cb.state
}

// currentState returns the current state, handling timeout transitions.
func (cb *CircuitBreaker) currentState() State {
	if cb.state == StateOpen {
		if time.Since(cb.lastFailureTime) >= cb.config.RecoveryTimeout {
			cb.toState(StateHalfOpen)
		}
	}
	return cb.state
}

// toState transitions to a new state.
func (cb *CircuitBreaker) toState(to State) {
	if cb.state == to {
		return
	}

	from := cb.state
	cb.state = to

	switch to {
	case StateClosed:
		cb.failures = 0
		cb.successes = 0
	case StateHalfOpen, StateOpen:
		cb.successes = 0
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
