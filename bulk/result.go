package bulk

import (
	"errors"
	"fmt"
	"time"

	guarderrors "github.com/guardkit/guardkit/errors"
)

// ErrBulkAborted is matched by errors returned when a fail-fast batch aborts.
var ErrBulkAborted = errors.New("bulk operation aborted")

// AbortedError reports the first failure that aborted a fail-fast batch.
type AbortedError struct {
	Index int
	Err   error
}

// Error returns the string representation of the error.
func (e *AbortedError) Error() string {
	return fmt.Sprintf("bulk operation aborted at item %d: %v", e.Index, e.Err)
}

// Unwrap returns the failure that aborted the batch.
func (e *AbortedError) Unwrap() error { return e.Err }

// Is matches the ErrBulkAborted sentinel.
func (e *AbortedError) Is(target error) bool { return target == ErrBulkAborted }

// ItemResult is a successful outcome tagged with the originating item index.
type ItemResult[R any] struct {
	Index int `json:"index"`
	Value R   `json:"value"`
}

// ItemError is a failed outcome tagged with the originating item index.
type ItemError[T any] struct {
	Index int    `json:"index"`
	Item  T      `json:"item"`
	Err   error  `json:"-"`
	Type  string `json:"error_type"`
}

// Error returns the string representation of the error.
func (e ItemError[T]) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying item failure.
func (e ItemError[T]) Unwrap() error { return e.Err }

// errorType classifies an item failure for reporting. Classified remote
// errors report their code; everything else reports the Go type.
func errorType(err error) string {
	if re, ok := guarderrors.AsRemoteError(err); ok {
		return string(re.Code)
	}
	return fmt.Sprintf("%T", err)
}

// Result aggregates the outcome of a bulk operation.
type Result[T, R any] struct {
	// BatchID correlates log lines and results for one execution.
	BatchID string `json:"batch_id"`
	// TotalItems is the number of items submitted.
	TotalItems int `json:"total_items"`
	// SuccessfulItems is the number of items that completed without error.
	SuccessfulItems int `json:"successful_items"`
	// FailedItems is the number of items that failed.
	FailedItems int `json:"failed_items"`
	// Results holds successful outcomes in completion order.
	Results []ItemResult[R] `json:"results"`
	// Errors holds failed outcomes in completion order.
	Errors []ItemError[T] `json:"errors"`
	// Duration is the end-to-end batch duration.
	Duration time.Duration `json:"duration"`
}

// SuccessRate returns the percentage of items that succeeded, 0 for an
// empty batch.
func (r *Result[T, R]) SuccessRate() float64 {
	if r.TotalItems == 0 {
		return 0
	}
	return float64(r.SuccessfulItems) / float64(r.TotalItems) * 100
}

// AllSucceeded reports whether every item in a non-empty batch succeeded.
func (r *Result[T, R]) AllSucceeded() bool {
	return r.TotalItems > 0 && r.FailedItems == 0
}
