package bulk

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guardkit/guardkit/logger"
)

// Config configures a bulk execution.
type Config struct {
	// MaxWorkers is the maximum number of concurrent item operations.
	MaxWorkers int
	// FailFast aborts the whole batch on the first failure. In-flight items
	// are not cancelled but their outcomes are discarded.
	FailFast bool
	// OnProgress is invoked after each item completes.
	OnProgress func(completed, total int)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxWorkers: 5,
	}
}

// Execute runs op over every item with at most MaxWorkers concurrent
// invocations. Item outcomes are captured independently and tagged with the
// originating index; per-item failures are collected, not raised, unless
// FailFast is set, in which case the first failure aborts the batch and is
// returned as an AbortedError alongside the partial result.
func Execute[T, R any](ctx context.Context, items []T, op func(ctx context.Context, item T) (R, error), cfg Config) (*Result[T, R], error) {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 5
	}

	result := &Result[T, R]{
		BatchID:    uuid.New().String(),
		TotalItems: len(items),
	}

	log := logger.WithComponent("bulk")
	log.Debug("bulk operation started", logger.Fields(
		logger.FieldBatchID, result.BatchID,
		"total", len(items),
		"workers", cfg.MaxWorkers,
	))

	start := time.Now()

	if len(items) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if cfg.FailFast {
		runCtx, cancel = context.WithCancel(ctx)
		defer cancel()
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		completed int
		aborted   *AbortedError
	)

	sem := make(chan struct{}, cfg.MaxWorkers)

	for i, item := range items {
		if cfg.FailFast && runCtx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(index int, item T) {
			defer wg.Done()
			defer func() { <-sem }()

			value, err := op(runCtx, item)

			mu.Lock()
			defer mu.Unlock()

			if cfg.FailFast && aborted != nil {
				// Batch already aborted; this outcome is ignored.
				return
			}

			if err != nil {
				if cfg.FailFast {
					aborted = &AbortedError{Index: index, Err: err}
					cancel()
				}
				result.FailedItems++
				result.Errors = append(result.Errors, ItemError[T]{
					Index: index,
					Item:  item,
					Err:   err,
					Type:  errorType(err),
				})
				log.Warn("bulk item failed", logger.Fields(
					logger.FieldBatchID, result.BatchID,
					logger.FieldIndex, index,
					logger.FieldError, err.Error(),
				))
			} else {
				result.SuccessfulItems++
				result.Results = append(result.Results, ItemResult[R]{
					Index: index,
					Value: value,
				})
			}

			completed++
			if cfg.OnProgress != nil {
				cfg.OnProgress(completed, result.TotalItems)
			}
		}(i, item)
	}

	wg.Wait()

	result.Duration = time.Since(start)

	if aborted != nil {
		// Items never launched still belong to the total.
		result.FailedItems = result.TotalItems - result.SuccessfulItems
		log.Warn("bulk operation aborted", logger.Fields(
			logger.FieldBatchID, result.BatchID,
			logger.FieldIndex, aborted.Index,
		))
		return result, aborted
	}

	log.Debug("bulk operation completed", logger.Fields(
		logger.FieldBatchID, result.BatchID,
		"successful", result.SuccessfulItems,
		"failed", result.FailedItems,
		logger.FieldDuration, result.Duration.Milliseconds(),
	))

	return result, nil
}
