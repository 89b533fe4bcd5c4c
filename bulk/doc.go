// Package bulk fans one operation out across many items with bounded
// concurrency and per-item success/failure accounting.
//
// Each item's outcome is captured independently and tagged with the item's
// index for correlation; completion order is unconstrained. With FailFast
// the first failure aborts the batch and propagates immediately.
//
//	result, err := bulk.Execute(ctx, repos, fetchRepo, bulk.Config{MaxWorkers: 5})
//	for _, e := range result.Errors {
//	    log.Warn("item failed", "index", e.Index)
//	}
package bulk
