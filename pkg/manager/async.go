package manager

import (
	"context"
	"sync"
	"time"

	"github.com/nimburion/docmap/pkg/document"
	"github.com/nimburion/docmap/pkg/observability/logger"
	"github.com/nimburion/docmap/pkg/query"
)

// AsyncAdapter derives an AsyncManager from a synchronous Manager by running
// each operation on its own goroutine. Failures of operations dispatched
// without a callback are not dropped; they go to the adapter's logger.
//
// No ordering is guaranteed between two operations issued back-to-back;
// callers that need sequencing must chain via callbacks.
type AsyncAdapter struct {
	manager Manager
	logger  logger.Logger
	wg      sync.WaitGroup
}

// Async wraps a synchronous manager for callback-driven use. The logger acts
// as the failure sink for callback-less operations; pass nil to discard.
func Async(m Manager, log logger.Logger) *AsyncAdapter {
	if log == nil {
		log = logger.NewNop()
	}
	return &AsyncAdapter{manager: m, logger: log}
}

// Insert schedules an insert and returns immediately.
func (a *AsyncAdapter) Insert(ctx context.Context, doc document.Document, ttl time.Duration, cb Callback[document.Document]) {
	dispatch(a, "insert", doc.Collection, cb, func() (document.Document, error) {
		return a.manager.Insert(ctx, doc, ttl)
	})
}

// Update schedules an update and returns immediately.
func (a *AsyncAdapter) Update(ctx context.Context, doc document.Document, cb Callback[document.Document]) {
	dispatch(a, "update", doc.Collection, cb, func() (document.Document, error) {
		return a.manager.Update(ctx, doc)
	})
}

// Delete schedules a delete and returns immediately.
func (a *AsyncAdapter) Delete(ctx context.Context, q query.DeleteQuery, cb func(err error)) {
	var wrapped Callback[struct{}]
	if cb != nil {
		wrapped = func(_ struct{}, err error) { cb(err) }
	}
	dispatch(a, "delete", q.Collection, wrapped, func() (struct{}, error) {
		return struct{}{}, a.manager.Delete(ctx, q)
	})
}

// Select schedules a select and returns immediately.
func (a *AsyncAdapter) Select(ctx context.Context, q query.Query, cb Callback[document.Stream]) {
	dispatch(a, "select", q.Collection, cb, func() (document.Stream, error) {
		return a.manager.Select(ctx, q)
	})
}

// Count schedules a count and returns immediately.
func (a *AsyncAdapter) Count(ctx context.Context, q query.Query, cb Callback[int64]) {
	dispatch(a, "count", q.Collection, cb, func() (int64, error) {
		return a.manager.Count(ctx, q)
	})
}

// Wait blocks until every operation dispatched so far has completed. Intended
// for orderly shutdown and tests.
func (a *AsyncAdapter) Wait() {
	a.wg.Wait()
}

func dispatchOnce[T any](cb Callback[T]) Callback[T] {
	var once sync.Once
	return func(result T, err error) {
		once.Do(func() { cb(result, err) })
	}
}

func dispatch[T any](a *AsyncAdapter, op, collection string, cb Callback[T], run func() (T, error)) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		result, err := run()
		if cb == nil {
			if err != nil {
				a.logger.Error("async operation failed without callback",
					"operation", op, "collection", collection, "error", err)
			}
			return
		}
		dispatchOnce(cb)(result, err)
	}()
}
