package template

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nimburion/docmap/pkg/document"
	"github.com/nimburion/docmap/pkg/manager"
	"github.com/nimburion/docmap/pkg/observability/logger"
	"github.com/nimburion/docmap/pkg/query"
)

// TemplateAsync is the callback-driven counterpart of Template, composed
// over an AsyncManager. Argument validation, conversion and the pre hook
// still run on the caller's goroutine and report synchronously through the
// returned error; the delegate call is handed to the async manager, and the
// post hook and entity conversion run inside the manager's completion
// notification before the caller's callback fires, exactly once.
//
// Failures of operations scheduled without a callback go to the template's
// logger instead of being dropped.
type TemplateAsync[T any] struct {
	tmpl   *Template[T]
	async  manager.AsyncManager
	logger logger.Logger
	wg     sync.WaitGroup
}

// NewAsync derives an asynchronous template from a synchronous one, running
// the template's manager through the goroutine-backed adapter.
func NewAsync[T any](tmpl *Template[T]) *TemplateAsync[T] {
	return NewAsyncOver(tmpl, manager.Async(tmpl.manager, tmpl.logger))
}

// NewAsyncOver composes the template over an explicit async manager, for
// store clients with a native completion mechanism.
func NewAsyncOver[T any](tmpl *Template[T], am manager.AsyncManager) *TemplateAsync[T] {
	return &TemplateAsync[T]{tmpl: tmpl, async: am, logger: tmpl.logger}
}

// Insert schedules an insert. The entity is converted before Insert returns;
// conversion failures are returned directly and the callback is not invoked.
func (a *TemplateAsync[T]) Insert(ctx context.Context, entity *T, cb manager.Callback[*T]) error {
	doc, err := a.tmpl.prepareWrite(ctx, OpInsert, entity)
	if err != nil {
		return err
	}
	a.dispatchInsert(ctx, doc, 0, cb)
	return nil
}

// InsertWithTTL schedules an insert of an entity that expires after ttl.
func (a *TemplateAsync[T]) InsertWithTTL(ctx context.Context, entity *T, ttl time.Duration, cb manager.Callback[*T]) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: ttl must be positive, got %v", ErrValidation, ttl)
	}
	doc, err := a.tmpl.prepareWrite(ctx, OpInsert, entity)
	if err != nil {
		return err
	}
	a.dispatchInsert(ctx, doc, ttl, cb)
	return nil
}

func (a *TemplateAsync[T]) dispatchInsert(ctx context.Context, doc document.Document, ttl time.Duration, cb manager.Callback[*T]) {
	finish := a.tmpl.observe(ctx, OpInsert, time.Now())
	a.wg.Add(1)
	a.async.Insert(ctx, doc, ttl, func(stored document.Document, err error) {
		defer a.wg.Done()
		var out *T
		if err != nil {
			err = a.tmpl.delegateErr("insert", err)
		} else {
			out, err = a.tmpl.finishRead(ctx, OpInsert, stored)
		}
		finish(&err)
		deliver(a, OpInsert, cb, out, err)
	})
}

// Update schedules an update, matched by the entity's identity field.
func (a *TemplateAsync[T]) Update(ctx context.Context, entity *T, cb manager.Callback[*T]) error {
	doc, err := a.tmpl.prepareWrite(ctx, OpUpdate, entity)
	if err != nil {
		return err
	}
	finish := a.tmpl.observe(ctx, OpUpdate, time.Now())
	a.wg.Add(1)
	a.async.Update(ctx, doc, func(stored document.Document, err error) {
		defer a.wg.Done()
		var out *T
		if err != nil {
			err = a.tmpl.delegateErr("update", err)
		} else {
			out, err = a.tmpl.finishRead(ctx, OpUpdate, stored)
		}
		finish(&err)
		deliver(a, OpUpdate, cb, out, err)
	})
	return nil
}

// Delete schedules a delete of every document matching the descriptor.
func (a *TemplateAsync[T]) Delete(ctx context.Context, q query.DeleteQuery, cb func(err error)) error {
	if err := a.tmpl.checkCollection(q.Collection); err != nil {
		return err
	}
	finish := a.tmpl.observe(ctx, OpDelete, time.Now())
	a.wg.Add(1)
	a.async.Delete(ctx, q, func(err error) {
		defer a.wg.Done()
		if err != nil {
			err = a.tmpl.delegateErr("delete", err)
		}
		finish(&err)
		if cb == nil {
			if err != nil {
				a.logger.Error("async operation failed without callback",
					"operation", string(OpDelete), "error", err)
			}
			return
		}
		cb(err)
	})
	return nil
}

// Find schedules a select; the callback receives a lazy entity iterator.
func (a *TemplateAsync[T]) Find(ctx context.Context, q query.Query, cb manager.Callback[*Iterator[T]]) error {
	if err := a.tmpl.checkCollection(q.Collection); err != nil {
		return err
	}
	finish := a.tmpl.observe(ctx, OpSelect, time.Now())
	a.wg.Add(1)
	a.async.Select(ctx, q, func(stream document.Stream, err error) {
		defer a.wg.Done()
		var it *Iterator[T]
		if err != nil {
			err = a.tmpl.delegateErr("select", err)
		} else {
			it = a.tmpl.newIterator(ctx, stream)
		}
		finish(&err)
		deliver(a, OpSelect, cb, it, err)
	})
	return nil
}

// SingleResult schedules a single-result lookup with Template.SingleResult
// semantics.
func (a *TemplateAsync[T]) SingleResult(ctx context.Context, q query.Query, cb manager.Callback[*T]) error {
	if err := a.tmpl.checkCollection(q.Collection); err != nil {
		return err
	}
	// Two rows are enough to detect ambiguity.
	q.Offset = 0
	q.Limit = 2
	finish := a.tmpl.observe(ctx, OpSelect, time.Now())
	a.wg.Add(1)
	a.async.Select(ctx, q, func(stream document.Stream, err error) {
		defer a.wg.Done()
		var out *T
		if err != nil {
			err = a.tmpl.delegateErr("select", err)
		} else {
			var matches []*T
			matches, err = a.tmpl.newIterator(ctx, stream).All()
			switch {
			case err != nil:
			case len(matches) == 1:
				out = matches[0]
			case len(matches) > 1:
				err = fmt.Errorf("%w: query on %q matched more than one document", ErrNonUniqueResult, q.Collection)
			}
		}
		finish(&err)
		deliver(a, OpSelect, cb, out, err)
	})
	return nil
}

// Count schedules a count of the documents matching the descriptor.
func (a *TemplateAsync[T]) Count(ctx context.Context, q query.Query, cb manager.Callback[int64]) error {
	if err := a.tmpl.checkCollection(q.Collection); err != nil {
		return err
	}
	finish := a.tmpl.observe(ctx, OpCount, time.Now())
	a.wg.Add(1)
	a.async.Count(ctx, q, func(n int64, err error) {
		defer a.wg.Done()
		if err != nil {
			err = a.tmpl.delegateErr("count", err)
		}
		finish(&err)
		deliver(a, OpCount, cb, n, err)
	})
	return nil
}

// Wait blocks until every operation scheduled so far has completed. Intended
// for orderly shutdown and tests.
func (a *TemplateAsync[T]) Wait() {
	a.wg.Wait()
}

func deliver[T, R any](a *TemplateAsync[T], op OperationKind, cb manager.Callback[R], result R, err error) {
	if cb == nil {
		if err != nil {
			a.logger.Error("async operation failed without callback",
				"operation", string(op), "error", err)
		}
		return
	}
	cb(result, err)
}
