// Package template provides the high-level entity API over collection
// managers. A Template binds one entity type to one manager and runs every
// operation through the same pipeline: convert, pre hook, delegate, post
// hook, convert back.
package template

import (
	"context"
	"fmt"
	"time"

	"github.com/nimburion/docmap/pkg/convert"
	"github.com/nimburion/docmap/pkg/document"
	"github.com/nimburion/docmap/pkg/manager"
	"github.com/nimburion/docmap/pkg/metadata"
	"github.com/nimburion/docmap/pkg/observability/logger"
	"github.com/nimburion/docmap/pkg/observability/metrics"
	"github.com/nimburion/docmap/pkg/observability/tracing"
	"github.com/nimburion/docmap/pkg/query"
)

// Options configures a Template.
type Options struct {
	// Resolver supplies entity metadata. Defaults to a fresh reflection
	// resolver; share one across templates to share the metadata cache.
	Resolver metadata.Resolver
	Logger   logger.Logger
	Hooks    Hooks
}

// Template is the synchronous entity-level API for one entity type T.
type Template[T any] struct {
	manager    manager.Manager
	converter  *convert.Converter[T]
	collection string
	hooks      Hooks
	logger     logger.Logger
}

// New creates a template for T backed by the given manager.
func New[T any](m manager.Manager, opts Options) (*Template[T], error) {
	if m == nil {
		return nil, fmt.Errorf("%w: manager is required", ErrValidation)
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = metadata.NewReflectResolver()
	}
	converter, err := convert.New[T](resolver)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Template[T]{
		manager:    m,
		converter:  converter,
		collection: converter.Collection(),
		hooks:      opts.Hooks,
		logger:     log.With("collection", converter.Collection()),
	}, nil
}

// Collection returns the collection name T maps to.
func (t *Template[T]) Collection() string {
	return t.collection
}

// Converter returns the template's entity converter.
func (t *Template[T]) Converter() *convert.Converter[T] {
	return t.converter
}

// Insert stores a new entity and returns it as reconstituted from the stored
// document, including any store-assigned fields.
func (t *Template[T]) Insert(ctx context.Context, entity *T) (out *T, err error) {
	defer t.observe(ctx, OpInsert, time.Now())(&err)
	doc, err := t.prepareWrite(ctx, OpInsert, entity)
	if err != nil {
		return nil, err
	}
	return t.completeInsert(ctx, doc, 0)
}

// InsertWithTTL stores a new entity that expires after ttl. The ttl must be
// positive.
func (t *Template[T]) InsertWithTTL(ctx context.Context, entity *T, ttl time.Duration) (out *T, err error) {
	defer t.observe(ctx, OpInsert, time.Now())(&err)
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: ttl must be positive, got %v", ErrValidation, ttl)
	}
	doc, err := t.prepareWrite(ctx, OpInsert, entity)
	if err != nil {
		return nil, err
	}
	return t.completeInsert(ctx, doc, ttl)
}

// InsertAll stores the entities one by one, in order, stopping at the first
// failure. It returns the entities inserted so far along with the error.
func (t *Template[T]) InsertAll(ctx context.Context, entities []*T) ([]*T, error) {
	out := make([]*T, 0, len(entities))
	for i, entity := range entities {
		inserted, err := t.Insert(ctx, entity)
		if err != nil {
			return out, fmt.Errorf("entity %d: %w", i, err)
		}
		out = append(out, inserted)
	}
	return out, nil
}

// Update replaces the stored document for the entity, matched by its
// identity field. The entity must already exist.
func (t *Template[T]) Update(ctx context.Context, entity *T) (out *T, err error) {
	defer t.observe(ctx, OpUpdate, time.Now())(&err)
	doc, err := t.prepareWrite(ctx, OpUpdate, entity)
	if err != nil {
		return nil, err
	}
	return t.completeUpdate(ctx, doc)
}

// UpdateAll updates the entities one by one, in order, stopping at the first
// failure. It returns the entities updated so far along with the error.
func (t *Template[T]) UpdateAll(ctx context.Context, entities []*T) ([]*T, error) {
	out := make([]*T, 0, len(entities))
	for i, entity := range entities {
		updated, err := t.Update(ctx, entity)
		if err != nil {
			return out, fmt.Errorf("entity %d: %w", i, err)
		}
		out = append(out, updated)
	}
	return out, nil
}

// Delete removes every document matching the descriptor.
func (t *Template[T]) Delete(ctx context.Context, q query.DeleteQuery) (err error) {
	defer t.observe(ctx, OpDelete, time.Now())(&err)
	if err := t.checkCollection(q.Collection); err != nil {
		return err
	}
	if err := t.manager.Delete(ctx, q); err != nil {
		return t.delegateErr("delete", err)
	}
	return nil
}

// Find returns a lazy iterator over the entities matching the descriptor.
func (t *Template[T]) Find(ctx context.Context, q query.Query) (it *Iterator[T], err error) {
	defer t.observe(ctx, OpSelect, time.Now())(&err)
	if err := t.checkCollection(q.Collection); err != nil {
		return nil, err
	}
	stream, err := t.manager.Select(ctx, q)
	if err != nil {
		return nil, t.delegateErr("select", err)
	}
	return t.newIterator(ctx, stream), nil
}

// newIterator wraps a document stream in a lazy entity iterator, routing each
// document through the post hook before conversion.
func (t *Template[T]) newIterator(ctx context.Context, stream document.Stream) *Iterator[T] {
	var post func(ctx context.Context, doc document.Document) (document.Document, error)
	if t.hooks.PostDocument != nil {
		post = func(ctx context.Context, doc document.Document) (document.Document, error) {
			doc, err := t.hooks.post(ctx, OpSelect, doc)
			if err != nil {
				return document.Document{}, t.delegateErr("select", err)
			}
			return doc, nil
		}
	}
	return &Iterator[T]{ctx: ctx, stream: stream, converter: t.converter, post: post}
}

// SingleResult runs the query expecting at most one match. No match returns
// (nil, nil); more than one match returns ErrNonUniqueResult.
func (t *Template[T]) SingleResult(ctx context.Context, q query.Query) (*T, error) {
	// Two rows are enough to detect ambiguity.
	q.Offset = 0
	q.Limit = 2
	it, err := t.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	matches, err := it.All()
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: query on %q matched more than one document", ErrNonUniqueResult, q.Collection)
	}
}

// Count returns the number of documents matching the descriptor's predicate.
func (t *Template[T]) Count(ctx context.Context, q query.Query) (n int64, err error) {
	defer t.observe(ctx, OpCount, time.Now())(&err)
	if err := t.checkCollection(q.Collection); err != nil {
		return 0, err
	}
	n, err = t.manager.Count(ctx, q)
	if err != nil {
		return 0, t.delegateErr("count", err)
	}
	return n, nil
}

// prepareWrite runs the pipeline stages that precede the delegate call:
// entity conversion and the pre hook. Hook failures carry the delegate error
// kind, same as manager failures.
func (t *Template[T]) prepareWrite(ctx context.Context, op OperationKind, entity *T) (document.Document, error) {
	if entity == nil {
		return document.Document{}, fmt.Errorf("%w: nil entity", ErrValidation)
	}
	doc, err := t.converter.ToDocument(entity)
	if err != nil {
		return document.Document{}, err
	}
	doc, err = t.hooks.pre(ctx, op, doc)
	if err != nil {
		return document.Document{}, t.delegateErr(string(op), err)
	}
	return doc, nil
}

func (t *Template[T]) completeInsert(ctx context.Context, doc document.Document, ttl time.Duration) (*T, error) {
	stored, err := t.manager.Insert(ctx, doc, ttl)
	if err != nil {
		return nil, t.delegateErr("insert", err)
	}
	return t.finishRead(ctx, OpInsert, stored)
}

func (t *Template[T]) completeUpdate(ctx context.Context, doc document.Document) (*T, error) {
	stored, err := t.manager.Update(ctx, doc)
	if err != nil {
		return nil, t.delegateErr("update", err)
	}
	return t.finishRead(ctx, OpUpdate, stored)
}

func (t *Template[T]) finishRead(ctx context.Context, op OperationKind, doc document.Document) (*T, error) {
	doc, err := t.hooks.post(ctx, op, doc)
	if err != nil {
		return nil, t.delegateErr(string(op), err)
	}
	return t.converter.ToEntity(doc)
}

func (t *Template[T]) checkCollection(collection string) error {
	if collection == "" {
		return fmt.Errorf("%w: query has no collection", ErrValidation)
	}
	if collection != t.collection {
		return fmt.Errorf("%w: query targets %q, template is bound to %q",
			ErrValidation, collection, t.collection)
	}
	return nil
}

func (t *Template[T]) delegateErr(op string, cause error) error {
	return &DelegateError{Operation: op, Collection: t.collection, Cause: cause}
}

func (t *Template[T]) observe(ctx context.Context, op OperationKind, start time.Time) func(*error) {
	metrics.IncrementInFlight()
	_, span := tracing.StartOperationSpan(ctx, string(op), t.collection)
	return func(err *error) {
		metrics.DecrementInFlight()
		elapsed := time.Since(start)
		metrics.RecordOperation(string(op), t.collection, *err, elapsed)
		if *err != nil {
			tracing.RecordError(span, *err)
		} else {
			tracing.RecordSuccess(span)
		}
		span.End()
		if *err != nil {
			t.logger.Debug("operation failed", "operation", string(op), "duration", elapsed, "error", *err)
			return
		}
		t.logger.Debug("operation completed", "operation", string(op), "duration", elapsed)
	}
}
