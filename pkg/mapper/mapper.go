// Package mapper composes the fluent query builders with entity metadata:
// builders seeded from a type accept logical field names and produce
// descriptors already translated to native storage names. This is the one
// place domain vocabulary and storage vocabulary meet; everything downstream
// of Build only ever sees native names.
package mapper

import (
	"fmt"
	"reflect"

	"github.com/nimburion/docmap/pkg/metadata"
	"github.com/nimburion/docmap/pkg/query"
)

// Builder constructs Query descriptors for entity type T, resolving logical
// field names through the type's metadata.
type Builder[T any] struct {
	qb   *query.Builder
	meta *metadata.EntityMeta
	err  error
}

// SelectFrom starts a query builder seeded with T's collection name.
func SelectFrom[T any](resolver metadata.Resolver) *Builder[T] {
	meta, err := resolver.Resolve(reflect.TypeFor[T]())
	if err != nil {
		return &Builder[T]{err: err}
	}
	return &Builder[T]{qb: query.From(meta.Collection), meta: meta}
}

// Where starts the first condition, on a logical field name.
func (b *Builder[T]) Where(logical string) *Where[T] {
	return b.where(logical, false)
}

// And starts a condition that must hold in addition to the previous ones.
func (b *Builder[T]) And(logical string) *Where[T] {
	return b.where(logical, false)
}

// Or starts a condition combined disjunctively with the tree built so far.
func (b *Builder[T]) Or(logical string) *Where[T] {
	return b.where(logical, true)
}

func (b *Builder[T]) where(logical string, or bool) *Where[T] {
	w := &Where[T]{b: b}
	if b.err != nil {
		return w
	}
	f, err := b.meta.Field(logical)
	if err != nil {
		b.err = err
		return w
	}
	w.field = f
	if or {
		w.inner = b.qb.Or(f.Native)
	} else {
		w.inner = b.qb.And(f.Native)
	}
	return w
}

// OrderBy appends a sort key, given as a logical field name.
func (b *Builder[T]) OrderBy(logical string, direction query.SortDirection) *Builder[T] {
	if b.err != nil {
		return b
	}
	f, err := b.meta.Field(logical)
	if err != nil {
		b.err = err
		return b
	}
	b.qb.OrderBy(f.Native, direction)
	return b
}

// Skip sets the number of matching documents to skip.
func (b *Builder[T]) Skip(n int64) *Builder[T] {
	if b.err == nil {
		b.qb.Skip(n)
	}
	return b
}

// Limit caps the number of returned documents.
func (b *Builder[T]) Limit(n int64) *Builder[T] {
	if b.err == nil {
		b.qb.Limit(n)
	}
	return b
}

// Build returns the immutable descriptor, translated to native field names.
func (b *Builder[T]) Build() (query.Query, error) {
	if b.err != nil {
		return query.Query{}, b.err
	}
	return b.qb.Build()
}

// Where exposes the comparators for one logical field of a select builder.
// Comparisons on the identity field coerce the supplied value to the declared
// id type; non-coercible values fail the build with a validation error.
type Where[T any] struct {
	b     *Builder[T]
	inner *query.Where[*query.Builder]
	field *metadata.FieldMeta
}

// Not negates the comparator that follows.
func (w *Where[T]) Not() *Where[T] {
	if w.inner != nil {
		w.inner.Not()
	}
	return w
}

// Eq matches values equal to v.
func (w *Where[T]) Eq(v any) *Builder[T] { return w.leaf(func() { w.inner.Eq(w.coerce(v)) }) }

// Gt matches values strictly greater than v.
func (w *Where[T]) Gt(v any) *Builder[T] { return w.leaf(func() { w.inner.Gt(w.coerce(v)) }) }

// Gte matches values greater than or equal to v.
func (w *Where[T]) Gte(v any) *Builder[T] { return w.leaf(func() { w.inner.Gte(w.coerce(v)) }) }

// Lt matches values strictly lesser than v.
func (w *Where[T]) Lt(v any) *Builder[T] { return w.leaf(func() { w.inner.Lt(w.coerce(v)) }) }

// Lte matches values lesser than or equal to v.
func (w *Where[T]) Lte(v any) *Builder[T] { return w.leaf(func() { w.inner.Lte(w.coerce(v)) }) }

// Like matches text against a pattern where % matches any run of characters.
func (w *Where[T]) Like(pattern string) *Builder[T] {
	return w.leaf(func() { w.inner.Like(pattern) })
}

// In matches values equal to any element of a non-empty value sequence.
func (w *Where[T]) In(values ...any) *Builder[T] {
	return w.leaf(func() { w.inner.In(w.coerceAll(values)...) })
}

// Between matches values within the closed interval [lo, hi].
func (w *Where[T]) Between(lo, hi any) *Builder[T] {
	return w.leaf(func() { w.inner.Between(w.coerce(lo), w.coerce(hi)) })
}

func (w *Where[T]) leaf(apply func()) *Builder[T] {
	if w.inner == nil {
		return w.b
	}
	apply()
	return w.b
}

func (w *Where[T]) coerce(v any) any {
	return coerceID(w.field, v, &w.b.err)
}

func (w *Where[T]) coerceAll(values []any) []any {
	return coerceIDAll(w.field, values, &w.b.err)
}

// coerceID normalizes identity-field comparison values to the declared id
// type. Non-id fields pass through untouched.
func coerceID(field *metadata.FieldMeta, v any, errSink *error) any {
	if field == nil || !field.IsID {
		return v
	}
	coerced, err := metadata.Coerce(field, v)
	if err != nil {
		if *errSink == nil {
			*errSink = fmt.Errorf("%w: %v", query.ErrValidation, err)
		}
		return v
	}
	return coerced
}

func coerceIDAll(field *metadata.FieldMeta, values []any, errSink *error) []any {
	if field == nil || !field.IsID {
		return values
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = coerceID(field, v, errSink)
	}
	return out
}
