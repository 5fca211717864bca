package mapper

import (
	"reflect"

	"github.com/nimburion/docmap/pkg/metadata"
	"github.com/nimburion/docmap/pkg/query"
)

// DeleteBuilder constructs DeleteQuery descriptors for entity type T. Like
// the plain delete builder it exposes no ordering or pagination.
type DeleteBuilder[T any] struct {
	qb   *query.DeleteBuilder
	meta *metadata.EntityMeta
	err  error
}

// DeleteFrom starts a delete-query builder seeded with T's collection name.
func DeleteFrom[T any](resolver metadata.Resolver) *DeleteBuilder[T] {
	meta, err := resolver.Resolve(reflect.TypeFor[T]())
	if err != nil {
		return &DeleteBuilder[T]{err: err}
	}
	return &DeleteBuilder[T]{qb: query.DeleteFrom(meta.Collection), meta: meta}
}

// Where starts the first condition, on a logical field name.
func (b *DeleteBuilder[T]) Where(logical string) *DeleteWhere[T] {
	return b.where(logical, false)
}

// And starts a condition that must hold in addition to the previous ones.
func (b *DeleteBuilder[T]) And(logical string) *DeleteWhere[T] {
	return b.where(logical, false)
}

// Or starts a condition combined disjunctively with the tree built so far.
func (b *DeleteBuilder[T]) Or(logical string) *DeleteWhere[T] {
	return b.where(logical, true)
}

func (b *DeleteBuilder[T]) where(logical string, or bool) *DeleteWhere[T] {
	w := &DeleteWhere[T]{b: b}
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

// Build returns the immutable descriptor, translated to native field names.
func (b *DeleteBuilder[T]) Build() (query.DeleteQuery, error) {
	if b.err != nil {
		return query.DeleteQuery{}, b.err
	}
	return b.qb.Build()
}

// DeleteWhere exposes the comparators for one logical field of a delete
// builder, with the same identity-field coercion as the select side.
type DeleteWhere[T any] struct {
	b     *DeleteBuilder[T]
	inner *query.Where[*query.DeleteBuilder]
	field *metadata.FieldMeta
}

// Not negates the comparator that follows.
func (w *DeleteWhere[T]) Not() *DeleteWhere[T] {
	if w.inner != nil {
		w.inner.Not()
	}
	return w
}

// Eq matches values equal to v.
func (w *DeleteWhere[T]) Eq(v any) *DeleteBuilder[T] {
	return w.leaf(func() { w.inner.Eq(w.coerce(v)) })
}

// Gt matches values strictly greater than v.
func (w *DeleteWhere[T]) Gt(v any) *DeleteBuilder[T] {
	return w.leaf(func() { w.inner.Gt(w.coerce(v)) })
}

// Gte matches values greater than or equal to v.
func (w *DeleteWhere[T]) Gte(v any) *DeleteBuilder[T] {
	return w.leaf(func() { w.inner.Gte(w.coerce(v)) })
}

// Lt matches values strictly lesser than v.
func (w *DeleteWhere[T]) Lt(v any) *DeleteBuilder[T] {
	return w.leaf(func() { w.inner.Lt(w.coerce(v)) })
}

// Lte matches values lesser than or equal to v.
func (w *DeleteWhere[T]) Lte(v any) *DeleteBuilder[T] {
	return w.leaf(func() { w.inner.Lte(w.coerce(v)) })
}

// Like matches text against a pattern where % matches any run of characters.
func (w *DeleteWhere[T]) Like(pattern string) *DeleteBuilder[T] {
	return w.leaf(func() { w.inner.Like(pattern) })
}

// In matches values equal to any element of a non-empty value sequence.
func (w *DeleteWhere[T]) In(values ...any) *DeleteBuilder[T] {
	return w.leaf(func() { w.inner.In(w.coerceAll(values)...) })
}

// Between matches values within the closed interval [lo, hi].
func (w *DeleteWhere[T]) Between(lo, hi any) *DeleteBuilder[T] {
	return w.leaf(func() { w.inner.Between(w.coerce(lo), w.coerce(hi)) })
}

func (w *DeleteWhere[T]) leaf(apply func()) *DeleteBuilder[T] {
	if w.inner == nil {
		return w.b
	}
	apply()
	return w.b
}

func (w *DeleteWhere[T]) coerce(v any) any {
	return coerceID(w.field, v, &w.b.err)
}

func (w *DeleteWhere[T]) coerceAll(values []any) []any {
	return coerceIDAll(w.field, values, &w.b.err)
}
