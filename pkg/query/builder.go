package query

import "fmt"

// core holds the builder state shared between the select and delete builders.
type core struct {
	collection string
	root       *Condition
	err        error
}

func (c *core) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// attach adds a leaf condition to the predicate tree. mode is OpAnd or OpOr;
// conditions combine left-associatively, so a.And(b).Or(c) reads (a AND b) OR c.
func (c *core) attach(mode Operator, cond Condition) {
	if c.root == nil {
		c.root = &cond
		return
	}
	if c.root.Operator == mode {
		c.root.Children = append(c.root.Children, cond)
		return
	}
	combined := Condition{Operator: mode, Children: []Condition{*c.root, cond}}
	c.root = &combined
}

func (c *core) buildCondition() (*Condition, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", ErrIncompleteQuery)
	}
	if c.root == nil {
		return nil, nil
	}
	cloned := c.root.clone()
	return &cloned, nil
}

// Where starts a condition on a field and exposes the comparators. The type
// parameter keeps the fluent chain typed to the owning builder.
type Where[B any] struct {
	owner  B
	core   *core
	mode   Operator
	field  string
	negate bool
}

// Not negates the comparator that follows.
func (w *Where[B]) Not() *Where[B] {
	w.negate = !w.negate
	return w
}

// Eq matches values equal to v.
func (w *Where[B]) Eq(v any) B { return w.leaf(OpEqual, v) }

// Gt matches values strictly greater than v.
func (w *Where[B]) Gt(v any) B { return w.leaf(OpGreater, v) }

// Gte matches values greater than or equal to v.
func (w *Where[B]) Gte(v any) B { return w.leaf(OpGreaterEq, v) }

// Lt matches values strictly lesser than v.
func (w *Where[B]) Lt(v any) B { return w.leaf(OpLesser, v) }

// Lte matches values lesser than or equal to v.
func (w *Where[B]) Lte(v any) B { return w.leaf(OpLesserEq, v) }

// Like matches text against a pattern where % matches any run of characters.
func (w *Where[B]) Like(pattern string) B { return w.leaf(OpLike, pattern) }

// In matches values equal to any element of a non-empty value sequence.
func (w *Where[B]) In(values ...any) B {
	if len(values) == 0 {
		w.core.fail(fmt.Errorf("%w: in requires at least one value", ErrValidation))
	}
	return w.leaf(OpIn, append([]any(nil), values...))
}

// Between matches values within the closed interval [lo, hi]. Exactly two
// bound values are required; nil bounds are rejected.
func (w *Where[B]) Between(lo, hi any) B {
	if lo == nil || hi == nil {
		w.core.fail(fmt.Errorf("%w: between requires exactly two bound values", ErrValidation))
	}
	return w.leaf(OpBetween, []any{lo, hi})
}

func (w *Where[B]) leaf(op Operator, value any) B {
	if w.field == "" {
		w.core.fail(fmt.Errorf("%w: field name is required", ErrValidation))
	}
	cond := Condition{Operator: op, Field: w.field, Value: value}
	if w.negate {
		cond = Condition{Operator: OpNot, Children: []Condition{cond}}
	}
	if w.core.err == nil {
		w.core.attach(w.mode, cond)
	}
	return w.owner
}

// Builder constructs Query descriptors fluently.
type Builder struct {
	core   core
	sorts  []Sort
	offset int64
	limit  int64
}

// From starts a query builder for the given collection.
func From(collection string) *Builder {
	b := &Builder{}
	b.core.collection = collection
	return b
}

// Where starts the first condition of the predicate tree.
func (b *Builder) Where(field string) *Where[*Builder] {
	return &Where[*Builder]{owner: b, core: &b.core, mode: OpAnd, field: field}
}

// And starts a condition that must hold in addition to the previous ones.
func (b *Builder) And(field string) *Where[*Builder] {
	return &Where[*Builder]{owner: b, core: &b.core, mode: OpAnd, field: field}
}

// Or starts a condition combined disjunctively with the tree built so far.
func (b *Builder) Or(field string) *Where[*Builder] {
	return &Where[*Builder]{owner: b, core: &b.core, mode: OpOr, field: field}
}

// OrderBy appends a sort key.
func (b *Builder) OrderBy(field string, direction SortDirection) *Builder {
	if field == "" {
		b.core.fail(fmt.Errorf("%w: sort field name is required", ErrValidation))
		return b
	}
	if direction != SortAsc && direction != SortDesc {
		b.core.fail(fmt.Errorf("%w: invalid sort direction %q", ErrValidation, direction))
		return b
	}
	b.sorts = append(b.sorts, Sort{Field: field, Direction: direction})
	return b
}

// Skip sets the number of matching documents to skip.
func (b *Builder) Skip(n int64) *Builder {
	if n < 0 {
		b.core.fail(fmt.Errorf("%w: skip must not be negative", ErrValidation))
		return b
	}
	b.offset = n
	return b
}

// Limit caps the number of returned documents.
func (b *Builder) Limit(n int64) *Builder {
	if n < 0 {
		b.core.fail(fmt.Errorf("%w: limit must not be negative", ErrValidation))
		return b
	}
	b.limit = n
	return b
}

// Build returns the immutable descriptor for the current builder state. The
// builder stays usable; descriptors built earlier are never affected by
// later mutation.
func (b *Builder) Build() (Query, error) {
	cond, err := b.core.buildCondition()
	if err != nil {
		return Query{}, err
	}
	q := Query{
		Collection: b.core.collection,
		Condition:  cond,
		Offset:     b.offset,
		Limit:      b.limit,
	}
	if b.sorts != nil {
		q.Sorts = append([]Sort(nil), b.sorts...)
	}
	return q, nil
}

// DeleteBuilder constructs DeleteQuery descriptors fluently. It deliberately
// exposes no ordering or pagination: deletion has no result window.
type DeleteBuilder struct {
	core core
}

// DeleteFrom starts a delete-query builder for the given collection.
func DeleteFrom(collection string) *DeleteBuilder {
	b := &DeleteBuilder{}
	b.core.collection = collection
	return b
}

// Where starts the first condition of the predicate tree.
func (b *DeleteBuilder) Where(field string) *Where[*DeleteBuilder] {
	return &Where[*DeleteBuilder]{owner: b, core: &b.core, mode: OpAnd, field: field}
}

// And starts a condition that must hold in addition to the previous ones.
func (b *DeleteBuilder) And(field string) *Where[*DeleteBuilder] {
	return &Where[*DeleteBuilder]{owner: b, core: &b.core, mode: OpAnd, field: field}
}

// Or starts a condition combined disjunctively with the tree built so far.
func (b *DeleteBuilder) Or(field string) *Where[*DeleteBuilder] {
	return &Where[*DeleteBuilder]{owner: b, core: &b.core, mode: OpOr, field: field}
}

// Build returns the immutable descriptor for the current builder state.
func (b *DeleteBuilder) Build() (DeleteQuery, error) {
	cond, err := b.core.buildCondition()
	if err != nil {
		return DeleteQuery{}, err
	}
	return DeleteQuery{Collection: b.core.collection, Condition: cond}, nil
}
