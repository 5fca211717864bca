// Package query provides store-agnostic descriptors for read and delete
// requests, plus fluent builders to construct them. Descriptors are built
// immutably: once Build returns, later builder mutation never affects the
// returned descriptor.
package query

import "errors"

var (
	// ErrValidation classifies malformed builder input: empty field names,
	// malformed comparator arguments, bad pagination values.
	ErrValidation = errors.New("query validation error")
	// ErrIncompleteQuery classifies descriptors built without the required
	// collection name.
	ErrIncompleteQuery = errors.New("incomplete query")
)

// Operator identifies a predicate node.
type Operator string

// Comparator and combinator operators
const (
	// OpEqual matches values equal to the operand
	OpEqual Operator = "eq"
	// OpGreater matches values strictly greater than the operand
	OpGreater Operator = "gt"
	// OpGreaterEq matches values greater than or equal to the operand
	OpGreaterEq Operator = "gte"
	// OpLesser matches values strictly lesser than the operand
	OpLesser Operator = "lt"
	// OpLesserEq matches values lesser than or equal to the operand
	OpLesserEq Operator = "lte"
	// OpLike matches text against a pattern with % wildcards
	OpLike Operator = "like"
	// OpIn matches values equal to any operand in a non-empty sequence
	OpIn Operator = "in"
	// OpBetween matches values within a closed two-value interval
	OpBetween Operator = "between"
	// OpNot negates its single child
	OpNot Operator = "not"
	// OpAnd requires all children to match
	OpAnd Operator = "and"
	// OpOr requires at least one child to match
	OpOr Operator = "or"
)

// Condition is one node of a predicate tree. Leaf nodes carry Field, a
// comparator Operator and Value ([]any for OpIn and OpBetween); combinator
// nodes carry Children only.
type Condition struct {
	Operator Operator
	Field    string
	Value    any
	Children []Condition
}

func (c Condition) clone() Condition {
	out := Condition{Operator: c.Operator, Field: c.Field, Value: cloneConditionValue(c.Value)}
	if c.Children != nil {
		out.Children = make([]Condition, len(c.Children))
		for i, ch := range c.Children {
			out.Children[i] = ch.clone()
		}
	}
	return out
}

func cloneConditionValue(v any) any {
	if vs, ok := v.([]any); ok {
		out := make([]any, len(vs))
		copy(out, vs)
		return out
	}
	return v
}

// SortDirection defines the direction of sorting.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort specifies field and direction for ordering results.
type Sort struct {
	Field     string
	Direction SortDirection
}

// Query is the immutable descriptor of a read request: collection name,
// optional predicate tree, ordering and pagination window.
type Query struct {
	Collection string
	// Condition is nil when the query matches every document.
	Condition *Condition
	Sorts     []Sort
	// Offset is the number of matching documents to skip.
	Offset int64
	// Limit caps the number of returned documents; zero means no cap.
	Limit int64
}

// DeleteQuery is the immutable descriptor of a delete request. Deletion has
// no notion of result ordering or windowing, so there is nothing beyond the
// collection and the predicate tree.
type DeleteQuery struct {
	Collection string
	Condition  *Condition
}
