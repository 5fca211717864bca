package query

import (
	"errors"
	"reflect"
	"testing"
)

func TestBuilder_Build(t *testing.T) {
	q, err := From("people").
		Where("age").Gte(18).
		And("name").Like("Ada%").
		OrderBy("name", SortAsc).
		Skip(10).
		Limit(5).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if q.Collection != "people" {
		t.Errorf("Collection = %q, want people", q.Collection)
	}
	if q.Condition == nil || q.Condition.Operator != OpAnd {
		t.Fatalf("Condition = %+v, want AND root", q.Condition)
	}
	if len(q.Condition.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(q.Condition.Children))
	}
	if got := q.Condition.Children[0]; got.Operator != OpGreaterEq || got.Field != "age" || got.Value != 18 {
		t.Errorf("first child = %+v", got)
	}
	if got := q.Condition.Children[1]; got.Operator != OpLike || got.Value != "Ada%" {
		t.Errorf("second child = %+v", got)
	}
	if len(q.Sorts) != 1 || q.Sorts[0] != (Sort{Field: "name", Direction: SortAsc}) {
		t.Errorf("Sorts = %+v", q.Sorts)
	}
	if q.Offset != 10 || q.Limit != 5 {
		t.Errorf("Offset, Limit = %d, %d, want 10, 5", q.Offset, q.Limit)
	}
}

func TestBuilder_NoConditionMatchesAll(t *testing.T) {
	q, err := From("people").Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if q.Condition != nil {
		t.Fatalf("Condition = %+v, want nil", q.Condition)
	}
}

func TestBuilder_MissingCollection(t *testing.T) {
	_, err := From("").Where("age").Eq(1).Build()
	if !errors.Is(err, ErrIncompleteQuery) {
		t.Fatalf("Build() error = %v, want ErrIncompleteQuery", err)
	}
}

func TestBuilder_OrCombination(t *testing.T) {
	q, err := From("people").
		Where("age").Lt(18).
		Or("age").Gt(65).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if q.Condition.Operator != OpOr || len(q.Condition.Children) != 2 {
		t.Fatalf("Condition = %+v, want OR with two children", q.Condition)
	}
}

func TestBuilder_Not(t *testing.T) {
	q, err := From("people").Where("age").Not().Eq(30).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if q.Condition.Operator != OpNot || len(q.Condition.Children) != 1 {
		t.Fatalf("Condition = %+v, want NOT with one child", q.Condition)
	}
	if inner := q.Condition.Children[0]; inner.Operator != OpEqual || inner.Value != 30 {
		t.Fatalf("inner = %+v", inner)
	}
}

func TestBuilder_BetweenValidation(t *testing.T) {
	if _, err := From("people").Where("age").Between(10, 20).Build(); err != nil {
		t.Fatalf("Between(10, 20) error = %v", err)
	}

	_, err := From("people").Where("age").Between(10, nil).Build()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Between(10, nil) error = %v, want ErrValidation", err)
	}
}

func TestBuilder_InValidation(t *testing.T) {
	q, err := From("people").Where("age").In(10, 20, 30).Build()
	if err != nil {
		t.Fatalf("In(10, 20, 30) error = %v", err)
	}
	vals, ok := q.Condition.Value.([]any)
	if !ok || len(vals) != 3 {
		t.Fatalf("Value = %v", q.Condition.Value)
	}

	if _, err := From("people").Where("age").In().Build(); !errors.Is(err, ErrValidation) {
		t.Fatalf("In() error = %v, want ErrValidation", err)
	}
}

func TestBuilder_EmptyFieldName(t *testing.T) {
	if _, err := From("people").Where("").Eq(1).Build(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Where(\"\") error = %v, want ErrValidation", err)
	}
}

func TestBuilder_PaginationValidation(t *testing.T) {
	if _, err := From("people").Skip(-1).Build(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Skip(-1) error = %v, want ErrValidation", err)
	}
	if _, err := From("people").Limit(-1).Build(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Limit(-1) error = %v, want ErrValidation", err)
	}
	if _, err := From("people").OrderBy("age", SortDirection("sideways")).Build(); !errors.Is(err, ErrValidation) {
		t.Fatalf("OrderBy(sideways) error = %v, want ErrValidation", err)
	}
}

func TestBuilder_RepeatedBuildEqual(t *testing.T) {
	b := From("people").Where("age").Gte(10)

	q1, err := b.Build()
	if err != nil {
		t.Fatalf("first Build() error = %v", err)
	}
	q2, err := b.Build()
	if err != nil {
		t.Fatalf("second Build() error = %v", err)
	}
	if !reflect.DeepEqual(q1, q2) {
		t.Fatalf("repeated builds differ: %+v vs %+v", q1, q2)
	}
}

func TestBuilder_BuiltDescriptorImmutable(t *testing.T) {
	b := From("people").Where("age").Gte(10)

	q1, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// Mutate the builder after the fact.
	b.And("name").Eq("Ada").OrderBy("name", SortDesc).Limit(3)

	if q1.Condition.Operator != OpGreaterEq {
		t.Fatalf("built descriptor mutated: %+v", q1.Condition)
	}
	if len(q1.Sorts) != 0 || q1.Limit != 0 {
		t.Fatalf("built descriptor mutated: %+v", q1)
	}

	q2, err := b.Build()
	if err != nil {
		t.Fatalf("second Build() error = %v", err)
	}
	if q2.Condition.Operator != OpAnd || len(q2.Condition.Children) != 2 {
		t.Fatalf("second descriptor = %+v", q2.Condition)
	}
}

func TestDeleteBuilder_Build(t *testing.T) {
	dq, err := DeleteFrom("people").Where("age").Lt(18).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if dq.Collection != "people" {
		t.Errorf("Collection = %q", dq.Collection)
	}
	if dq.Condition == nil || dq.Condition.Operator != OpLesser {
		t.Errorf("Condition = %+v", dq.Condition)
	}
}

func TestDeleteBuilder_MissingCollection(t *testing.T) {
	if _, err := DeleteFrom("").Build(); !errors.Is(err, ErrIncompleteQuery) {
		t.Fatalf("Build() error = %v, want ErrIncompleteQuery", err)
	}
}

func TestDeleteBuilder_Combinators(t *testing.T) {
	dq, err := DeleteFrom("people").
		Where("status").Eq("inactive").
		And("age").Gt(90).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if dq.Condition.Operator != OpAnd || len(dq.Condition.Children) != 2 {
		t.Fatalf("Condition = %+v", dq.Condition)
	}
}
