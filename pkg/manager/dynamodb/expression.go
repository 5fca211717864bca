package dynamodb

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/nimburion/docmap/pkg/query"
)

// filterExpression is a compiled DynamoDB filter: the expression string plus
// the attribute name and value substitution maps it references.
type filterExpression struct {
	expr   string
	names  map[string]string
	values map[string]types.AttributeValue
}

func (f *filterExpression) empty() bool {
	return f.expr == ""
}

type expressionBuilder struct {
	names  map[string]string
	values map[string]types.AttributeValue
}

// compileFilter translates a predicate tree into a DynamoDB filter
// expression. A nil condition compiles to the empty filter.
func compileFilter(c *query.Condition) (filterExpression, error) {
	if c == nil {
		return filterExpression{}, nil
	}
	b := &expressionBuilder{
		names:  make(map[string]string),
		values: make(map[string]types.AttributeValue),
	}
	expr, err := b.compile(*c)
	if err != nil {
		return filterExpression{}, err
	}
	return filterExpression{expr: expr, names: b.names, values: b.values}, nil
}

func (b *expressionBuilder) compile(c query.Condition) (string, error) {
	switch c.Operator {
	case query.OpAnd, query.OpOr:
		joiner := " AND "
		if c.Operator == query.OpOr {
			joiner = " OR "
		}
		parts := make([]string, 0, len(c.Children))
		for _, child := range c.Children {
			expr, err := b.compile(child)
			if err != nil {
				return "", err
			}
			parts = append(parts, "("+expr+")")
		}
		return strings.Join(parts, joiner), nil

	case query.OpNot:
		if len(c.Children) != 1 {
			return "", fmt.Errorf("not requires exactly one child, got %d", len(c.Children))
		}
		expr, err := b.compile(c.Children[0])
		if err != nil {
			return "", err
		}
		return "NOT (" + expr + ")", nil

	case query.OpEqual:
		return b.comparison(c.Field, "=", c.Value)
	case query.OpGreater:
		return b.comparison(c.Field, ">", c.Value)
	case query.OpGreaterEq:
		return b.comparison(c.Field, ">=", c.Value)
	case query.OpLesser:
		return b.comparison(c.Field, "<", c.Value)
	case query.OpLesserEq:
		return b.comparison(c.Field, "<=", c.Value)

	case query.OpLike:
		return b.like(c.Field, c.Value)

	case query.OpIn:
		values, ok := c.Value.([]any)
		if !ok {
			return "", fmt.Errorf("in requires a value sequence, got %T", c.Value)
		}
		name, err := b.name(c.Field)
		if err != nil {
			return "", err
		}
		refs := make([]string, len(values))
		for i, v := range values {
			ref, err := b.value(v)
			if err != nil {
				return "", err
			}
			refs[i] = ref
		}
		return name + " IN (" + strings.Join(refs, ", ") + ")", nil

	case query.OpBetween:
		bounds, ok := c.Value.([]any)
		if !ok || len(bounds) != 2 {
			return "", fmt.Errorf("between requires exactly two bound values")
		}
		name, err := b.name(c.Field)
		if err != nil {
			return "", err
		}
		lo, err := b.value(bounds[0])
		if err != nil {
			return "", err
		}
		hi, err := b.value(bounds[1])
		if err != nil {
			return "", err
		}
		return name + " BETWEEN " + lo + " AND " + hi, nil

	default:
		return "", fmt.Errorf("unsupported operator %q", c.Operator)
	}
}

func (b *expressionBuilder) comparison(field, op string, v any) (string, error) {
	name, err := b.name(field)
	if err != nil {
		return "", err
	}
	ref, err := b.value(v)
	if err != nil {
		return "", err
	}
	return name + " " + op + " " + ref, nil
}

// like maps the %-wildcard shapes DynamoDB can express: exact match,
// begins_with for a trailing wildcard and contains for wildcards at both
// ends. Other shapes have no filter-expression equivalent.
func (b *expressionBuilder) like(field string, v any) (string, error) {
	pattern, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("like requires a string pattern, got %T", v)
	}

	name, err := b.name(field)
	if err != nil {
		return "", err
	}

	trimmed := strings.Trim(pattern, "%")
	if strings.Contains(trimmed, "%") {
		return "", fmt.Errorf("pattern %q is not expressible as a dynamodb filter", pattern)
	}

	switch {
	case !strings.HasPrefix(pattern, "%") && !strings.HasSuffix(pattern, "%"):
		ref, err := b.value(pattern)
		if err != nil {
			return "", err
		}
		return name + " = " + ref, nil
	case !strings.HasPrefix(pattern, "%") && strings.HasSuffix(pattern, "%"):
		ref, err := b.value(trimmed)
		if err != nil {
			return "", err
		}
		return "begins_with(" + name + ", " + ref + ")", nil
	case strings.HasPrefix(pattern, "%") && strings.HasSuffix(pattern, "%"):
		ref, err := b.value(trimmed)
		if err != nil {
			return "", err
		}
		return "contains(" + name + ", " + ref + ")", nil
	default:
		return "", fmt.Errorf("pattern %q is not expressible as a dynamodb filter", pattern)
	}
}

func (b *expressionBuilder) name(field string) (string, error) {
	if field == "" {
		return "", fmt.Errorf("condition field name is empty")
	}
	ref := fmt.Sprintf("#n%d", len(b.names))
	b.names[ref] = field
	return ref, nil
}

func (b *expressionBuilder) value(v any) (string, error) {
	av, err := toAttribute(v)
	if err != nil {
		return "", err
	}
	ref := fmt.Sprintf(":v%d", len(b.values))
	b.values[ref] = av
	return ref, nil
}
