package memory

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/nimburion/docmap/pkg/document"
	"github.com/nimburion/docmap/pkg/query"
)

// evalCondition evaluates a predicate tree against one document. A nil
// condition matches everything.
func evalCondition(c *query.Condition, doc document.Document) (bool, error) {
	if c == nil {
		return true, nil
	}
	return eval(*c, doc)
}

func eval(c query.Condition, doc document.Document) (bool, error) {
	switch c.Operator {
	case query.OpAnd:
		for _, child := range c.Children {
			ok, err := eval(child, doc)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil

	case query.OpOr:
		for _, child := range c.Children {
			ok, err := eval(child, doc)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case query.OpNot:
		if len(c.Children) != 1 {
			return false, fmt.Errorf("not requires exactly one child, got %d", len(c.Children))
		}
		ok, err := eval(c.Children[0], doc)
		return !ok, err

	default:
		return evalLeaf(c, doc)
	}
}

func evalLeaf(c query.Condition, doc document.Document) (bool, error) {
	stored, present := doc.Get(c.Field)
	if !present {
		return false, nil
	}

	switch c.Operator {
	case query.OpEqual:
		return valuesEqual(stored, c.Value), nil

	case query.OpGreater, query.OpGreaterEq, query.OpLesser, query.OpLesserEq:
		cmp, ok := compareValues(stored, c.Value)
		if !ok {
			return false, nil
		}
		switch c.Operator {
		case query.OpGreater:
			return cmp > 0, nil
		case query.OpGreaterEq:
			return cmp >= 0, nil
		case query.OpLesser:
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}

	case query.OpLike:
		s, okS := stored.(string)
		p, okP := c.Value.(string)
		if !okS || !okP {
			return false, nil
		}
		return likeMatch(p, s), nil

	case query.OpIn:
		values, ok := c.Value.([]any)
		if !ok {
			return false, fmt.Errorf("in requires a value sequence, got %T", c.Value)
		}
		for _, v := range values {
			if valuesEqual(stored, v) {
				return true, nil
			}
		}
		return false, nil

	case query.OpBetween:
		bounds, ok := c.Value.([]any)
		if !ok || len(bounds) != 2 {
			return false, fmt.Errorf("between requires exactly two bound values")
		}
		lo, okLo := compareValues(stored, bounds[0])
		hi, okHi := compareValues(stored, bounds[1])
		if !okLo || !okHi {
			return false, nil
		}
		return lo >= 0 && hi <= 0, nil

	default:
		return false, fmt.Errorf("unsupported operator %q", c.Operator)
	}
}

// valuesEqual compares two stored/operand values, treating numeric values of
// different widths as equal when they represent the same number.
func valuesEqual(a, b any) bool {
	if cmp, ok := compareValues(a, b); ok {
		return cmp == 0
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders two values of compatible kinds. The second result is
// false when the values are not comparable.
func compareValues(a, b any) (int, bool) {
	if na, ok := toFloat(a); ok {
		if nb, ok := toFloat(b); ok {
			switch {
			case na < nb:
				return -1, true
			case na > nb:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}

	switch va := a.(type) {
	case string:
		vb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(va, vb), true
	case bool:
		vb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case va == vb:
			return 0, true
		case vb:
			return -1, true
		default:
			return 1, true
		}
	case time.Time:
		vb, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return va.Compare(vb), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// likeMatch matches text against a pattern where % matches any run of
// characters. The pattern is anchored at both ends.
func likeMatch(pattern, s string) bool {
	parts := strings.Split(pattern, "%")

	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]

	last := parts[len(parts)-1]
	if len(parts) == 1 {
		return s == ""
	}
	if !strings.HasSuffix(s, last) {
		return false
	}
	s = s[:len(s)-len(last)]

	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		idx := strings.Index(s, part)
		if idx < 0 {
			return false
		}
		s = s[idx+len(part):]
	}
	return true
}
