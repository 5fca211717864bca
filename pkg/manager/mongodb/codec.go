package mongodb

import (
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nimburion/docmap/pkg/document"
	"github.com/nimburion/docmap/pkg/query"
)

// toBSON converts a document to an ordered BSON document. Field order is
// preserved so the key field stays first.
func toBSON(doc document.Document) bson.D {
	out := make(bson.D, 0, doc.Len())
	for _, f := range doc.Fields {
		out = append(out, bson.E{Key: f.Name, Value: toBSONValue(f.Value)})
	}
	return out
}

func toBSONValue(v any) any {
	switch val := v.(type) {
	case document.Document:
		return toBSON(val)
	case []any:
		out := make(bson.A, len(val))
		for i, item := range val {
			out[i] = toBSONValue(item)
		}
		return out
	default:
		return v
	}
}

// fromBSON converts a raw BSON document back into the field-list form,
// preserving order.
func fromBSON(raw bson.D, collection string) document.Document {
	doc := document.New(collection)
	for _, e := range raw {
		doc.Append(e.Key, fromBSONValue(e.Value))
	}
	return doc
}

func fromBSONValue(v any) any {
	switch val := v.(type) {
	case bson.D:
		nested := document.New("")
		for _, e := range val {
			nested.Append(e.Key, fromBSONValue(e.Value))
		}
		return nested
	case bson.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = fromBSONValue(item)
		}
		return out
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC()
	case int32:
		return int64(val)
	default:
		return v
	}
}

// toFilter translates a predicate tree into a MongoDB filter document. A nil
// condition matches everything.
func toFilter(c *query.Condition) (bson.M, error) {
	if c == nil {
		return bson.M{}, nil
	}
	return conditionToFilter(*c)
}

func conditionToFilter(c query.Condition) (bson.M, error) {
	switch c.Operator {
	case query.OpAnd, query.OpOr:
		children := make([]bson.M, 0, len(c.Children))
		for _, child := range c.Children {
			f, err := conditionToFilter(child)
			if err != nil {
				return nil, err
			}
			children = append(children, f)
		}
		op := "$and"
		if c.Operator == query.OpOr {
			op = "$or"
		}
		return bson.M{op: children}, nil

	case query.OpNot:
		if len(c.Children) != 1 {
			return nil, fmt.Errorf("not requires exactly one child, got %d", len(c.Children))
		}
		f, err := conditionToFilter(c.Children[0])
		if err != nil {
			return nil, err
		}
		return bson.M{"$nor": []bson.M{f}}, nil

	case query.OpEqual:
		return bson.M{c.Field: toBSONValue(c.Value)}, nil

	case query.OpGreater:
		return bson.M{c.Field: bson.M{"$gt": toBSONValue(c.Value)}}, nil
	case query.OpGreaterEq:
		return bson.M{c.Field: bson.M{"$gte": toBSONValue(c.Value)}}, nil
	case query.OpLesser:
		return bson.M{c.Field: bson.M{"$lt": toBSONValue(c.Value)}}, nil
	case query.OpLesserEq:
		return bson.M{c.Field: bson.M{"$lte": toBSONValue(c.Value)}}, nil

	case query.OpLike:
		pattern, ok := c.Value.(string)
		if !ok {
			return nil, fmt.Errorf("like requires a string pattern, got %T", c.Value)
		}
		return bson.M{c.Field: bson.M{"$regex": likeToRegex(pattern)}}, nil

	case query.OpIn:
		values, ok := c.Value.([]any)
		if !ok {
			return nil, fmt.Errorf("in requires a value sequence, got %T", c.Value)
		}
		converted := make(bson.A, len(values))
		for i, v := range values {
			converted[i] = toBSONValue(v)
		}
		return bson.M{c.Field: bson.M{"$in": converted}}, nil

	case query.OpBetween:
		bounds, ok := c.Value.([]any)
		if !ok || len(bounds) != 2 {
			return nil, fmt.Errorf("between requires exactly two bound values")
		}
		return bson.M{c.Field: bson.M{
			"$gte": toBSONValue(bounds[0]),
			"$lte": toBSONValue(bounds[1]),
		}}, nil

	default:
		return nil, fmt.Errorf("unsupported operator %q", c.Operator)
	}
}

// likeToRegex rewrites a %-wildcard pattern as an anchored regular
// expression, escaping everything else.
func likeToRegex(pattern string) string {
	parts := strings.Split(pattern, "%")
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = regexp.QuoteMeta(p)
	}
	return "^" + strings.Join(escaped, ".*") + "$"
}
