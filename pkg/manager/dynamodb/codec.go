package dynamodb

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/nimburion/docmap/pkg/document"
	"github.com/nimburion/docmap/pkg/metadata"
)

// toItem converts a document to a DynamoDB item. DynamoDB items are unordered
// maps, so field order is not preserved; the key attribute carries identity
// instead of position.
func toItem(doc document.Document) (map[string]types.AttributeValue, error) {
	item := make(map[string]types.AttributeValue, doc.Len())
	for _, f := range doc.Fields {
		av, err := toAttribute(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		item[f.Name] = av
	}
	return item, nil
}

func toAttribute(v any) (types.AttributeValue, error) {
	if v == nil {
		return &types.AttributeValueMemberNULL{Value: true}, nil
	}
	switch val := v.(type) {
	case string:
		return &types.AttributeValueMemberS{Value: val}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: val}, nil
	case int:
		return numberAttribute(strconv.FormatInt(int64(val), 10)), nil
	case int8:
		return numberAttribute(strconv.FormatInt(int64(val), 10)), nil
	case int16:
		return numberAttribute(strconv.FormatInt(int64(val), 10)), nil
	case int32:
		return numberAttribute(strconv.FormatInt(int64(val), 10)), nil
	case int64:
		return numberAttribute(strconv.FormatInt(val, 10)), nil
	case uint:
		return numberAttribute(strconv.FormatUint(uint64(val), 10)), nil
	case uint8:
		return numberAttribute(strconv.FormatUint(uint64(val), 10)), nil
	case uint16:
		return numberAttribute(strconv.FormatUint(uint64(val), 10)), nil
	case uint32:
		return numberAttribute(strconv.FormatUint(uint64(val), 10)), nil
	case uint64:
		return numberAttribute(strconv.FormatUint(val, 10)), nil
	case float32:
		return numberAttribute(strconv.FormatFloat(float64(val), 'g', -1, 32)), nil
	case float64:
		return numberAttribute(strconv.FormatFloat(val, 'g', -1, 64)), nil
	case time.Time:
		return &types.AttributeValueMemberS{Value: val.UTC().Format(time.RFC3339Nano)}, nil
	case document.Document:
		nested, err := toItem(val)
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: nested}, nil
	case []any:
		list := make([]types.AttributeValue, len(val))
		for i, item := range val {
			av, err := toAttribute(item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			list[i] = av
		}
		return &types.AttributeValueMemberL{Value: list}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported attribute value of type %T", metadata.ErrMapping, v)
	}
}

func numberAttribute(n string) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: n}
}

// fromItem converts a DynamoDB item back to a document. The key attribute is
// emitted first so the document keeps the key-field-first convention.
func fromItem(item map[string]types.AttributeValue, collection, keyAttribute string) (document.Document, error) {
	doc := document.New(collection)
	if av, ok := item[keyAttribute]; ok {
		v, err := fromAttribute(av)
		if err != nil {
			return document.Document{}, fmt.Errorf("attribute %q: %w", keyAttribute, err)
		}
		doc.Append(keyAttribute, v)
	}
	for name, av := range item {
		if name == keyAttribute {
			continue
		}
		v, err := fromAttribute(av)
		if err != nil {
			return document.Document{}, fmt.Errorf("attribute %q: %w", name, err)
		}
		doc.Append(name, v)
	}
	return doc, nil
}

func fromAttribute(av types.AttributeValue) (any, error) {
	switch val := av.(type) {
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberS:
		return val.Value, nil
	case *types.AttributeValueMemberBOOL:
		return val.Value, nil
	case *types.AttributeValueMemberN:
		if n, err := strconv.ParseInt(val.Value, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(val.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed number %q", metadata.ErrMapping, val.Value)
		}
		return f, nil
	case *types.AttributeValueMemberM:
		nested := document.New("")
		for name, item := range val.Value {
			v, err := fromAttribute(item)
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %w", name, err)
			}
			nested.Append(name, v)
		}
		return nested, nil
	case *types.AttributeValueMemberL:
		out := make([]any, len(val.Value))
		for i, item := range val.Value {
			v, err := fromAttribute(item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported attribute value of type %T", metadata.ErrMapping, av)
	}
}
