// Package convert implements the bidirectional mapping between typed domain
// entities and their native document representation.
package convert

import (
	"fmt"
	"reflect"
	"time"

	"github.com/nimburion/docmap/pkg/document"
	"github.com/nimburion/docmap/pkg/metadata"
)

var timeType = reflect.TypeFor[time.Time]()

// Converter maps entities of type T to documents and back. The zero entity
// shape is resolved once at construction; conversion itself is allocation
// per call and safe for concurrent use.
type Converter[T any] struct {
	resolver metadata.Resolver
	meta     *metadata.EntityMeta
}

// New creates a converter for T using the given metadata resolver.
func New[T any](resolver metadata.Resolver) (*Converter[T], error) {
	meta, err := resolver.Resolve(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return &Converter[T]{resolver: resolver, meta: meta}, nil
}

// Collection returns the collection name of the mapped type.
func (c *Converter[T]) Collection() string {
	return c.meta.Collection
}

// Metadata returns the resolved metadata of the mapped type.
func (c *Converter[T]) Metadata() *metadata.EntityMeta {
	return c.meta
}

// ToDocument converts an entity to its native document. Nil pointer and nil
// slice fields are omitted rather than stored as explicit nulls, so that
// "unset" stays distinguishable from "set to null". The identity field, when
// present, is emitted first.
func (c *Converter[T]) ToDocument(entity *T) (document.Document, error) {
	if entity == nil {
		return document.Document{}, fmt.Errorf("%w: nil entity", metadata.ErrMapping)
	}

	v := reflect.ValueOf(entity).Elem()
	doc := document.New(c.meta.Collection)
	for _, f := range c.meta.Fields {
		val, present, err := c.encode(v.Field(f.Index))
		if err != nil {
			return document.Document{}, fmt.Errorf("field %q: %w", f.Logical, err)
		}
		if !present {
			continue
		}
		doc.Append(f.Native, val)
	}
	return doc, nil
}

// ToEntity reconstitutes an entity from a native document. Document fields
// with no mapping on T (store-assigned ids under a different name, expiry
// markers) are ignored; mapped fields absent from the document stay zero.
func (c *Converter[T]) ToEntity(doc document.Document) (*T, error) {
	entity := new(T)
	v := reflect.ValueOf(entity).Elem()
	for _, f := range c.meta.Fields {
		raw, ok := doc.Get(f.Native)
		if !ok || raw == nil {
			continue
		}
		if err := c.decode(v.Field(f.Index), raw); err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Logical, err)
		}
	}
	return entity, nil
}

func (c *Converter[T]) encode(v reflect.Value) (any, bool, error) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil, false, nil
		}
		return c.encode(v.Elem())

	case reflect.Struct:
		if v.Type() == timeType {
			return v.Interface(), true, nil
		}
		return c.encodeStruct(v)

	case reflect.Slice:
		if v.IsNil() {
			return nil, false, nil
		}
		fallthrough
	case reflect.Array:
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			ev, present, err := c.encode(v.Index(i))
			if err != nil {
				return nil, false, err
			}
			if !present {
				ev = nil
			}
			out[i] = ev
		}
		return out, true, nil

	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return v.Interface(), true, nil

	default:
		return nil, false, fmt.Errorf("%w: unsupported kind %s", metadata.ErrMapping, v.Kind())
	}
}

func (c *Converter[T]) encodeStruct(v reflect.Value) (any, bool, error) {
	meta, err := c.resolver.Resolve(v.Type())
	if err != nil {
		return nil, false, err
	}
	nested := document.New(meta.Collection)
	for _, f := range meta.Fields {
		val, present, err := c.encode(v.Field(f.Index))
		if err != nil {
			return nil, false, fmt.Errorf("field %q: %w", f.Logical, err)
		}
		if !present {
			continue
		}
		nested.Append(f.Native, val)
	}
	return nested, true, nil
}

func (c *Converter[T]) decode(target reflect.Value, raw any) error {
	switch target.Kind() {
	case reflect.Pointer:
		if target.IsNil() {
			target.Set(reflect.New(target.Type().Elem()))
		}
		return c.decode(target.Elem(), raw)

	case reflect.Struct:
		if target.Type() == timeType {
			switch v := raw.(type) {
			case time.Time:
				target.Set(reflect.ValueOf(v))
				return nil
			case string:
				// Stores without a native timestamp type hand timestamps back
				// as RFC 3339 strings.
				t, err := time.Parse(time.RFC3339Nano, v)
				if err != nil {
					return fmt.Errorf("%w: %q stored where a timestamp was expected", metadata.ErrMapping, v)
				}
				target.Set(reflect.ValueOf(t))
				return nil
			}
			return fmt.Errorf("%w: %T stored where a timestamp was expected", metadata.ErrMapping, raw)
		}
		nested, ok := raw.(document.Document)
		if !ok {
			return fmt.Errorf("%w: %T stored where an embedded document was expected", metadata.ErrMapping, raw)
		}
		meta, err := c.resolver.Resolve(target.Type())
		if err != nil {
			return err
		}
		for _, f := range meta.Fields {
			fraw, ok := nested.Get(f.Native)
			if !ok || fraw == nil {
				continue
			}
			if err := c.decode(target.Field(f.Index), fraw); err != nil {
				return fmt.Errorf("field %q: %w", f.Logical, err)
			}
		}
		return nil

	case reflect.Slice:
		elems, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("%w: %T stored where a sequence was expected", metadata.ErrMapping, raw)
		}
		out := reflect.MakeSlice(target.Type(), len(elems), len(elems))
		for i, e := range elems {
			if e == nil {
				continue
			}
			if err := c.decode(out.Index(i), e); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		target.Set(out)
		return nil

	default:
		return decodeScalar(target, raw)
	}
}

func decodeScalar(target reflect.Value, raw any) error {
	rv := reflect.ValueOf(raw)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return fmt.Errorf("%w: sequence stored where a scalar was expected", metadata.ErrMapping)
	case reflect.Map, reflect.Struct:
		if _, isDoc := raw.(document.Document); isDoc {
			return fmt.Errorf("%w: embedded document stored where a scalar was expected", metadata.ErrMapping)
		}
	}

	if rv.Type().AssignableTo(target.Type()) {
		target.Set(rv)
		return nil
	}

	// Stores widen numeric values (for example int32 ids coming back as
	// int64); convert back to the declared kind when it is numeric.
	if isNumericKind(rv.Kind()) && isNumericKind(target.Kind()) {
		target.Set(rv.Convert(target.Type()))
		return nil
	}

	// Store-native identifiers (for example object ids) reconcile with
	// declared string fields through their textual form.
	if target.Kind() == reflect.String {
		if s, ok := raw.(fmt.Stringer); ok {
			target.SetString(s.String())
			return nil
		}
	}

	if rv.Type().ConvertibleTo(target.Type()) && rv.Kind() == target.Kind() {
		target.Set(rv.Convert(target.Type()))
		return nil
	}

	return fmt.Errorf("%w: cannot reconcile stored %T with declared %s", metadata.ErrMapping, raw, target.Type())
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
