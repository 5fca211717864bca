package metadata

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Resolver produces entity metadata for a type. Implementations must return
// the same metadata for repeated calls with the same type.
type Resolver interface {
	Resolve(t reflect.Type) (*EntityMeta, error)
}

// ReflectResolver builds metadata from `document` struct tags, caching the
// result per type. The zero value is ready to use.
//
// Field mapping rules, in precedence order:
//   - `document:"-"` excludes the field.
//   - `document:"name"` sets the native name; the `,id` option marks the
//     identity field.
//   - An identity field without an explicit native name maps to DefaultIDName.
//   - Any other untagged field maps to its logical name unchanged.
//
// The logical name of a field is its lowercased Go name. A field named ID is
// the identity field by convention when no field carries the `,id` option.
type ReflectResolver struct {
	cache sync.Map // reflect.Type -> *EntityMeta
}

// NewReflectResolver creates a reflection-based metadata resolver.
func NewReflectResolver() *ReflectResolver {
	return &ReflectResolver{}
}

// Resolve returns the metadata for the given struct type.
func (r *ReflectResolver) Resolve(t reflect.Type) (*EntityMeta, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrMapping)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := r.cache.Load(t); ok {
		return cached.(*EntityMeta), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: entity type must be a struct, got %s", ErrMapping, t.Kind())
	}

	meta, err := buildMeta(t)
	if err != nil {
		return nil, err
	}

	actual, _ := r.cache.LoadOrStore(t, meta)
	return actual.(*EntityMeta), nil
}

func buildMeta(t reflect.Type) (*EntityMeta, error) {
	meta := &EntityMeta{
		Collection: collectionName(t),
		Type:       t,
		byLogical:  make(map[string]*FieldMeta),
	}

	var fields []FieldMeta
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		native, isID, skip := parseTag(sf)
		if skip {
			continue
		}

		logical := strings.ToLower(sf.Name)
		if native == "" {
			native = logical
		}
		if !isID && sf.Name == "ID" {
			isID = true
		}
		if isID && sf.Tag.Get(TagName) == "" {
			native = DefaultIDName
		}

		fm := FieldMeta{
			Logical: logical,
			Native:  native,
			Index:   i,
			Type:    sf.Type,
			IsID:    isID,
		}
		if isID {
			if meta.id != nil {
				return nil, fmt.Errorf("%w: type %s declares more than one identity field", ErrMapping, t)
			}
			idCopy := fm
			meta.id = &idCopy
		}
		fields = append(fields, fm)
	}

	// Identity field first, remaining fields in declaration order.
	if meta.id != nil {
		ordered := make([]FieldMeta, 0, len(fields))
		ordered = append(ordered, *meta.id)
		for _, f := range fields {
			if !f.IsID {
				ordered = append(ordered, f)
			}
		}
		fields = ordered
	}
	meta.Fields = fields

	for i := range meta.Fields {
		f := &meta.Fields[i]
		if _, dup := meta.byLogical[f.Logical]; dup {
			return nil, fmt.Errorf("%w: type %s maps logical name %q twice", ErrMapping, t, f.Logical)
		}
		meta.byLogical[f.Logical] = f
	}
	return meta, nil
}

func parseTag(sf reflect.StructField) (native string, isID, skip bool) {
	tag, ok := sf.Tag.Lookup(TagName)
	if !ok {
		return "", false, false
	}
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	native = parts[0]
	for _, opt := range parts[1:] {
		if opt == "id" {
			isID = true
		}
	}
	return native, isID, false
}

func collectionName(t reflect.Type) string {
	if t.Implements(reflect.TypeFor[CollectionNamer]()) {
		return reflect.New(t).Elem().Interface().(CollectionNamer).CollectionName()
	}
	if reflect.PointerTo(t).Implements(reflect.TypeFor[CollectionNamer]()) {
		return reflect.New(t).Interface().(CollectionNamer).CollectionName()
	}
	return t.Name()
}
