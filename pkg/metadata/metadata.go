// Package metadata resolves entity types into the logical-to-native mapping
// the rest of the layer consumes: collection name, identity field and column
// name translations. Metadata is built once per type and read-only afterwards,
// safe for concurrent use without locking.
package metadata

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrMapping classifies metadata failures: unmapped logical fields,
// unsupported entity shapes, values that cannot be reconciled with the
// declared field type.
var ErrMapping = errors.New("mapping error")

// DefaultIDName is the conventional native name used for an identity field
// that does not declare an explicit native name.
const DefaultIDName = "_id"

// TagName is the struct tag consulted by the reflection resolver.
//
//	ID   int64  `document:"native_id,id"`
//	Name string `document:"name"`
//	Skip string `document:"-"`
const TagName = "document"

// CollectionNamer lets an entity type override the collection name derived
// from the type name.
type CollectionNamer interface {
	CollectionName() string
}

// FieldMeta describes one mapped field of an entity type.
type FieldMeta struct {
	// Logical is the name used in fluent query-building code.
	Logical string
	// Native is the storage-side field name.
	Native string
	// Index is the struct field index within the entity type.
	Index int
	// Type is the declared Go type of the field.
	Type reflect.Type
	// IsID marks the identity field.
	IsID bool
}

// EntityMeta is the resolved description of one entity type.
type EntityMeta struct {
	// Collection is the logical collection name for the type.
	Collection string
	// Type is the entity struct type.
	Type reflect.Type
	// Fields lists the mapped fields in declaration order, identity field first.
	Fields []FieldMeta

	id        *FieldMeta
	byLogical map[string]*FieldMeta
}

// Field returns the metadata for a logical field name. An unknown logical
// name is an ErrMapping: a typo in query-building code must fail at build
// time, not pass through to storage unmapped.
func (m *EntityMeta) Field(logical string) (*FieldMeta, error) {
	if f, ok := m.byLogical[logical]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: type %s has no field %q", ErrMapping, m.Type, logical)
}

// ID returns the identity field metadata, if the type declares one.
func (m *EntityMeta) ID() (*FieldMeta, bool) {
	if m.id == nil {
		return nil, false
	}
	return m.id, true
}
