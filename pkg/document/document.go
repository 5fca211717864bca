// Package document defines the native representation exchanged with
// collection managers: an ordered list of name/value fields plus the logical
// collection name the unit belongs to.
package document

// Field is one native name/value pair of a document.
//
// A value is a scalar (bool, integer, float, string, time.Time), an embedded
// Document, or a []any whose elements are themselves scalars or Documents.
type Field struct {
	Name  string
	Value any
}

// Document is the native representation of one persisted unit. Field order is
// preserved; by convention the identity field, when present, comes first.
type Document struct {
	Collection string
	Fields     []Field
}

// New creates an empty document for the given collection.
func New(collection string) Document {
	return Document{Collection: collection}
}

// Append adds a field to the end of the document.
func (d *Document) Append(name string, value any) {
	d.Fields = append(d.Fields, Field{Name: name, Value: value})
}

// Get returns the value of the first field with the given native name.
func (d Document) Get(name string) (any, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Has reports whether the document contains a field with the given native name.
func (d Document) Has(name string) bool {
	_, ok := d.Get(name)
	return ok
}

// Len returns the number of fields.
func (d Document) Len() int {
	return len(d.Fields)
}

// Clone returns a deep copy of the document. Embedded documents and slice
// values are copied; scalar values are copied by assignment.
func (d Document) Clone() Document {
	out := Document{Collection: d.Collection, Fields: make([]Field, len(d.Fields))}
	for i, f := range d.Fields {
		out.Fields[i] = Field{Name: f.Name, Value: cloneValue(f.Value)}
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Document:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
