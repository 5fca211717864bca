package metadata

import (
	"fmt"
	"reflect"
	"strconv"
)

// Mapper translates logical field names into native storage names for a type,
// and normalizes comparison values against the declared field type. It is the
// single place where domain vocabulary meets storage vocabulary.
type Mapper struct {
	resolver Resolver
}

// NewMapper creates a field mapper on top of a metadata resolver.
func NewMapper(resolver Resolver) *Mapper {
	return &Mapper{resolver: resolver}
}

// Resolve maps a logical field name of the given type to its native name.
// Unknown logical names fail with ErrMapping.
func (m *Mapper) Resolve(t reflect.Type, logical string) (string, error) {
	meta, err := m.resolver.Resolve(t)
	if err != nil {
		return "", err
	}
	f, err := meta.Field(logical)
	if err != nil {
		return "", err
	}
	return f.Native, nil
}

// IDField returns the logical and native names of the identity field.
func (m *Mapper) IDField(t reflect.Type) (logical, native string, err error) {
	meta, err := m.resolver.Resolve(t)
	if err != nil {
		return "", "", err
	}
	id, ok := meta.ID()
	if !ok {
		return "", "", fmt.Errorf("%w: type %s declares no identity field", ErrMapping, t)
	}
	return id.Logical, id.Native, nil
}

// Coerce normalizes a comparison value to the declared type of the field.
// Textual input is parsed for numeric targets, numeric input is converted
// between numeric kinds, and values already of the declared type pass
// through. A value that cannot be reconciled fails with ErrMapping.
func Coerce(field *FieldMeta, value any) (any, error) {
	if value == nil {
		return nil, fmt.Errorf("%w: nil value for field %q", ErrMapping, field.Logical)
	}

	target := field.Type
	for target.Kind() == reflect.Pointer {
		target = target.Elem()
	}

	v := reflect.ValueOf(value)
	if v.Type() == target {
		return value, nil
	}

	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(v)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrMapping, field.Logical, err)
		}
		return reflect.ValueOf(n).Convert(target).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toUint64(v)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrMapping, field.Logical, err)
		}
		return reflect.ValueOf(n).Convert(target).Interface(), nil
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(v)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrMapping, field.Logical, err)
		}
		return reflect.ValueOf(f).Convert(target).Interface(), nil
	case reflect.String:
		switch v.Kind() {
		case reflect.String:
			return v.Convert(target).Interface(), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return strconv.FormatInt(v.Int(), 10), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return strconv.FormatUint(v.Uint(), 10), nil
		}
	}

	if v.Type().ConvertibleTo(target) {
		return v.Convert(target).Interface(), nil
	}
	return nil, fmt.Errorf("%w: cannot coerce %T to %s for field %q", ErrMapping, value, target, field.Logical)
}

func toInt64(v reflect.Value) (int64, error) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if f != float64(int64(f)) {
			return 0, fmt.Errorf("value %v is not an integer", f)
		}
		return int64(f), nil
	case reflect.String:
		return strconv.ParseInt(v.String(), 10, 64)
	default:
		return 0, fmt.Errorf("value of type %s is not numeric", v.Type())
	}
}

func toUint64(v reflect.Value) (uint64, error) {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := v.Int()
		if n < 0 {
			return 0, fmt.Errorf("value %d is negative", n)
		}
		return uint64(n), nil
	case reflect.String:
		return strconv.ParseUint(v.String(), 10, 64)
	default:
		return 0, fmt.Errorf("value of type %s is not numeric", v.Type())
	}
}

func toFloat64(v reflect.Value) (float64, error) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.String:
		return strconv.ParseFloat(v.String(), 64)
	default:
		return 0, fmt.Errorf("value of type %s is not numeric", v.Type())
	}
}
