package state

import (
	"fmt"
	"reflect"
)

// Type is the declared type of a state key.
type Type string

const (
	TypeAny     Type = ""
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
)

// Reader is the read-only view computed accessors receive.
type Reader interface {
	Get(key string) any
}

// Descriptor declares a state key.
type Descriptor struct {
	// Type drives the zero default and value coercion.
	Type Type

	// Default is the initial value. When nil the default is derived from Type.
	Default any

	// Computed, when set, makes the key a read-only accessor evaluated on
	// every read.
	Computed func(r Reader) any
}

// Schema declares a set of state keys.
type Schema map[string]Descriptor

// IsComputed reports whether d describes a computed accessor.
func (d Descriptor) IsComputed() bool {
	return d.Computed != nil
}

// zero returns the default value of d. Array and object defaults are
// copied so stores defined from one schema never share them.
func (d Descriptor) zero() any {
	if d.Default != nil {
		if v, err := d.coerce(d.Default); err == nil {
			return copyValue(v)
		}
		return copyValue(d.Default)
	}
	switch d.Type {
	case TypeArray:
		return []any{}
	case TypeObject:
		return map[string]any{}
	case TypeString:
		return ""
	case TypeNumber:
		return float64(0)
	case TypeBoolean:
		return false
	default:
		return nil
	}
}

// copyValue deep-copies nested []any and map[string]any values.
func copyValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

// coerce validates v against d's type. Numbers are normalised to float64 so
// that equal values compare equal regardless of their Go numeric type.
func (d Descriptor) coerce(v any) (any, error) {
	switch d.Type {
	case TypeAny:
		return v, nil
	case TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case TypeNumber:
		if f, ok := toFloat(v); ok {
			return f, nil
		}
	case TypeArray:
		if v == nil {
			return v, nil
		}
		if k := reflect.TypeOf(v).Kind(); k == reflect.Slice || k == reflect.Array {
			return v, nil
		}
	case TypeObject:
		if v == nil {
			return v, nil
		}
		if k := reflect.TypeOf(v).Kind(); k == reflect.Map || k == reflect.Struct || k == reflect.Pointer {
			return v, nil
		}
	default:
		return v, nil
	}
	return nil, fmt.Errorf("expected %s, got %T", d.Type, v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
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
	}
	return 0, false
}

// equal compares two state values.
func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return reflect.DeepEqual(a, b)
}
