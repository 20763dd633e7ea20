package statez

import (
	"bytes"
	"encoding"
	"encoding/json"
	"reflect"
)

// Equal reports whether a and b hold the same value.
//
// Values that survive a JSON round trip are compared by their canonical
// encoding: JSON with map keys sorted, so two maps built in different orders
// compare equal and numbers compare by value regardless of their Go numeric
// type. Anything else (structs with unexported fields, channels, NaN) is
// compared structurally, with NaN equal to NaN. Untyped nil and nil maps,
// slices and pointers are all equal to each other.
func Equal(a, b any) bool {
	na, nb := isNil(a), isNil(b)
	if na || nb {
		return na && nb
	}

	if encodable(reflect.ValueOf(a)) && encodable(reflect.ValueOf(b)) {
		ca, errA := canonical(a)
		cb, errB := canonical(b)
		if errA == nil && errB == nil {
			return bytes.Equal(ca, cb)
		}
	}
	return deepEqual(reflect.ValueOf(a), reflect.ValueOf(b), make(map[visit]bool))
}

// canonical encodes v with sorted map keys. encoding/json sorts map keys
// on output, which is the ordering Equal relies on.
func canonical(v any) ([]byte, error) {
	return json.Marshal(v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

var (
	jsonMarshaler = reflect.TypeFor[json.Marshaler]()
	textMarshaler = reflect.TypeFor[encoding.TextMarshaler]()
)

// encodable reports whether v encodes to JSON without losing information:
// no unexported or skipped struct fields, no NaN or infinities, and only
// kinds encoding/json understands. Types with their own marshaler are
// trusted.
func encodable(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	t := v.Type()
	if t.Implements(jsonMarshaler) || t.Implements(textMarshaler) {
		return true
	}

	switch v.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		return f == f && f-f == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil() || encodable(v.Elem())
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return true
		}
		for i := range v.Len() {
			if !encodable(v.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Map:
		switch t.Key().Kind() {
		case reflect.String,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		default:
			return false
		}
		iter := v.MapRange()
		for iter.Next() {
			if !encodable(iter.Value()) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() || f.Tag.Get("json") == "-" {
				return false
			}
			if !encodable(v.Field(i)) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

type visit struct {
	a, b uintptr
	t    reflect.Type
}

// deepEqual is reflect.DeepEqual with NaN equal to NaN. It reads unexported
// fields through their kind accessors and never calls Interface on them.
func deepEqual(a, b reflect.Value, seen map[visit]bool) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.Type() != b.Type() {
		return false
	}

	switch a.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		if a.Kind() != reflect.Slice || a.Len() > 0 {
			key := visit{a.Pointer(), b.Pointer(), a.Type()}
			if seen[key] {
				return true
			}
			seen[key] = true
		}
	}

	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return floatEqual(a.Float(), b.Float())
	case reflect.Complex64, reflect.Complex128:
		x, y := a.Complex(), b.Complex()
		return floatEqual(real(x), real(y)) && floatEqual(imag(x), imag(y))
	case reflect.String:
		return a.String() == b.String()
	case reflect.Pointer:
		return a.Pointer() == b.Pointer() || deepEqual(a.Elem(), b.Elem(), seen)
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return deepEqual(a.Elem(), b.Elem(), seen)
	case reflect.Slice, reflect.Array:
		if a.Len() != b.Len() {
			return false
		}
		for i := range a.Len() {
			if !deepEqual(a.Index(i), b.Index(i), seen) {
				return false
			}
		}
		return true
	case reflect.Map:
		if a.Len() != b.Len() {
			return false
		}
		iter := a.MapRange()
		for iter.Next() {
			bv := b.MapIndex(iter.Key())
			if !bv.IsValid() || !deepEqual(iter.Value(), bv, seen) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := range a.NumField() {
			if !deepEqual(a.Field(i), b.Field(i), seen) {
				return false
			}
		}
		return true
	case reflect.Func:
		return a.IsNil() && b.IsNil()
	default:
		// Chan, UnsafePointer: identity.
		return a.Pointer() == b.Pointer()
	}
}

func floatEqual(x, y float64) bool {
	return x == y || (x != x && y != y)
}

// Clone returns a deep copy of v.
//
// map[string]any and []any trees are copied node by node. Other maps,
// slices, arrays, pointers and structs are copied by reflection into a fresh
// value of the same type. Unexported struct fields are copied by value and
// not descended into. Scalars, funcs and channels are returned unchanged.
func Clone(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Clone(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Struct, reflect.Pointer, reflect.Array:
		return copyValue(rv, make(map[copied]reflect.Value)).Interface()
	default:
		return v
	}
}

type copied struct {
	p uintptr
	t reflect.Type
}

// copyValue deep copies v. seen maps source pointers to their copies so
// shared and cyclic pointers keep their shape.
func copyValue(v reflect.Value, seen map[copied]reflect.Value) reflect.Value {
	t := v.Type()

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		key := copied{v.Pointer(), t}
		if dup, ok := seen[key]; ok {
			return dup
		}
		out := reflect.New(t.Elem())
		seen[key] = out
		out.Elem().Set(copyValue(v.Elem(), seen))
		return out

	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(t).Elem()
		out.Set(copyValue(v.Elem(), seen))
		return out

	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(t, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), copyValue(iter.Value(), seen))
		}
		return out

	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(t, v.Len(), v.Len())
		for i := range v.Len() {
			out.Index(i).Set(copyValue(v.Index(i), seen))
		}
		return out

	case reflect.Array:
		out := reflect.New(t).Elem()
		for i := range v.Len() {
			out.Index(i).Set(copyValue(v.Index(i), seen))
		}
		return out

	case reflect.Struct:
		out := reflect.New(t).Elem()
		out.Set(v)
		for i := range t.NumField() {
			if t.Field(i).IsExported() {
				out.Field(i).Set(copyValue(v.Field(i), seen))
			}
		}
		return out

	default:
		return v
	}
}

// isComposite reports whether v is a value Tracked can observe.
func isComposite(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	default:
		return false
	}
}

// hasIntersection reports whether any id in ids is present in set.
func hasIntersection(ids []int, set map[int]struct{}) bool {
	for _, id := range ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
