package lang

import (
	"encoding/json"
	"fmt"
	"math"
)

// MarshalJSON implements json.Marshaler for Tree.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.ToMap())
}

// ToMap converts the global scope to native Go values keyed by entry name.
func (t *Tree) ToMap() map[string]any {
	return scopeMap(t.Root())
}

// ToMap converts the entries of s to native Go values keyed by name.
func (s *Scope) ToMap() map[string]any {
	return scopeMap(s)
}

func scopeMap(s *Scope) map[string]any {
	result := make(map[string]any, len(s.entries))

	for e := range s.Entries() {
		if e.IsBuiltin() {
			continue
		}

		result[e.name] = e.ToNative()
	}

	return result
}

// ToNative converts e to its native Go form: whole numbers become int64,
// other numbers float64, structs map[string]any, arrays []any and functions
// their signature and body as a string.
func (e *Entry) ToNative() any {
	switch e.Type() {
	case TypeNumber:
		f := e.AsDouble()
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}

		return f

	case TypeString:
		return e.AsString()

	case TypeStruct:
		s, ok := e.Struct()
		if !ok {
			return map[string]any{}
		}

		return scopeMap(s)

	case TypeArray:
		result := make([]any, 0, len(e.elems))
		for _, el := range e.elems {
			result = append(result, el.ToNative())
		}

		return result

	case TypeFunction:
		return e.AsString()

	default:
		return nil
	}
}

// FromNative converts a native Go value to an unattached entry. Integers,
// floats and bools become numbers; strings become strings; slices become
// arrays. Other values are a type mismatch.
func FromNative(v any) (*Entry, error) {
	switch x := v.(type) {
	case *Entry:
		return x, nil
	case string:
		return NewString(x), nil
	case bool:
		if x {
			return NewNumber(1), nil
		}

		return NewNumber(0), nil
	case int:
		return NewNumber(float64(x)), nil
	case int8:
		return NewNumber(float64(x)), nil
	case int16:
		return NewNumber(float64(x)), nil
	case int32:
		return NewNumber(float64(x)), nil
	case int64:
		return NewNumber(float64(x)), nil
	case uint:
		return NewNumber(float64(x)), nil
	case uint8:
		return NewNumber(float64(x)), nil
	case uint16:
		return NewNumber(float64(x)), nil
	case uint32:
		return NewNumber(float64(x)), nil
	case uint64:
		return NewNumber(float64(x)), nil
	case float32:
		return NewNumber(float64(x)), nil
	case float64:
		return NewNumber(x), nil
	case []any:
		arr := &Entry{kind: KindArray, owner: noScope, child: noScope}

		for _, el := range x {
			e, err := FromNative(el)
			if err != nil {
				return nil, err
			}

			if len(arr.elems) > 0 && e.Type() != arr.elems[0].Type() {
				return nil, ErrTypeMismatch.Because(
					"array elements must share one type: found " + e.Type().String() +
						" after " + arr.elems[0].Type().String(),
				)
			}

			arr.elems = append(arr.elems, e)
		}

		return arr, nil
	default:
		return nil, ErrTypeMismatch.Because(
			fmt.Sprintf("cannot convert %T to an entry", v),
		)
	}
}
