package lang

import (
	"slices"
	"unicode/utf8"

	"github.com/ardnew/scfg/lang/token"
)

type accessorFunc func(t *Tree, e *Entry) (*Entry, bool)

// accessors maps each ':name' accessor to its implementation. An accessor
// reports false when it does not apply to the operand's type.
var accessors = map[string]accessorFunc{
	"size":      sizeOf,
	"names":     namesOf,
	"string":    func(_ *Tree, e *Entry) (*Entry, bool) { return NewString(e.AsString()), true },
	"value":     func(_ *Tree, e *Entry) (*Entry, bool) { return NewNumber(e.AsDouble()), true },
	"type":      func(_ *Tree, e *Entry) (*Entry, bool) { return NewString(e.Type().String()), true },
	"is_string": predicate(func(e *Entry) bool { return e.IsString() }),
	"is_value":  predicate(func(e *Entry) bool { return e.IsNumeric() }),
	"is_struct": predicate(func(e *Entry) bool { return e.IsStruct() }),
	"is_array":  predicate(func(e *Entry) bool { return e.IsArray() }),
	"is_func":   predicate(func(e *Entry) bool { return e.IsFunction() }),
}

// AccessorNames returns the names of every built-in accessor, sorted.
func AccessorNames() []string {
	names := make([]string, 0, len(accessors))
	for name := range accessors {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func sizeOf(_ *Tree, e *Entry) (*Entry, bool) {
	switch e.Type() {
	case TypeArray, TypeStruct:
		return NewNumber(e.AsDouble()), true
	case TypeString:
		return NewNumber(float64(utf8.RuneCountInString(e.AsString()))), true
	default:
		return nil, false
	}
}

func namesOf(t *Tree, e *Entry) (*Entry, bool) {
	s, ok := e.Struct()
	if !ok {
		return nil, false
	}

	arr := t.newEntry(KindArray)

	for _, name := range s.Names() {
		el := NewString(name)
		el.tree = t
		arr.elems = append(arr.elems, el)
	}

	return arr, true
}

func predicate(fn func(*Entry) bool) accessorFunc {
	return func(_ *Tree, e *Entry) (*Entry, bool) {
		if fn(e) {
			return NewNumber(1), true
		}

		return NewNumber(0), true
	}
}

// accessors applies every ':name' accessor following v.
func (p *processor) accessors(v *Entry) (*Entry, error) {
	for p.peek().Is(":") {
		p.next()

		name := p.peek()
		if name.Kind != token.Identifier {
			return nil, ErrUnexpectedToken.At(name).Because(
				"expected accessor name after ':', found " + name.String(),
			)
		}

		p.next()

		fn, ok := accessors[name.Lexeme]
		if !ok {
			return nil, ErrInvalidAccessor.At(name).Because(
				"unknown accessor ':" + name.Lexeme + "'",
			)
		}

		out, ok := fn(p.tree, v)
		if !ok {
			return nil, ErrInvalidAccessor.At(name).Because(
				"':" + name.Lexeme + "' does not apply to " + v.Type().String(),
			)
		}

		p.release(v)

		v = p.temp(out)
	}

	return v, nil
}
