package lang

import (
	"math"
	"strconv"
	"strings"

	"github.com/ardnew/scfg/lang/token"
)

// Kind identifies which payload an [Entry] carries.
type Kind int

const (
	KindPlaceholder Kind = iota
	KindNumber
	KindString
	KindStruct
	KindArray
	KindFunction
	KindLinked
)

func (k Kind) String() string {
	switch k {
	case KindPlaceholder:
		return "Placeholder"
	case KindNumber:
		return "Number"
	case KindString:
		return "String"
	case KindStruct:
		return "Struct"
	case KindArray:
		return "Array"
	case KindFunction:
		return "Function"
	case KindLinked:
		return "Linked"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Type is the assignment-compatibility category of an entry. Two entries
// may be assigned to one another only when their types are equal.
//
// Linked entries report the type of their host storage, so a script can
// assign a number to a variable linked to an int field.
type Type int

const (
	TypePlaceholder Type = iota
	TypeNumber
	TypeString
	TypeStruct
	TypeArray
	TypeFunction
)

func (t Type) String() string {
	switch t {
	case TypePlaceholder:
		return "Placeholder"
	case TypeNumber:
		return "Number"
	case TypeString:
		return "String"
	case TypeStruct:
		return "Struct"
	case TypeArray:
		return "Array"
	case TypeFunction:
		return "Function"
	default:
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
}

type flag uint8

const (
	flagTemporary flag = 1 << iota
	flagBuiltin
	flagReleased
	flagView // struct temporary that borrows an existing scope
)

// Entry is one configuration variable.
//
// Exactly one payload field is meaningful, selected by kind:
//
//	KindNumber   num
//	KindString   str
//	KindStruct   child
//	KindArray    elems
//	KindFunction fn
//	KindLinked   link
//
// Placeholders carry no payload.
type Entry struct {
	tree  *Tree
	name  string
	desc  string
	def   string
	hasDf bool
	flags flag
	owner ScopeID // noScope for temporaries and array elements
	kind  Kind

	num   float64
	str   string
	child ScopeID
	elems []*Entry
	fn    *Function
	link  Link
}

// Function is the payload of a function entry: either a script-defined body
// evaluated lazily at each call, or a host-provided native implementation.
type Function struct {
	Params []string

	variadic bool
	body     []token.Token // terminated by token.EOF
	source   string
	scope    ScopeID // capturing scope
	native   NativeFunc
}

// NativeFunc implements a host-provided function. Arguments are resolved
// entries; the result should be a new value (see [NewNumber], [NewString]).
type NativeFunc func(args []*Entry) (*Entry, error)

// Source returns the function body as it appeared in the script, or "" for
// native functions.
func (f *Function) Source() string { return f.source }

// IsNative reports whether f is implemented by the host.
func (f *Function) IsNative() bool { return f.native != nil }

func (t *Tree) newEntry(kind Kind) *Entry {
	return &Entry{tree: t, kind: kind, owner: noScope, child: noScope}
}

// NewNumber returns an unattached number entry.
func NewNumber(v float64) *Entry {
	return &Entry{kind: KindNumber, num: v, owner: noScope, child: noScope}
}

// NewString returns an unattached string entry.
func NewString(s string) *Entry {
	return &Entry{kind: KindString, str: s, owner: noScope, child: noScope}
}

// Name returns the entry's name within its owning scope.
func (e *Entry) Name() string { return e.name }

// Description returns the human-readable description, if any.
func (e *Entry) Description() string { return e.desc }

// Default returns the default value registered for the entry, in string
// form, and whether one was registered.
func (e *Entry) Default() (string, bool) { return e.def, e.hasDf }

// Kind returns the payload variant of e.
func (e *Entry) Kind() Kind { return e.kind }

// Type returns the assignment-compatibility category of e.
func (e *Entry) Type() Type {
	switch e.kind {
	case KindPlaceholder:
		return TypePlaceholder
	case KindNumber:
		return TypeNumber
	case KindString:
		return TypeString
	case KindStruct:
		return TypeStruct
	case KindArray:
		return TypeArray
	case KindFunction:
		return TypeFunction
	case KindLinked:
		return e.link.Type()
	default:
		return TypePlaceholder
	}
}

func (e *Entry) IsPlaceholder() bool { return e.kind == KindPlaceholder }
func (e *Entry) IsNumeric() bool     { return e.Type() == TypeNumber }
func (e *Entry) IsString() bool      { return e.Type() == TypeString }
func (e *Entry) IsStruct() bool      { return e.kind == KindStruct }
func (e *Entry) IsArray() bool       { return e.kind == KindArray }
func (e *Entry) IsFunction() bool    { return e.kind == KindFunction }
func (e *Entry) IsLinked() bool      { return e.kind == KindLinked }
func (e *Entry) IsTemporary() bool   { return e.flags&flagTemporary != 0 }
func (e *Entry) IsBuiltin() bool     { return e.flags&flagBuiltin != 0 }

// SetTemporary sets or clears the temporary flag.
func (e *Entry) SetTemporary(v bool) { e.setFlag(flagTemporary, v) }

// SetBuiltin sets or clears the builtin flag.
func (e *Entry) SetBuiltin(v bool) { e.setFlag(flagBuiltin, v) }

func (e *Entry) setFlag(f flag, v bool) {
	if v {
		e.flags |= f
	} else {
		e.flags &^= f
	}
}

// Scope returns the scope that owns e, or nil for unattached entries.
func (e *Entry) Scope() *Scope {
	if e.tree == nil {
		return nil
	}

	return e.tree.scope(e.owner)
}

// Struct returns the child scope of a struct entry.
func (e *Entry) Struct() (*Scope, bool) {
	if e.kind != KindStruct || e.tree == nil {
		return nil, false
	}

	s := e.tree.scope(e.child)

	return s, s != nil
}

// Elements returns the elements of an array entry.
func (e *Entry) Elements() []*Entry {
	if e.kind != KindArray {
		return nil
	}

	return e.elems
}

// Function returns the payload of a function entry.
func (e *Entry) Function() (*Function, bool) {
	if e.kind != KindFunction {
		return nil, false
	}

	return e.fn, true
}

// AsDouble returns the numeric form of e. Strings are parsed best-effort
// (see [ParseNumber]); structs and arrays yield their size; functions and
// placeholders yield 0.
func (e *Entry) AsDouble() float64 {
	switch e.kind {
	case KindNumber:
		return e.num
	case KindString:
		return ParseNumber(e.str)
	case KindStruct:
		if s, ok := e.Struct(); ok {
			return float64(s.Len())
		}

		return 0
	case KindArray:
		return float64(len(e.elems))
	case KindLinked:
		return e.link.Float()
	case KindFunction, KindPlaceholder:
		return 0
	default:
		return 0
	}
}

// AsString returns the textual form of e.
func (e *Entry) AsString() string {
	switch e.kind {
	case KindNumber:
		return FormatNumber(e.num)
	case KindString:
		return e.str
	case KindStruct:
		s, ok := e.Struct()
		if !ok {
			return "{}"
		}

		var sb strings.Builder

		_ = formatStruct(s, &sb, 0, 0)

		return sb.String()
	case KindArray:
		var sb strings.Builder

		_ = formatArray(e, &sb)

		return sb.String()
	case KindFunction:
		if e.fn.IsNative() {
			return formatSignature(e.name, e.fn)
		}

		return formatSignature(e.name, e.fn) + " = " + e.fn.source
	case KindLinked:
		return e.link.String()
	case KindPlaceholder:
		return ""
	default:
		return ""
	}
}

// SetValue assigns a number to e. Linked entries write through to host
// storage; string entries take the formatted number.
func (e *Entry) SetValue(v float64) {
	switch e.kind {
	case KindNumber:
		e.num = v
	case KindString:
		e.str = FormatNumber(v)
	case KindLinked:
		e.link.SetFloat(v)
	case KindPlaceholder, KindStruct, KindArray, KindFunction:
		// no numeric payload
	}
}

// SetString assigns text to e. Linked entries write through to host
// storage; number entries take the parsed value.
func (e *Entry) SetString(s string) {
	switch e.kind {
	case KindNumber:
		e.num = ParseNumber(s)
	case KindString:
		e.str = s
	case KindLinked:
		e.link.SetString(s)
	case KindPlaceholder, KindStruct, KindArray, KindFunction:
		// no textual payload
	}
}

// Clone returns an unattached deep copy of e. Struct payloads are copied
// into a fresh scope that is adopted by whichever scope the clone is
// installed into. Linked entries clone to a plain number or string holding
// the current host value.
//
// A cloned function keeps the scope it was defined in: free names in its
// body resolve where the original was written, not where the clone lives.
// Calling it after that scope is released fails with
// [ErrUndefinedReference].
func (e *Entry) Clone() *Entry {
	c := &Entry{
		tree:  e.tree,
		name:  e.name,
		desc:  e.desc,
		def:   e.def,
		hasDf: e.hasDf,
		flags: e.flags &^ (flagTemporary | flagReleased | flagBuiltin | flagView),
		owner: noScope,
		child: noScope,
		kind:  e.kind,
	}

	switch e.kind {
	case KindNumber:
		c.num = e.num
	case KindString:
		c.str = e.str
	case KindStruct:
		c.child = e.tree.cloneScope(e.child, noScope)
	case KindArray:
		c.elems = make([]*Entry, len(e.elems))
		for i, el := range e.elems {
			c.elems[i] = el.Clone()
		}
	case KindFunction:
		fn := *e.fn
		c.fn = &fn
	case KindLinked:
		if e.link.Type() == TypeString {
			c.kind, c.str = KindString, e.link.String()
		} else {
			c.kind, c.num = KindNumber, e.link.Float()
		}
	case KindPlaceholder:
	}

	return c
}

// CopyValue overwrites the payload of e with the value of src, leaving the
// name, description, default and owning scope of e untouched. Callers must
// ensure e.Type() == src.Type().
//
// Structs are assigned member by member. Members of e that hold linked
// storage are written through and never removed. A member type conflict is
// reported as [ErrTypeMismatch] and leaves e unchanged.
func (e *Entry) CopyValue(src *Entry) error {
	if e == src {
		return nil
	}

	switch e.kind {
	case KindNumber:
		e.num = src.AsDouble()
	case KindString:
		e.str = src.AsString()
	case KindLinked:
		if e.link.Type() == TypeString {
			e.link.SetString(src.AsString())
		} else {
			e.link.SetFloat(src.AsDouble())
		}
	case KindStruct:
		if src.kind != KindStruct {
			return ErrTypeMismatch.Because(
				"cannot assign " + src.Type().String() + " to Struct '" + e.name + "'",
			)
		}

		return e.tree.assignScope(e.child, src.child)
	case KindArray:
		elems := make([]*Entry, len(src.elems))
		for i, el := range src.elems {
			elems[i] = el.Clone()
		}

		e.elems = elems
	case KindFunction:
		fn := *src.fn
		e.fn = &fn
	case KindPlaceholder:
	}

	return nil
}

// hasLinks reports whether e is, or is a struct holding, linked storage.
func (e *Entry) hasLinks() bool {
	switch e.kind {
	case KindLinked:
		return true
	case KindStruct:
		if c := e.tree.scope(e.child); c != nil {
			for _, m := range c.entries {
				if m.hasLinks() {
					return true
				}
			}
		}
	case KindPlaceholder, KindNumber, KindString, KindArray, KindFunction:
	}

	return false
}

// FormatNumber renders v in the shortest form that parses back to v.
func FormatNumber(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}

	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseNumber converts text to a number on a best-effort basis: leading and
// trailing whitespace is ignored, the longest numeric prefix is used, and
// text without any numeric prefix yields 0.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}

	end := numericPrefix(s)
	if end == 0 {
		return 0
	}

	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}

	return v
}

func numericPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}

	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
			digits++
		}

		i = j
	}

	if digits == 0 {
		return 0
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}

		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}

		if k > j {
			i = k
		}
	}

	return i
}
