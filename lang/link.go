package lang

import (
	"log/slog"
	"reflect"
	"strconv"
)

// Linkable is the set of native types a host can bind into a scope.
type Linkable interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~bool | ~string
}

// Link proxies reads and writes of a linked entry to host-owned storage.
type Link interface {
	// Type is TypeString for textual storage and TypeNumber otherwise.
	Type() Type
	Float() float64
	String() string
	SetFloat(v float64)
	SetString(s string)
}

type accessorLink[T Linkable] struct {
	get func() T
	set func(T)
}

func (l accessorLink[T]) Type() Type {
	var zero T
	if reflect.TypeOf(zero).Kind() == reflect.String {
		return TypeString
	}

	return TypeNumber
}

func (l accessorLink[T]) Float() float64 { return nativeFloat(l.get()) }

func (l accessorLink[T]) String() string { return nativeString(l.get()) }

func (l accessorLink[T]) SetFloat(v float64) {
	if l.set != nil {
		l.set(fromFloat[T](v))
	}
}

func (l accessorLink[T]) SetString(s string) {
	if l.set != nil {
		l.set(fromString[T](s))
	}
}

// LinkVar binds host storage at ptr to a new entry named name in s. The
// storage is immediately seeded with def, which is also recorded as the
// entry's default. Script assignments to the entry write through to *ptr.
func LinkVar[T Linkable](
	s *Scope,
	ptr *T,
	name, desc string,
	def T,
) (*Entry, error) {
	return LinkAccessors(s,
		func() T { return *ptr },
		func(v T) { *ptr = v },
		name, desc, def,
	)
}

// LinkAccessors binds a computed property to a new entry named name in s.
// The setter is called once with def to seed it; a nil setter makes the
// entry read-only from the script's point of view (assignments are
// accepted and discarded).
func LinkAccessors[T Linkable](
	s *Scope,
	get func() T,
	set func(T),
	name, desc string,
	def T,
) (*Entry, error) {
	link := accessorLink[T]{get: get, set: set}

	if set != nil {
		set(def)
	}

	e := s.tree.newEntry(KindLinked)
	e.link = link
	e.name = name
	e.desc = desc
	e.def = nativeString(def)
	e.hasDf = true

	if err := s.attach(e); err != nil {
		return nil, err
	}

	s.tree.logger.Trace("link",
		slog.String("scope", s.Path()),
		slog.String("name", name),
		slog.String("type", link.Type().String()),
		slog.String("default", e.def),
	)

	return e, nil
}

// LinkFunc binds a host function to a new builtin function entry named name
// in s. A negative arity accepts any number of arguments.
func LinkFunc(
	s *Scope,
	name, desc string,
	arity int,
	fn NativeFunc,
) (*Entry, error) {
	e := s.tree.newEntry(KindFunction)
	e.name = name
	e.desc = desc
	e.fn = &Function{native: fn, scope: s.id}

	if arity < 0 {
		e.fn.variadic = true
	} else {
		e.fn.Params = make([]string, arity)
		for i := range e.fn.Params {
			e.fn.Params[i] = "arg" + strconv.Itoa(i)
		}
	}

	e.SetBuiltin(true)

	if err := s.attach(e); err != nil {
		return nil, err
	}

	return e, nil
}

func nativeFloat[T Linkable](v T) float64 {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		if rv.Bool() {
			return 1
		}

		return 0
	case reflect.String:
		return ParseNumber(rv.String())
	default:
		return 0
	}
}

func nativeString[T Linkable](v T) string {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String()
	}

	return FormatNumber(nativeFloat(v))
}

func fromFloat[T Linkable](f float64) T {
	var out T

	rv := reflect.ValueOf(&out).Elem()

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		rv.SetInt(int64(f))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if f > 0 {
			rv.SetUint(uint64(f))
		}
	case reflect.Float32, reflect.Float64:
		rv.SetFloat(f)
	case reflect.Bool:
		rv.SetBool(f != 0)
	case reflect.String:
		rv.SetString(FormatNumber(f))
	default:
	}

	return out
}

func fromString[T Linkable](s string) T {
	var out T

	rv := reflect.ValueOf(&out).Elem()
	if rv.Kind() == reflect.String {
		rv.SetString(s)

		return out
	}

	return fromFloat[T](ParseNumber(s))
}
