package lang

import (
	"context"
	"errors"
	"slices"
	"testing"
)

// load builds a tree from src and fails the test on any diagnostic or leaked
// temporary.
func load(t *testing.T, src string, opts ...Option) *Tree {
	t.Helper()

	tree := New(opts...)
	if err := tree.Load(context.Background(), src); err != nil {
		t.Fatalf("Load(%q) failed: %v", src, err)
	}

	if n := tree.Temporaries(); n != 0 {
		t.Fatalf("Load(%q) leaked %d temporaries", src, n)
	}

	return tree
}

// loadErr loads src and returns the diagnostics it produced.
func loadErr(t *testing.T, src string, opts ...Option) (*Tree, Diagnostics) {
	t.Helper()

	tree := New(opts...)

	err := tree.Load(context.Background(), src)
	if err == nil {
		t.Fatalf("Load(%q) succeeded, expected an error", src)
	}

	var diags Diagnostics
	if !errors.As(err, &diags) {
		t.Fatalf("Load(%q) returned %T, expected Diagnostics", src, err)
	}

	if n := tree.Temporaries(); n != 0 {
		t.Fatalf("Load(%q) leaked %d temporaries", src, n)
	}

	return tree, diags
}

func lookup(t *testing.T, tree *Tree, path string) *Entry {
	t.Helper()

	e, ok := tree.Lookup(path)
	if !ok {
		t.Fatalf("Lookup(%q) not found", path)
	}

	return e
}

func TestLoad_Values(t *testing.T) {
	tests := []struct {
		name string
		src  string
		path string
		want string
		typ  Type
	}{
		{"number", `a = 42;`, "a", "42", TypeNumber},
		{"decimal", `a = 3.25;`, "a", "3.25", TypeNumber},
		{"string", `a = "hi";`, "a", "hi", TypeString},
		{"char is numeric", `a = 'A';`, "a", "65", TypeNumber},
		{"negative", `a = -5 + 2;`, "a", "-3", TypeNumber},
		{"numeric add", `a = 1 + 2 + 3;`, "a", "6", TypeNumber},
		{"string concat", `a = "x" + "y";`, "a", "xy", TypeString},
		{"number then string", `a = 123 + "abc";`, "a", "123abc", TypeString},
		{"parenthesized", `a = 1 + (2 + 3);`, "a", "6", TypeNumber},
		{"reference copy", `a = 1; b = a;`, "b", "1", TypeNumber},
		{"empty statements", `;; a = 1;;`, "a", "1", TypeNumber},
		{"comments", "# c\na = 1; // c\n/* c */", "a", "1", TypeNumber},
		{"full path", `a = 1; f = { a = 2; b = @a; };`, "f.b", "1", TypeNumber},
		{"outward search", `a = 1; f = { g = { b = a; }; };`, "f.g.b", "1", TypeNumber},
		{"escape", `a = "a\tb";`, "a", "a\tb", TypeString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := load(t, tt.src)
			e := lookup(t, tree, tt.path)

			if got := e.AsString(); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.path, got, tt.want)
			}

			if got := e.Type(); got != tt.typ {
				t.Errorf("%s type = %v, want %v", tt.path, got, tt.typ)
			}
		})
	}
}

func TestLoad_Shadowing(t *testing.T) {
	tree := load(t, `a = 1; f = { a = 2; b = .a; c = ..a; };`)

	if got := lookup(t, tree, "f.b").AsDouble(); got != 2 {
		t.Errorf("f.b = %v, want 2", got)
	}

	if got := lookup(t, tree, "f.c").AsDouble(); got != 1 {
		t.Errorf("f.c = %v, want 1", got)
	}

	if got := lookup(t, tree, "a").AsDouble(); got != 1 {
		t.Errorf("a = %v, want 1 (inner assignment must shadow)", got)
	}
}

func TestLoad_LeadingDots(t *testing.T) {
	const src = `v = 0; a = { v = 1; b = { v = 2; p = ..v; q = ...v; r = .v; }; };`

	tree := load(t, src)

	for path, want := range map[string]float64{
		"a.b.p": 1,
		"a.b.q": 0,
		"a.b.r": 2,
	} {
		if got := lookup(t, tree, path).AsDouble(); got != want {
			t.Errorf("%s = %v, want %v", path, got, want)
		}
	}

	_, diags := loadErr(t, `v = 0; a = { b = { q = ....v; }; };`)
	if !errors.Is(diags, ErrScopeUnderflow) {
		t.Fatalf("expected ScopeUnderflow, got %v", diags)
	}

	if got := diags[0].Position().Column; got != 24 {
		t.Errorf("underflow column = %d, want 24", got)
	}
}

func TestLoad_PlaceholderPromotion(t *testing.T) {
	tree := New()

	if _, err := tree.Root().Reserve("speed", "movement speed", "5"); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	if err := tree.Load(context.Background(), `speed = 7;`); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	e := lookup(t, tree, "speed")
	if e.AsDouble() != 7 {
		t.Errorf("speed = %v, want 7", e.AsDouble())
	}

	if e.Description() != "movement speed" {
		t.Errorf("description = %q, want %q", e.Description(), "movement speed")
	}

	if def, ok := e.Default(); !ok || def != "5" {
		t.Errorf("default = %q, %v; want \"5\", true", def, ok)
	}
}

func TestLoad_NoDanglingPlaceholder(t *testing.T) {
	tree, diags := loadErr(t, `y = missing; z = y; w = 1;`, WithErrorLimit(0))

	if len(diags) != 2 {
		t.Fatalf("got %d diagnostics, want 2: %v", len(diags), diags)
	}

	for i, d := range diags {
		if !errors.Is(d, ErrUndefinedReference) {
			t.Errorf("diagnostic %d = %v, want UndefinedReference", i, d)
		}
	}

	for _, name := range []string{"y", "z"} {
		if _, ok := tree.Lookup(name); ok {
			t.Errorf("%s should not exist after a failed assignment", name)
		}

		if _, ok := tree.Root().entries[name]; ok {
			t.Errorf("%s left a placeholder behind", name)
		}
	}

	if got := lookup(t, tree, "w").AsDouble(); got != 1 {
		t.Errorf("w = %v, want 1", got)
	}
}

func TestLoad_TypeMismatch(t *testing.T) {
	tree, diags := loadErr(t, `a = 7; a = "x";`)

	if !errors.Is(diags, ErrTypeMismatch) {
		t.Fatalf("expected TypeMismatch, got %v", diags)
	}

	// Blamed on the statement start, not the offending value.
	if pos := diags[0].Position(); pos.Line != 1 || pos.Column != 8 {
		t.Errorf("position = %v, want 1:8", pos)
	}

	if got := lookup(t, tree, "a").AsDouble(); got != 7 {
		t.Errorf("a = %v, want 7 (must not be mutated)", got)
	}
}

func TestLoad_MixedAdd(t *testing.T) {
	_, diags := loadErr(t, `s = "abc" + 123;`)

	if !errors.Is(diags, ErrTypeMismatch) {
		t.Fatalf("expected TypeMismatch, got %v", diags)
	}

	if got := diags[0].Position().Column; got != 11 {
		t.Errorf("column = %d, want 11 (the '+')", got)
	}

	tree := load(t, `s = 123 + "abc";`)
	if e := lookup(t, tree, "s"); !e.IsString() || e.AsString() != "123abc" {
		t.Errorf("s = %v %q, want String \"123abc\"", e.Type(), e.AsString())
	}
}

func TestLoad_Arrays(t *testing.T) {
	tree := load(t, `k = [1, 2, 3]; n = k:size; e = k[1]; m = [[1], [2, 3]];`)

	if got := lookup(t, tree, "n").AsDouble(); got != 3 {
		t.Errorf("k:size = %v, want 3", got)
	}

	if got := lookup(t, tree, "e").AsDouble(); got != 2 {
		t.Errorf("k[1] = %v, want 2", got)
	}

	if got := lookup(t, tree, "k[0]").AsDouble(); got != 1 {
		t.Errorf("Lookup(k[0]) = %v, want 1", got)
	}

	if got := lookup(t, tree, "m").AsString(); got != "[[1], [2, 3]]" {
		t.Errorf("m = %s, want [[1], [2, 3]]", got)
	}

	tests := []struct {
		name string
		src  string
		want *Error
	}{
		{"mixed elements", `k = [1, "a"];`, ErrTypeMismatch},
		{"struct element", `s = {}; k = [s];`, ErrTypeMismatch},
		{"out of range", `k = [1]; x = k[1];`, ErrIndexOutOfRange},
		{"negative index", `k = [1]; x = k[-1];`, ErrIndexOutOfRange},
		{"fractional index", `k = [1, 2]; x = k[0.5];`, ErrIndexOutOfRange},
		{"string index", `k = [1]; x = k["a"];`, ErrTypeMismatch},
		{"index a number", `k = 1; x = k[0];`, ErrInvalidMemberAccess},
		{"unterminated", `k = [1, 2;`, ErrUnexpectedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := loadErr(t, tt.src)
			if !errors.Is(diags, tt.want) {
				t.Errorf("got %v, want %v", diags, tt.want)
			}
		})
	}
}

func TestLoad_ArrayElementAssignment(t *testing.T) {
	tree := load(t, `k = [1, 2, 3]; k[2] = 9;`)

	if got := lookup(t, tree, "k").AsString(); got != "[1, 2, 9]" {
		t.Errorf("k = %s, want [1, 2, 9]", got)
	}
}

func TestLoad_Names(t *testing.T) {
	tree := load(t, `top = 0; f = { z = 1; a = 2; g = { inner = 1; }; }; n = f:names;`)

	var got []string
	for _, el := range lookup(t, tree, "n").Elements() {
		got = append(got, el.AsString())
	}

	want := []string{"a", "g", "z"}
	if !slices.Equal(got, want) {
		t.Errorf("f:names = %v, want %v", got, want)
	}
}

func TestLoad_Accessors(t *testing.T) {
	const prelude = `f = { a = 1; b = 2; }; k = [1, 2]; s = "héllo"; `

	tests := []struct {
		expr string
		want string
	}{
		{"s:size", "5"},
		{"k:size", "2"},
		{"f:size", "2"},
		{"3:type", "Number"},
		{"s:type", "String"},
		{"f:type", "Struct"},
		{"k:type", "Array"},
		{`"42abc":value`, "42"},
		{`"abc":value`, "0"},
		{"12:string + \"!\"", "12!"},
		{"f:is_struct", "1"},
		{"k:is_array", "1"},
		{"s:is_string", "1"},
		{"s:is_value", "0"},
		{"k:size:string", "2"},
		{"f:names:size", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			tree := load(t, prelude+"x = "+tt.expr+";")

			if got := lookup(t, tree, "x").AsString(); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}

	for _, src := range []string{`x = 5:names;`, `x = 5:bogus;`, `x = 5:size;`} {
		t.Run(src, func(t *testing.T) {
			_, diags := loadErr(t, src)
			if !errors.Is(diags, ErrInvalidAccessor) {
				t.Errorf("got %v, want InvalidAccessor", diags)
			}
		})
	}
}

func TestLoad_ScopeViews(t *testing.T) {
	tree := load(t, `a = 1; s = { x = 1; here = :size; up = ..:size; root = @:names; };`)

	// Unassigned names are placeholders, which are never counted.
	if got := lookup(t, tree, "s.here").AsDouble(); got != 1 {
		t.Errorf("s.here = %v, want 1", got)
	}

	if got := lookup(t, tree, "s.up").AsDouble(); got != 2 {
		t.Errorf("s.up = %v, want 2", got)
	}

	if got := lookup(t, tree, "s.root").AsString(); got != `["a", "s"]` {
		t.Errorf("s.root = %s, want [\"a\", \"s\"]", got)
	}
}

func TestLoad_Structs(t *testing.T) {
	t.Run("merge on reassign", func(t *testing.T) {
		tree := load(t, `a = { x = 1; }; a = { y = 2; };`)

		if lookup(t, tree, "a.x").AsDouble() != 1 || lookup(t, tree, "a.y").AsDouble() != 2 {
			t.Error("reopening a struct must keep existing members")
		}
	})

	t.Run("copy does not alias", func(t *testing.T) {
		tree := load(t, `a = { x = 1; }; b = a; b.x = 5;`)

		if got := lookup(t, tree, "a.x").AsDouble(); got != 1 {
			t.Errorf("a.x = %v, want 1", got)
		}

		if got := lookup(t, tree, "b.x").AsDouble(); got != 5 {
			t.Errorf("b.x = %v, want 5", got)
		}
	})

	t.Run("struct assignment replaces", func(t *testing.T) {
		tree := load(t, `a = { x = 1; }; b = { y = 2; }; a = b;`)

		if _, ok := tree.Lookup("a.x"); ok {
			t.Error("a.x should be gone after a = b")
		}

		if got := lookup(t, tree, "a.y").AsDouble(); got != 2 {
			t.Errorf("a.y = %v, want 2", got)
		}

		s, _ := lookup(t, tree, "a").Struct()
		if got := s.Path(); got != "a" {
			t.Errorf("a path = %q, want %q", got, "a")
		}
	})

	t.Run("string index creates member", func(t *testing.T) {
		tree := load(t, `s = {}; s["k"] = 3; v = s["k"];`)

		if got := lookup(t, tree, "s.k").AsDouble(); got != 3 {
			t.Errorf("s.k = %v, want 3", got)
		}

		if got := lookup(t, tree, "v").AsDouble(); got != 3 {
			t.Errorf("v = %v, want 3", got)
		}
	})

	t.Run("member of number", func(t *testing.T) {
		_, diags := loadErr(t, `a = 1; b = a.x;`)
		if !errors.Is(diags, ErrInvalidMemberAccess) {
			t.Errorf("got %v, want InvalidMemberAccess", diags)
		}
	})

	t.Run("member of undefined", func(t *testing.T) {
		tree, diags := loadErr(t, `x.y = 1;`)
		if !errors.Is(diags, ErrUndefinedReference) {
			t.Errorf("got %v, want UndefinedReference", diags)
		}

		if _, ok := tree.Root().entries["x"]; ok {
			t.Error("x left a placeholder behind")
		}
	})

	t.Run("struct into number", func(t *testing.T) {
		_, diags := loadErr(t, `a = 1; a = { b = 2; };`)
		if !errors.Is(diags, ErrTypeMismatch) {
			t.Errorf("got %v, want TypeMismatch", diags)
		}
	})
}

func TestLoad_Functions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		path string
		want string
	}{
		{"call", `double(x) = x + x; y = double(21);`, "y", "42"},
		{"no params", `pi() = 3.14; y = pi();`, "y", "3.14"},
		{"closure", `base = 10; s = { add(x) = x + base; r = add(5); };`, "s.r", "15"},
		{"nested call", `inc(x) = x + 1; twice(x) = inc(inc(x)); y = twice(1);`, "y", "3"},
		{"redefine", `f(x) = x; f(x) = x + 1; y = f(1);`, "y", "2"},
		{"late binding", `f() = v; v = 3; y = f();`, "y", "3"},
		{"string args", `greet(n) = "hi " + n; y = greet("bob");`, "y", "hi bob"},
		{"args are copies", `f(x) = x; a = { v = 1; }; y = f(a):size;`, "y", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := load(t, tt.src)

			if got := lookup(t, tree, tt.path).AsString(); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.path, got, tt.want)
			}
		})
	}

	errs := []struct {
		name string
		src  string
		want *Error
	}{
		{"arity", `f(x) = x; y = f(1, 2);`, ErrArgumentCountMismatch},
		{"recursion", `f(x) = f(x); y = f(1);`, ErrMaxDepthExceeded},
		{"undefined", `y = g(1);`, ErrUndefinedReference},
		{"not a function", `g = 1; y = g(1);`, ErrTypeMismatch},
		{"function into number", `n = 1; n(x) = x;`, ErrTypeMismatch},
		{"number into function", `f(x) = x; f = 1;`, ErrTypeMismatch},
		{"duplicate param", `f(x, x) = x;`, ErrRedeclaration},
		{"body error", `f(x) = x + nope; y = f(1);`, ErrUndefinedReference},
		{"unterminated body", `f(x) = x`, ErrUnexpectedToken},
	}

	for _, tt := range errs {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := loadErr(t, tt.src, WithMaxCallDepth(8))
			if !errors.Is(diags, tt.want) {
				t.Errorf("got %v, want %v", diags, tt.want)
			}
		})
	}
}

func TestLoad_Recovery(t *testing.T) {
	tree, diags := loadErr(t, `a = ; b = 2; c = undefined; d = 4;`, WithErrorLimit(0))

	if len(diags) != 2 {
		t.Fatalf("got %d diagnostics, want 2: %v", len(diags), diags)
	}

	if !errors.Is(diags[0], ErrUnexpectedToken) {
		t.Errorf("diagnostic 0 = %v, want UnexpectedToken", diags[0])
	}

	if !errors.Is(diags[1], ErrUndefinedReference) {
		t.Errorf("diagnostic 1 = %v, want UndefinedReference", diags[1])
	}

	for path, want := range map[string]float64{"b": 2, "d": 4} {
		if got := lookup(t, tree, path).AsDouble(); got != want {
			t.Errorf("%s = %v, want %v", path, got, want)
		}
	}

	t.Run("nested", func(t *testing.T) {
		tree, diags := loadErr(t, `s = { x = ; y = 1; }; z = 2;`, WithErrorLimit(0))

		if len(diags) != 1 {
			t.Fatalf("got %d diagnostics, want 1: %v", len(diags), diags)
		}

		if lookup(t, tree, "s.y").AsDouble() != 1 || lookup(t, tree, "z").AsDouble() != 2 {
			t.Error("statements after a nested error must still run")
		}
	})

	t.Run("limit", func(t *testing.T) {
		_, diags := loadErr(t, `a = x; b = y; c = z;`, WithErrorLimit(2))
		if len(diags) != 2 {
			t.Errorf("got %d diagnostics, want 2", len(diags))
		}
	})

	t.Run("first error stops by default", func(t *testing.T) {
		tree, diags := loadErr(t, `a = x; b = 1;`)
		if len(diags) != 1 {
			t.Errorf("got %d diagnostics, want 1", len(diags))
		}

		if _, ok := tree.Lookup("b"); ok {
			t.Error("b must not be assigned after the first error")
		}
	})

	t.Run("unterminated struct", func(t *testing.T) {
		_, diags := loadErr(t, `s = { x = 1;`, WithErrorLimit(0))
		if len(diags) != 1 || !errors.Is(diags[0], ErrUnexpectedToken) {
			t.Errorf("got %v, want one UnexpectedToken", diags)
		}
	})
}

func TestLoad_Lexical(t *testing.T) {
	_, diags := loadErr(t, "a = 1;\nb = \"open;")

	if !errors.Is(diags, ErrLexical) {
		t.Fatalf("got %v, want LexicalError", diags)
	}

	if pos := diags[0].Position(); pos.Line != 2 || pos.Column != 5 {
		t.Errorf("position = %v, want 2:5", pos)
	}
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tree := New()

	err := tree.Load(ctx, `a = 1;`)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}

	if _, ok := tree.Lookup("a"); ok {
		t.Error("no statement should run after cancellation")
	}
}

func TestLoad_Incremental(t *testing.T) {
	tree := load(t, `a = 1;`)

	if err := tree.Load(context.Background(), `a = a + 1; b = a;`); err != nil {
		t.Fatalf("second Load failed: %v", err)
	}

	if got := lookup(t, tree, "b").AsDouble(); got != 2 {
		t.Errorf("b = %v, want 2", got)
	}
}

func TestTree_Lookup(t *testing.T) {
	tree := load(t, `a = 1; f = { b = { c = "x"; }; }; k = [4, 5];`)

	tests := []struct {
		path string
		ok   bool
	}{
		{"a", true},
		{"@a", true},
		{"f.b.c", true},
		{"@f.b.c", true},
		{"k[1]", true},
		{"missing", false},
		{"f.missing", false},
		{"a.b", false},
		{"f b", false},
		{"k[9]", false},
		{`"unterminated`, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if _, ok := tree.Lookup(tt.path); ok != tt.ok {
				t.Errorf("Lookup(%q) ok = %v, want %v", tt.path, ok, tt.ok)
			}
		})
	}

	if tree.Temporaries() != 0 {
		t.Errorf("Lookup leaked %d temporaries", tree.Temporaries())
	}
}

func TestTree_Eval(t *testing.T) {
	tree := load(t, `k = [1, 2, 3]; s = { a = 1; };`)

	tests := []struct {
		src  string
		want string
	}{
		{"k:size + 1", "4"},
		{"s", "{ a = 1; }"},
		{`2 + "=n"`, "2=n"},
		{"s:names", `["a"]`},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v, err := tree.Eval(context.Background(), tt.src)
			if err != nil {
				t.Fatalf("Eval failed: %v", err)
			}

			if got := v.AsString(); got != tt.want {
				t.Errorf("Eval(%q) = %q, want %q", tt.src, got, tt.want)
			}

			if v.IsTemporary() {
				t.Error("Eval result must be detached")
			}
		})
	}

	if _, err := tree.Eval(context.Background(), "1 2"); !errors.Is(err, ErrUnexpectedToken) {
		t.Errorf("Eval(\"1 2\") = %v, want UnexpectedToken", err)
	}

	if tree.Temporaries() != 0 {
		t.Errorf("Eval leaked %d temporaries", tree.Temporaries())
	}
}

func TestTree_Call(t *testing.T) {
	tree := load(t, `double(x) = x + x;`)

	v, err := tree.Call(context.Background(), "double", NewNumber(4))
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	if v.AsDouble() != 8 {
		t.Errorf("double(4) = %v, want 8", v.AsDouble())
	}

	if _, err := tree.Call(context.Background(), "missing"); !errors.Is(err, ErrUndefinedReference) {
		t.Errorf("Call(missing) = %v, want UndefinedReference", err)
	}
}

func TestTree_Builtins(t *testing.T) {
	src := `h = env("HOME"); p = path_cat(h, "bin", "tool"); n = missing_var:size;`

	tree, diags := loadErr(t, src,
		WithBuiltins(),
		WithEnviron([]string{"HOME=/home/user"}),
	)

	if !errors.Is(diags, ErrUndefinedReference) {
		t.Fatalf("got %v, want UndefinedReference for missing_var", diags)
	}

	if got := lookup(t, tree, "p").AsString(); got != "/home/user/bin/tool" {
		t.Errorf("p = %q, want /home/user/bin/tool", got)
	}

	if _, ok := tree.ToMap()["env"]; ok {
		t.Error("builtins must not appear in ToMap")
	}

	// Scripts may shadow builtins with their own functions.
	tree = load(t, `env(x) = "shadowed"; v = env("HOME");`, WithBuiltins())
	if got := lookup(t, tree, "v").AsString(); got != "shadowed" {
		t.Errorf("v = %q, want shadowed", got)
	}
}

func TestLoad_StructAssignmentOverlap(t *testing.T) {
	t.Run("from member", func(t *testing.T) {
		tree := load(t, `a = { b = { c = 1; }; }; a = a.b;`)

		if got := lookup(t, tree, "a.c").AsDouble(); got != 1 {
			t.Errorf("a.c = %v, want 1", got)
		}

		if _, ok := tree.Lookup("a.b"); ok {
			t.Error("a.b should be gone after a = a.b")
		}
	})

	t.Run("into member", func(t *testing.T) {
		tree := load(t, `x = { y = { z = 2; }; }; x.y = x;`)

		if got := lookup(t, tree, "x.y.y.z").AsDouble(); got != 2 {
			t.Errorf("x.y.y.z = %v, want 2", got)
		}

		if _, ok := tree.Lookup("x.y.z"); ok {
			t.Error("x.y.z should be gone after x.y = x")
		}
	})

	t.Run("nested type conflict", func(t *testing.T) {
		tree, diags := loadErr(t, `a = { s = { v = 1; }; w = 1; }; b = { s = { v = "x"; }; }; a = b;`)
		if !errors.Is(diags, ErrTypeMismatch) {
			t.Errorf("got %v, want TypeMismatch", diags)
		}

		if got := lookup(t, tree, "a.s.v").AsDouble(); got != 1 {
			t.Errorf("a.s.v = %v, want 1", got)
		}

		if _, ok := tree.Lookup("a.w"); !ok {
			t.Error("a rejected assignment must not drop members")
		}
	})
}

func TestLoad_FunctionCapture(t *testing.T) {
	t.Run("copy keeps defining scope", func(t *testing.T) {
		tree := load(t, `w = { a = { k = 1; get() = k; }; }; fn = w.a.get; k = 2; y = fn();`)

		if got := lookup(t, tree, "y").AsDouble(); got != 1 {
			t.Errorf("y = %v, want 1", got)
		}
	})

	t.Run("defining scope released", func(t *testing.T) {
		tree, diags := loadErr(t,
			`w = { a = { k = 1; get() = k; }; };
			fn = w.a.get;
			e = {};
			w = e;
			c = { k = "other"; };
			y = fn();`)

		if !errors.Is(diags, ErrUndefinedReference) {
			t.Errorf("got %v, want UndefinedReference", diags)
		}

		if _, ok := tree.Lookup("y"); ok {
			t.Error("y should not be defined")
		}

		if got := lookup(t, tree, "c.k").AsString(); got != "other" {
			t.Errorf("c.k = %q, want other", got)
		}
	})
}

func TestTree_ScopeHandles(t *testing.T) {
	tree := New()

	old := tree.newScope(tree.root, "old", "")
	oldID := old.id
	tree.release(oldID)

	if s := tree.scope(oldID); s != nil {
		t.Fatalf("released handle resolves to %q", s.name)
	}

	reused := tree.newScope(tree.root, "new", "")

	if reused.id.slot() != oldID.slot() {
		t.Fatalf("slot %d was not reused (got %d)", oldID.slot(), reused.id.slot())
	}

	if s := tree.scope(oldID); s != nil {
		t.Errorf("stale handle resolves to %q after reuse", s.name)
	}

	if s := tree.scope(reused.id); s != reused {
		t.Errorf("scope(%d) = %v, want the new scope", reused.id, s)
	}
}

func TestLoad_NumberOverflow(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want *Error
	}{
		{"sum", `a = 1e308 + 1e308;`, ErrTypeMismatch},
		{"negative sum", `a = -1e308 + -1e308;`, ErrTypeMismatch},
		{"literal", `a = 1e400;`, ErrLexical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, diags := loadErr(t, tt.src)
			if !errors.Is(diags, tt.want) {
				t.Errorf("got %v, want %v", diags, tt.want)
			}

			if _, ok := tree.Lookup("a"); ok {
				t.Error("a should not be defined")
			}
		})
	}

	tree := load(t, `a = 1e308 + 1;`)
	if got := lookup(t, tree, "a").AsDouble(); got != 1e308 {
		t.Errorf("a = %v, want 1e308", got)
	}
}
