package lang

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestTree_Dump(t *testing.T) {
	tree := load(t, `b = 2; a = "x"; s = { z = [1, 2]; e = {}; }; f(x, y) = x + y;`)

	var buf bytes.Buffer
	if err := tree.Dump(&buf); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	want := `a = "x";
b = 2;
f(x, y) = x + y;
s = {
  e = {};
  z = [1, 2];
};
`

	if got := buf.String(); got != want {
		t.Errorf("Dump mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestTree_DumpComments(t *testing.T) {
	tree := New()

	var count int
	if _, err := LinkVar(tree.Root(), &count, "count", "number of things", 3); err != nil {
		t.Fatalf("LinkVar failed: %v", err)
	}

	if err := tree.Load(context.Background(), `count = 4; name = "x";`); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	var buf bytes.Buffer
	if err := tree.Dump(&buf); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	want := "// number of things (default: 3)\ncount = 4;\nname = \"x\";\n"
	if got := buf.String(); got != want {
		t.Errorf("Dump mismatch\ngot:\n%q\nwant:\n%q", got, want)
	}
}

func TestTree_DumpRoundTrip(t *testing.T) {
	tests := []string{
		`a = 1; b = "two"; c = 3.5;`,
		`s = "quote \" and \\ and \n newline";`,
		`k = [1, 2, 3]; n = [["a"], ["b", "c"]]; e = [];`,
		`d = { e = 3.5; f = "x"; g = {}; h = { i = [1]; }; };`,
		`neg = -2.5e-3; big = 1e21; c = 'x';`,
		`h(x) = x + 1; g() = "const";`,
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			first := load(t, src)

			var buf bytes.Buffer
			if err := first.Dump(&buf); err != nil {
				t.Fatalf("Dump failed: %v", err)
			}

			second := load(t, buf.String())

			if got, want := second.ToMap(), first.ToMap(); !reflect.DeepEqual(got, want) {
				t.Errorf("round trip mismatch\ndump:\n%s\ngot:  %v\nwant: %v",
					buf.String(), got, want)
			}
		})
	}
}

func TestTree_Format(t *testing.T) {
	tree := load(t, `a = 1; s = { b = [1, 2]; };`)

	tests := []struct {
		name   string
		format func(*bytes.Buffer) error
		want   string
	}{
		{
			"native inline",
			func(b *bytes.Buffer) error { return tree.Format(context.Background(), b, 0) },
			"a = 1; s = { b = [1, 2]; };\n",
		},
		{
			"json compact",
			func(b *bytes.Buffer) error { return tree.FormatJSON(context.Background(), b, 0) },
			`{"a":1,"s":{"b":[1,2]}}` + "\n",
		},
		{
			"json indented",
			func(b *bytes.Buffer) error { return tree.FormatJSON(context.Background(), b, 2) },
			"{\n  \"a\": 1,\n  \"s\": {\n    \"b\": [\n      1,\n      2\n    ]\n  }\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.format(&buf); err != nil {
				t.Fatalf("format failed: %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("got:\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := tree.FormatYAML(context.Background(), &buf, 2); err != nil {
			t.Fatalf("FormatYAML failed: %v", err)
		}

		out := buf.String()
		for _, want := range []string{"a: 1\n", "s:\n", "b:"} {
			if !strings.Contains(out, want) {
				t.Errorf("YAML output missing %q:\n%s", want, out)
			}
		}
	})
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{`a"b`, `"a\"b"`},
		{`a\b`, `"a\\b"`},
		{"a\nb\tc\r", `"a\nb\tc\r"`},
		{"nul\x00", `"nul\0"`},
		{"héllo", `"héllo"`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Quote(tt.in); got != tt.want {
				t.Errorf("Quote(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestEntry_ToNative(t *testing.T) {
	tree := load(t, `n = 2; f = 2.5; s = "x"; k = [1, 2]; st = { a = 1; }; fn(x) = x;`)

	want := map[string]any{
		"n":  int64(2),
		"f":  2.5,
		"s":  "x",
		"k":  []any{int64(1), int64(2)},
		"st": map[string]any{"a": int64(1)},
		"fn": "fn(x) = x",
	}

	if got := tree.ToMap(); !reflect.DeepEqual(got, want) {
		t.Errorf("ToMap = %#v, want %#v", got, want)
	}
}

func TestFromNative(t *testing.T) {
	tests := []struct {
		in   any
		want string
		typ  Type
	}{
		{42, "42", TypeNumber},
		{int64(-3), "-3", TypeNumber},
		{uint8(7), "7", TypeNumber},
		{1.5, "1.5", TypeNumber},
		{true, "1", TypeNumber},
		{"s", "s", TypeString},
		{[]any{1, 2}, "[1, 2]", TypeArray},
	}

	for _, tt := range tests {
		e, err := FromNative(tt.in)
		if err != nil {
			t.Errorf("FromNative(%v) failed: %v", tt.in, err)

			continue
		}

		if e.AsString() != tt.want || e.Type() != tt.typ {
			t.Errorf("FromNative(%v) = %v %q, want %v %q",
				tt.in, e.Type(), e.AsString(), tt.typ, tt.want)
		}
	}

	for _, bad := range []any{map[string]any{}, []any{1, "a"}, struct{}{}} {
		if _, err := FromNative(bad); err == nil {
			t.Errorf("FromNative(%#v) succeeded, want error", bad)
		}
	}
}

func TestTree_DumpIndexedMembers(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"space", `f = {}; f["a b"] = 1;`},
		{"leading digit", `f = {}; f["3"] = 2;`},
		{"dotted", `f = {}; f["a.b"] = 3;`},
		{"empty", `f = {}; f[""] = 4;`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, diags := loadErr(t, tt.src)
			if !errors.Is(diags, ErrInvalidMemberAccess) {
				t.Errorf("got %v, want InvalidMemberAccess", diags)
			}

			if s, _ := lookup(t, tree, "f").Struct(); s.Len() != 0 {
				t.Errorf("f has members %v, want none", s.Names())
			}
		})
	}

	first := load(t, `f = {}; f["ok_1"] = 1; v = f["ok_1"];`)

	var buf bytes.Buffer
	if err := first.Dump(&buf); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	second := load(t, buf.String())

	if got, want := second.ToMap(), first.ToMap(); !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch\ndump:\n%s\ngot:  %v\nwant: %v", buf.String(), got, want)
	}
}
