package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/scfg/host"
	"github.com/ardnew/scfg/lang"
)

// writeScript creates a script file in dir and returns its path.
func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

// testContext returns a context carrying s and a buffer receiving command
// output.
func testContext(s Session) (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer

	ctx := WithSession(context.Background(), s)

	return WithOutput(ctx, &buf), &buf
}

func TestUniqueSources(t *testing.T) {
	dir := t.TempDir()
	a := writeScript(t, dir, "a.cfg", "a = 1;")
	b := writeScript(t, dir, "b.cfg", "b = 2;")

	link := filepath.Join(dir, "link.cfg")
	if err := os.Symlink(a, link); err != nil {
		t.Fatal(err)
	}

	t.Chdir(dir)

	tests := []struct {
		name    string
		sources []string
		want    []string
	}{
		{"empty", nil, nil},
		{"single", []string{a}, []string{a}},
		{"ordered", []string{b, a}, []string{b, a}},
		{"duplicate paths", []string{a, a, a}, []string{a}},
		{"relative and absolute", []string{"a.cfg", a}, []string{"a.cfg"}},
		{"symlink", []string{a, link}, []string{a}},
		{"stdin last", []string{"-", a}, []string{a, "-"}},
		{"stdin collapsed", []string{"-", a, "-"}, []string{a, "-"}},
		{"missing kept", []string{"nope.cfg", "nope.cfg"}, []string{"nope.cfg", "nope.cfg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := uniqueSources(tt.sources); !slices.Equal(got, tt.want) {
				t.Errorf("uniqueSources(%v) = %v, want %v", tt.sources, got, tt.want)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	inc := writeScript(t, dir, "inc.cfg", "base = 10;")
	main := writeScript(t, dir, "main.cfg", "total = base + 5;")

	ctx, _ := testContext(Session{
		Include:    []string{inc},
		Modules:    []host.Spec{{Type: "Settings"}},
		ErrorLimit: 1,
	})

	c, err := open(ctx, main)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if e, ok := c.Tree().Lookup("total"); !ok || e.AsDouble() != 15 {
		t.Errorf("total = %v, %v", e, ok)
	}

	if _, ok := c.Tree().Lookup("modules.Settings.max_updates"); !ok {
		t.Error("session modules must be linked")
	}

	_, err = open(ctx, filepath.Join(dir, "missing.cfg"))
	if !errors.Is(err, ErrLoadSource) {
		t.Errorf("open(missing) = %v, want ErrLoadSource", err)
	}
}

func TestOpen_ErrorLimit(t *testing.T) {
	dir := t.TempDir()
	bad := writeScript(t, dir, "bad.cfg", "a = ;\nb = c;\n")

	tests := []struct {
		limit int
		want  int
	}{
		{1, 1},
		{0, 2},
	}

	for _, tt := range tests {
		ctx, _ := testContext(Session{ErrorLimit: tt.limit})

		_, err := open(ctx, bad)

		var diags lang.Diagnostics
		if !errors.As(err, &diags) || len(diags) != tt.want {
			t.Errorf("limit %d: got %v, want %d diagnostics", tt.limit, err, tt.want)
		}
	}
}

func TestAssignments(t *testing.T) {
	got, err := assignments([]string{"a=1", " s.x = \"v\" ", "n=a + 1"})
	if err != nil {
		t.Fatalf("assignments: %v", err)
	}

	if want := "a = 1;\ns.x = \"v\";\nn = a + 1;\n"; got != want {
		t.Errorf("assignments = %q, want %q", got, want)
	}

	for _, bad := range []string{"a", "=1", "a="} {
		if _, err := assignments([]string{bad}); !errors.Is(err, ErrInvalidSet) {
			t.Errorf("assignments(%q) = %v, want ErrInvalidSet", bad, err)
		}
	}
}

func TestLoadRun(t *testing.T) {
	dir := t.TempDir()
	file := writeScript(t, dir, "run.cfg", "random_seed = 9; s = { x = \"hi\"; };")

	tests := []struct {
		name string
		load Load
		want []string
		none bool
	}{
		{
			name: "file",
			load: Load{Files: []string{file}},
			want: []string{"(default: 0)", "random_seed = 9;", "s = {\n  x = \"hi\";\n};"},
		},
		{
			name: "settings only",
			load: Load{Settings: true},
			want: []string{"// Seed for random number generator", "random_seed = 0;"},
		},
		{
			name: "set after file",
			load: Load{Files: []string{file}, Set: []string{"s.x = s.x + \"!\"", "y=2"}},
			want: []string{"x = \"hi!\";", "y = 2;"},
		},
		{
			name: "nothing",
			none: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, out := testContext(Session{ErrorLimit: 1})

			if err := tt.load.Run(ctx); err != nil {
				t.Fatalf("Load.Run: %v", err)
			}

			if tt.none && out.Len() != 0 {
				t.Errorf("expected no output, got:\n%s", out)
			}

			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output is missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestLoadRun_Error(t *testing.T) {
	dir := t.TempDir()
	file := writeScript(t, dir, "bad.cfg", "a = 7; a = \"x\";")

	ctx, out := testContext(Session{ErrorLimit: 1})

	err := (&Load{Files: []string{file}}).Run(ctx)
	if !errors.Is(err, ErrLoadSource) || !errors.Is(err, lang.ErrTypeMismatch) {
		t.Errorf("Load.Run = %v, want a wrapped type mismatch", err)
	}

	if out.Len() != 0 {
		t.Errorf("a failed load must not write a configuration:\n%s", out)
	}
}

func TestGetRun(t *testing.T) {
	dir := t.TempDir()
	file := writeScript(t, dir, "get.cfg", "f = { b = 2; }; k = [4, 5]; s = \"text\";")

	tests := []struct {
		get     Get
		want    string
		wantErr error
	}{
		{Get{Path: "f.b"}, "2\n", nil},
		{Get{Path: "@k[1]"}, "5\n", nil},
		{Get{Path: "s"}, "text\n", nil},
		{Get{Path: "random_seed", Describe: true}, "# Seed for random number generator; use 0 to base on time.\n# default: 0\n0\n", nil},
		{Get{Path: "f.nope"}, "", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.get.Path, func(t *testing.T) {
			ctx, out := testContext(Session{ErrorLimit: 1})

			tt.get.Files = []string{file}

			err := tt.get.Run(ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Get.Run = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Get.Run: %v", err)
			}

			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestQueryRun(t *testing.T) {
	dir := t.TempDir()
	file := writeScript(t, dir, "q.cfg", `server = { port = 8080; host = "localhost"; }; tags = ["a", "b"]; add(x, y) = x + y;`)

	tests := []struct {
		expr    string
		want    string
		wantErr bool
	}{
		{"server.port + 1", "8081\n", false},
		{"server.host", "localhost\n", false},
		{"len(tags)", "2\n", false},
		{"add(1, 2)", "3\n", false},
		{"tags", "[\"a\",\"b\"]\n", false},
		{"server.port +", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			ctx, out := testContext(Session{ErrorLimit: 1})

			err := (&Query{Expr: tt.expr, Files: []string{file}}).Run(ctx)
			if tt.wantErr {
				if !errors.Is(err, ErrQuery) {
					t.Errorf("Query.Run = %v, want ErrQuery", err)
				}

				return
			}

			if err != nil {
				t.Fatalf("Query.Run: %v", err)
			}

			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestModulesRun(t *testing.T) {
	ctx, out := testContext(Session{})

	if err := (&Modules{Settings: true}).Run(ctx); err != nil {
		t.Fatalf("Modules.Run: %v", err)
	}

	for _, want := range []string{"Mutation", "Settings", "max_updates", "copy_prob"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
}

func TestError(t *testing.T) {
	cause := errors.New("boom")
	err := ErrWriteConfig.Wrap(cause)

	if got, want := err.Error(), "write configuration file: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if !errors.Is(err, ErrWriteConfig) || !errors.Is(err, cause) {
		t.Error("wrapped error must match its sentinel and its cause")
	}

	if errors.Is(err, ErrFileExists) {
		t.Error("wrapped error must not match an unrelated sentinel")
	}

	if errors.Is(ErrWriteConfig, err) {
		t.Error("a sentinel must not match a wrapped error")
	}
}
