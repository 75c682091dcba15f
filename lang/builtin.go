package lang

// This file defines the built-in functions installed into the global scope
// by [WithBuiltins]. Builtins are ordinary function entries flagged as
// builtin: scripts may shadow them, and they are left out of dumps and
// native conversions.

import (
	"bufio"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ardnew/mung"
)

type builtin struct {
	name  string
	desc  string
	arity int
	fn    NativeFunc
}

func (t *Tree) builtins() []builtin {
	env := t.opts.environ
	if env == nil {
		env = processEnv(os.Environ())
	}

	str := func(f func() string) NativeFunc {
		return func([]*Entry) (*Entry, error) { return NewString(f()), nil }
	}

	pred := func(f func(string) bool) NativeFunc {
		return func(args []*Entry) (*Entry, error) {
			if f(args[0].AsString()) {
				return NewNumber(1), nil
			}

			return NewNumber(0), nil
		}
	}

	return []builtin{
		{"env", "value of a process environment variable", 1,
			func(args []*Entry) (*Entry, error) {
				return NewString(env[args[0].AsString()]), nil
			}},
		{"os", "host operating system (Go naming)", 0,
			str(func() string { return getPlatform().OS })},
		{"arch", "host architecture (Go naming)", 0,
			str(func() string { return getPlatform().Arch })},
		{"target", "host target triple prefix (GCC naming)", 0,
			str(func() string { tg := getTarget(); return tg.Arch + "-" + tg.OS })},
		{"hostname", "host name", 0, str(getHostname)},
		{"shell", "login shell of the current user", 0, str(getShell)},
		{"cwd", "current working directory", 0, str(getCwd)},
		{"file_exists", "1 if the path exists", 1, pred(fileExists)},
		{"is_dir", "1 if the path is a directory", 1, pred(fileIsDir)},
		{"is_file", "1 if the path is a regular file", 1, pred(fileIsRegular)},
		{"is_symlink", "1 if the path is a symbolic link", 1, pred(fileIsSymlink)},
		{"path_abs", "absolute form of a path", 1,
			func(args []*Entry) (*Entry, error) {
				return NewString(pathAbs(args[0].AsString())), nil
			}},
		{"path_cat", "join path elements", -1,
			func(args []*Entry) (*Entry, error) {
				return NewString(pathCat(stringArgs(args)...)), nil
			}},
		{"path_rel", "path of the second argument relative to the first", 2,
			func(args []*Entry) (*Entry, error) {
				return NewString(pathRel(args[0].AsString(), args[1].AsString())), nil
			}},
		{"path_prefix", "prefix items onto a path list, removing duplicates", -1,
			func(args []*Entry) (*Entry, error) {
				if len(args) == 0 {
					return NewString(""), nil
				}

				s := stringArgs(args)

				return NewString(mungPrefix(s[0], s[1:]...)), nil
			}},
		{"path_prefix_dirs", "like path_prefix, keeping only existing directories", -1,
			func(args []*Entry) (*Entry, error) {
				if len(args) == 0 {
					return NewString(""), nil
				}

				s := stringArgs(args)

				return NewString(mungPrefixIf(s[0], fileIsDir, s[1:]...)), nil
			}},
	}
}

func (t *Tree) installBuiltins() {
	root := t.Root()

	for _, b := range t.builtins() {
		// A fresh tree has no entries, so attach cannot conflict.
		_, _ = LinkFunc(root, b.name, b.desc, b.arity, b.fn)
	}
}

func stringArgs(args []*Entry) []string {
	s := make([]string, len(args))
	for i, a := range args {
		s[i] = a.AsString()
	}

	return s
}

// ---------------------------------------------------------------------------
// System information helpers
// ---------------------------------------------------------------------------

// target contains string identifiers for a target operating system and
// instruction set architecture.
type target struct {
	OS   string
	Arch string
}

// getTarget returns the host target using GNU GCC/LLVM naming conventions.
func getTarget() target {
	t := getPlatform()

	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "mipsle":
		t.Arch = "mipsel"
	}

	return t
}

// getPlatform returns the host target using Go conventions.
func getPlatform() target {
	o, ok := os.LookupEnv("GOHOSTOS")
	if !ok {
		o = runtime.GOOS
	}

	a, ok := os.LookupEnv("GOHOSTARCH")
	if !ok {
		a = runtime.GOARCH
	}

	return target{OS: o, Arch: a}
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}

	return hostname
}

func getShell() string {
	if shell, ok := os.LookupEnv("SHELL"); ok {
		return shell
	}

	u, err := user.Current()
	if err != nil || u.Username == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}

	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		e := strings.Split(s.Text(), ":")
		if len(e) > 6 && e[0] == u.Username {
			return e[6]
		}
	}

	return ""
}

func getCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return cwd
}

// ---------------------------------------------------------------------------
// Filesystem and path helpers
// ---------------------------------------------------------------------------

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)

	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathCat(elem ...string) string {
	return filepath.Join(elem...)
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return pathCat(from, to)
	}

	return p
}

func mungPrefix(list string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

func mungPrefixIf(list string, predicate func(string) bool, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(predicate),
	).String()
}

// processEnv converts a "KEY=VALUE" list to a map.
func processEnv(environ []string) map[string]string {
	result := make(map[string]string, len(environ))

	for _, entry := range environ {
		if key, value, ok := strings.Cut(entry, "="); ok {
			result[key] = value
		}
	}

	return result
}
