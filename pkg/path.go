package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ardnew/mung"
)

// PathEnv names the environment variable holding extra directories, in
// [os.PathListSeparator]-delimited form, that are searched for script files.
const PathEnv = "SCFG_PATH"

// Prefix returns the base prefix string used to construct the path to the
// configuration directory.
//
// By default, Prefix is the base name of the executable file unless it matches
// one of the following substitution rules:
//   - "__debug_bin" (default output of the dlv debugger): replaced with Name
//   - "^\.+" (dot-prefixed names): remove the dot prefix
//
//nolint:gochecknoglobals
var Prefix = sync.OnceValue(
	func() string {
		id := os.Args[0]
		if exe, err := os.Executable(); err == nil {
			id = exe
		}

		id = strings.TrimSuffix(filepath.Base(id), filepath.Ext(id))

		for _, sub := range []struct {
			rex *regexp.Regexp
			rep string
		}{
			{regexp.MustCompile(`^__debug_bin\d*$`), Name},
			{regexp.MustCompile(`^\.+`), ""},
		} {
			id = sub.rex.ReplaceAllString(id, sub.rep)
		}

		if id == "" || strings.HasSuffix(id, ".test") {
			return Name
		}

		return id
	},
)

// userDir returns base(), falling back to $HOME/fallback and then to the
// working directory, joined with [Prefix].
func userDir(base func() (string, error), fallback string) string {
	dir, err := base()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, fallback)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, Prefix())
}

// ConfigDir returns the configuration directory path.
//
//nolint:gochecknoglobals
var ConfigDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config")
})

// CacheDir returns the cache directory path used for transient files such
// as REPL history and profiles.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache")
})

// SearchPath returns the directories searched for script files, in order:
// the working directory, each existing directory listed in $SCFG_PATH, and
// the configuration directory. Duplicates are removed.
func SearchPath() []string {
	list := mung.Make(
		mung.WithSubjectItems(os.Getenv(PathEnv)),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems("."),
		mung.WithFilter(isDir),
	).String()

	var dirs []string

	seen := make(map[string]bool)

	for _, dir := range append(filepath.SplitList(list), ConfigDir()) {
		if dir == "" {
			continue
		}

		abs, err := filepath.Abs(dir)
		if err != nil || seen[abs] {
			continue
		}

		seen[abs] = true
		dirs = append(dirs, dir)
	}

	return dirs
}

// Find resolves name to a readable script file. Absolute names and names
// containing a path separator are used as given; bare names are looked up in
// each directory of [SearchPath]. The second result is false when no file
// was found.
func Find(name string) (string, bool) {
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return name, isFile(name)
	}

	for _, dir := range SearchPath() {
		if path := filepath.Join(dir, name); isFile(path) {
			return path, true
		}
	}

	return name, false
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}
