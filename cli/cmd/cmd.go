package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/scfg/host"
	"github.com/ardnew/scfg/lang"
	"github.com/ardnew/scfg/log"
	"github.com/ardnew/scfg/pkg"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type (
	sessionKey struct{}
	outputKey  struct{}
)

// Session holds the options shared by every command that builds a
// configuration tree.
type Session struct {
	// Include lists scripts loaded before any command input.
	Include []string
	// Modules are instantiated under the "modules" scope before loading.
	Modules []host.Spec
	// ErrorLimit is passed to [lang.WithErrorLimit].
	ErrorLimit int
	// Builtins installs the built-in host functions.
	Builtins bool
}

// WithSession returns a new context.Context carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func sessionFrom(ctx context.Context) Session {
	s, ok := ctx.Value(sessionKey{}).(Session)
	if !ok {
		return Session{ErrorLimit: lang.DefaultErrorLimit}
	}

	return s
}

// WithOutput returns a new context.Context whose commands write their results
// to w instead of os.Stdout.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stdout
}

// open builds a controller for the session in ctx and loads the session's
// include files followed by files.
func open(ctx context.Context, files ...string) (*host.Controller, error) {
	s := sessionFrom(ctx)

	langOpts := []lang.Option{lang.WithErrorLimit(s.ErrorLimit)}
	if s.Builtins {
		langOpts = append(langOpts, lang.WithBuiltins())
	}

	c, err := host.New(
		host.WithLogger(log.Default()),
		host.WithModules(s.Modules...),
		host.WithLangOptions(langOpts...),
	)
	if err != nil {
		return nil, err
	}

	for _, src := range uniqueSources(append(s.Include, files...)) {
		if err := loadSource(ctx, c, src); err != nil {
			return c, err
		}
	}

	return c, nil
}

func loadSource(ctx context.Context, c *host.Controller, src string) error {
	if src == stdinSource {
		if err := c.Tree().LoadReader(ctx, os.Stdin); err != nil {
			return ErrLoadSource.With(slog.String("file", "<stdin>")).Wrap(err)
		}

		return nil
	}

	path, err := c.LoadFile(ctx, src)
	if err != nil {
		return ErrLoadSource.With(slog.String("file", path)).Wrap(err)
	}

	return nil
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// uniqueSources returns sources with duplicate files removed, keeping the
// first occurrence of each. Names are resolved with [pkg.Find]; names that
// cannot be resolved are kept so that loading reports them. All occurrences
// of "-" collapse into a single stdin source placed last, so it reads after
// all regular files.
func uniqueSources(sources []string) []string {
	var (
		out      []string
		hasStdin bool
	)

	seen := make(map[fileKey]struct{})

	for _, src := range sources {
		if src == stdinSource {
			hasStdin = true

			continue
		}

		key, ok := resolveFileKey(src)
		if ok {
			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
		}

		out = append(out, src)
	}

	if hasStdin {
		out = append(out, stdinSource)
	}

	return out
}

// resolveFileKey locates name, resolves symlinks, and returns the identity
// of the file it names.
func resolveFileKey(name string) (fileKey, bool) {
	path, ok := pkg.Find(name)
	if !ok {
		return fileKey{}, false
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return fileKey{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, false
	}

	return makeFileKey(info)
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}
