package lang

import "github.com/ardnew/scfg/log"

// DefaultErrorLimit is the number of diagnostics after which a load stops.
const DefaultErrorLimit = 1

// DefaultMaxCallDepth bounds nested function calls.
const DefaultMaxCallDepth = 64

// Option configures a [Tree].
type Option func(*Tree)

type options struct {
	errorLimit   int
	maxCallDepth int
	builtins     bool
	environ      map[string]string
}

func applyDefaults(t *Tree) {
	t.opts.errorLimit = DefaultErrorLimit
	t.opts.maxCallDepth = DefaultMaxCallDepth
}

// WithLogger sets the diagnostics sink. The zero [log.Logger] is silent.
func WithLogger(logger log.Logger) Option {
	return func(t *Tree) {
		t.logger = logger
	}
}

// WithErrorLimit sets how many diagnostics a load may collect before it
// stops. After each diagnostic below the limit, processing resumes at the
// next statement. Values below 1 mean no limit.
func WithErrorLimit(n int) Option {
	return func(t *Tree) {
		t.opts.errorLimit = n
	}
}

// WithMaxCallDepth sets the maximum depth of nested function calls.
func WithMaxCallDepth(n int) Option {
	return func(t *Tree) {
		if n > 0 {
			t.opts.maxCallDepth = n
		}
	}
}

// WithBuiltins installs the built-in host functions (env, cwd, path_cat and
// friends) into the global scope.
func WithBuiltins() Option {
	return func(t *Tree) {
		t.opts.builtins = true
	}
}

// WithEnviron sets the "KEY=VALUE" list read by the env builtin in place of
// the process environment.
func WithEnviron(environ []string) Option {
	return func(t *Tree) {
		t.opts.environ = processEnv(environ)
	}
}
