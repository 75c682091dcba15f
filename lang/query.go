package lang

import (
	"context"
	"log/slog"

	"github.com/expr-lang/expr"
)

// Query evaluates an expr-lang expression against the global scope. Every
// non-function entry is visible by name in its native form (see
// [Entry.ToNative]), and every function entry, builtins included, is
// callable.
//
//	tree.Query(ctx, `server.port + 1`)
//	tree.Query(ctx, `greet("world") + "!"`)
func (t *Tree) Query(ctx context.Context, source string) (any, error) {
	env := t.ToMap()
	opts := []expr.Option{expr.Env(env)}

	for e := range t.Root().Entries() {
		if !e.IsFunction() {
			continue
		}

		name := e.name
		delete(env, name)

		opts = append(opts, expr.Function(name, func(params ...any) (any, error) {
			args := make([]*Entry, len(params))

			for i, p := range params {
				a, err := FromNative(p)
				if err != nil {
					return nil, err
				}

				args[i] = a
			}

			out, err := t.Call(ctx, name, args...)
			if err != nil {
				return nil, err
			}

			return out.ToNative(), nil
		}))
	}

	program, err := expr.Compile(source, opts...)
	if err != nil {
		return nil, ErrExprCompile.Wrap(err).
			With(slog.String("source", source))
	}

	t.logger.TraceContext(ctx, "query",
		slog.String("source", source),
		slog.Int("env_size", len(env)),
	)

	out, err := expr.Run(program, env)
	if err != nil {
		return nil, ErrExprEvaluate.Wrap(err).
			With(slog.String("source", source))
	}

	return out, nil
}
