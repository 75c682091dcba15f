package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Query evaluates an expr-lang expression against the loaded configuration.
type Query struct {
	Expr  string   `arg:"" help:"Expression, e.g. 'server.port + 1' or 'len(tags) > 2'"`
	Files []string `arg:"" help:"Script file(s) to load, or '-' for stdin" name:"file" optional:""`
}

// Run executes the query command.
func (q *Query) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	c, err := open(ctx, q.Files...)
	if err != nil {
		return err
	}

	out, err := c.Tree().Query(ctx, q.Expr)
	if err != nil {
		return ErrQuery.With(slog.String("expr", q.Expr)).Wrap(err)
	}

	text, err := formatResult(out)
	if err != nil {
		return ErrQuery.With(slog.String("expr", q.Expr)).Wrap(err)
	}

	_, err = fmt.Fprintln(outputFrom(ctx), text)

	return err
}

// formatResult renders a query result: strings verbatim, everything else as
// compact JSON.
func formatResult(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	return string(b), nil
}
