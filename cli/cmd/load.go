package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ardnew/scfg/log"
)

// Load loads script files and writes the resulting configuration in canonical
// form.
type Load struct {
	Files    []string `arg:"" help:"Script file(s) to load, or '-' for stdin" name:"file" optional:""`
	Settings bool     `       help:"Write the configuration even when no file is loaded"      short:"s"`
	Set      []string `       help:"Assign NAME=VALUE after loading (VALUE is an expression)" short:"p" placeholder:"NAME=VALUE"`
}

// Run executes the load command.
func (l *Load) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	c, err := open(ctx, l.Files...)
	if err != nil {
		return err
	}

	if len(l.Set) > 0 {
		script, err := assignments(l.Set)
		if err != nil {
			return err
		}

		if err := c.Load(ctx, script); err != nil {
			return ErrLoadSource.With(slog.String("file", "<set>")).Wrap(err)
		}
	}

	if len(l.Files) == 0 && len(l.Set) == 0 && !l.Settings {
		log.DebugContext(ctx, "nothing loaded")

		return nil
	}

	return c.Tree().Dump(outputFrom(ctx))
}

// assignments converts NAME=VALUE pairs to a script of assignment statements.
func assignments(pairs []string) (string, error) {
	var sb strings.Builder

	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")

		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if !ok || name == "" || value == "" {
			return "", ErrInvalidSet.With(slog.String("arg", pair))
		}

		sb.WriteString(name)
		sb.WriteString(" = ")
		sb.WriteString(value)
		sb.WriteString(";\n")
	}

	return sb.String(), nil
}
