package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/scfg/lang"
)

// Fmt loads script files and writes the resulting configuration in the
// chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as native scfg syntax (default)."`
	JSON   JSON   `cmd:""                    help:"Format as JSON."`
	YAML   YAML   `cmd:""                    help:"Format as YAML."`
}

type formatFunc func(t *lang.Tree, ctx context.Context, w io.Writer, indent int) error

// format loads files and writes the tree with fn.
func format(ctx context.Context, name string, files []string, indent int, fn formatFunc) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	c, err := open(ctx, files...)
	if err != nil {
		return err
	}

	if err := fn(c.Tree(), ctx, outputFrom(ctx), indent); err != nil {
		return ErrFormat.With(slog.String("format", name)).Wrap(err)
	}

	return nil
}

// Native formats input as native scfg syntax.
type Native struct {
	Indent int `default:"2" help:"Indent width; 0 writes one line without comments" short:"i"`

	Files []string `arg:"" help:"Script file(s) to load, or '-' for stdin" name:"file" optional:""`
}

// Run executes the fmt native command.
func (f *Native) Run(ctx context.Context) error {
	return format(ctx, "native", f.Files, f.Indent, (*lang.Tree).Format)
}

// JSON formats input as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Files []string `arg:"" help:"Script file(s) to load, or '-' for stdin" name:"file" optional:""`
}

// Run executes the fmt json command.
func (j *JSON) Run(ctx context.Context) error {
	return format(ctx, "json", j.Files, j.Indent, (*lang.Tree).FormatJSON)
}

// YAML formats input as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Files []string `arg:"" help:"Script file(s) to load, or '-' for stdin" name:"file" optional:""`
}

// Run executes the fmt yaml command.
func (y *YAML) Run(ctx context.Context) error {
	return format(ctx, "yaml", y.Files, y.Indent, (*lang.Tree).FormatYAML)
}
