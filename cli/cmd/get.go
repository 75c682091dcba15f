package cmd

import (
	"context"
	"fmt"
	"log/slog"
)

// Get prints the value of one entry.
type Get struct {
	Path  string   `arg:"" help:"Dotted path of the entry, e.g. server.port or @k[1]"`
	Files []string `arg:"" help:"Script file(s) to load, or '-' for stdin" name:"file" optional:""`

	Describe bool `help:"Print the description and default before the value" short:"d"`
}

// Run executes the get command.
func (g *Get) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	c, err := open(ctx, g.Files...)
	if err != nil {
		return err
	}

	e, ok := c.Tree().Lookup(g.Path)
	if !ok {
		return ErrNotFound.With(slog.String("path", g.Path))
	}

	w := outputFrom(ctx)

	if g.Describe {
		if desc := e.Description(); desc != "" {
			fmt.Fprintln(w, "#", desc)
		}

		if def, ok := e.Default(); ok {
			fmt.Fprintln(w, "# default:", def)
		}
	}

	_, err = fmt.Fprintln(w, e.AsString())

	return err
}
