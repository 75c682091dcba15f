package cmd

import (
	"context"

	"github.com/ardnew/scfg/cli/cmd/repl"
	"github.com/ardnew/scfg/log"
)

// Repl starts an interactive shell over the loaded configuration.
type Repl struct {
	Files []string `arg:"" help:"Script file(s) to load first" name:"file" optional:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	c, err := open(ctx, r.Files...)
	if err != nil {
		return err
	}

	cacheDir := ""
	if ktx := kongContextFrom(ctx); ktx != nil {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	return repl.Run(ctx, c.Tree(), cacheDir, log.Default())
}
