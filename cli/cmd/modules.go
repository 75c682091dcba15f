package cmd

import (
	"context"
	"fmt"

	"github.com/ardnew/scfg/lang"
	"github.com/ardnew/scfg/module"
)

// Modules lists the registered module types.
type Modules struct {
	Settings bool `help:"Also list each type's settings with their defaults" short:"s"`
}

// Run executes the modules command.
func (m *Modules) Run(ctx context.Context) error {
	w := outputFrom(ctx)

	for _, typ := range module.Default.Names() {
		info, _ := module.Default.Lookup(typ)

		if _, err := fmt.Fprintf(w, "%-12s %s\n", info.Type, info.Description); err != nil {
			return err
		}

		if !m.Settings {
			continue
		}

		if err := m.writeSettings(ctx, typ); err != nil {
			return err
		}
	}

	return nil
}

// writeSettings instantiates typ in an empty tree and writes its scope.
func (m *Modules) writeSettings(ctx context.Context, typ string) error {
	inst, err := module.Default.New(typ, "")
	if err != nil {
		return err
	}

	s, err := lang.New().Root().AddScope(inst.Name(), inst.Description())
	if err != nil {
		return err
	}

	if err := inst.SetupConfig(s); err != nil {
		return err
	}

	for e := range s.Entries() {
		def, _ := e.Default()

		if _, err := fmt.Fprintf(outputFrom(ctx), "  %-16s %-8s %s\n", e.Name(), def, e.Description()); err != nil {
			return err
		}
	}

	return nil
}
