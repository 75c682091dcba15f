// Package host assembles a configuration tree for a run: it links the
// controller's own settings into the global scope, instantiates the requested
// modules under the "modules" scope, and then loads scripts into the tree.
package host

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/scfg/lang"
	"github.com/ardnew/scfg/log"
	"github.com/ardnew/scfg/module"
	"github.com/ardnew/scfg/pkg"
)

// ModulesScope is the name of the global struct holding one scope per module
// instance.
const ModulesScope = "modules"

// Spec requests one module instance.
type Spec struct {
	Type string
	Name string // defaults to Type
}

// Controller owns a configuration tree and the modules linked into it.
type Controller struct {
	tree     *lang.Tree
	logger   log.Logger
	registry *module.Registry
	specs    []Spec
	langOpts []lang.Option
	modules  []module.Module

	// RandomSeed is linked to the global "random_seed" entry.
	RandomSeed int
}

// Option configures a [Controller].
type Option func(*Controller)

// WithLogger sets the logger shared by the controller and its tree.
func WithLogger(l log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithRegistry sets the registry modules are created from. The default is
// [module.Default].
func WithRegistry(r *module.Registry) Option {
	return func(c *Controller) { c.registry = r }
}

// WithModules requests module instances.
func WithModules(specs ...Spec) Option {
	return func(c *Controller) { c.specs = append(c.specs, specs...) }
}

// WithLangOptions passes options through to [lang.New].
func WithLangOptions(opts ...lang.Option) Option {
	return func(c *Controller) { c.langOpts = append(c.langOpts, opts...) }
}

// New creates a controller and links every setting, so the returned tree
// already holds all defaults before any script is loaded.
func New(opts ...Option) (*Controller, error) {
	c := &Controller{registry: module.Default}

	for _, opt := range opts {
		opt(c)
	}

	c.tree = lang.New(append([]lang.Option{lang.WithLogger(c.logger)}, c.langOpts...)...)

	if err := c.setupConfig(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Controller) setupConfig() error {
	root := c.tree.Root()

	_, err := lang.LinkVar(root, &c.RandomSeed, "random_seed",
		"Seed for random number generator; use 0 to base on time.", 0)
	if err != nil {
		return err
	}

	if len(c.specs) == 0 {
		return nil
	}

	scope, err := root.AddScope(ModulesScope, "Modules configured for this run.")
	if err != nil {
		return err
	}

	for _, spec := range c.specs {
		m, err := c.registry.New(spec.Type, spec.Name)
		if err != nil {
			return err
		}

		if _, exists := scope.Lookup(m.Name(), false); exists {
			return pkg.ErrModuleExists.Wrapf("instance %q", m.Name())
		}

		sub, err := scope.AddScope(m.Name(), m.Description())
		if err != nil {
			return err
		}

		if err := m.SetupConfig(sub); err != nil {
			return pkg.ErrModuleSetup.Wrapf("module %q", m.Name()).Wrap(err)
		}

		c.logger.Debug("module linked",
			slog.String("type", spec.Type),
			slog.String("name", m.Name()),
			slog.Int("settings", sub.Len()),
		)

		c.modules = append(c.modules, m)
	}

	return nil
}

// Tree returns the configuration tree.
func (c *Controller) Tree() *lang.Tree { return c.tree }

// Modules returns the module instances in the order they were requested.
func (c *Controller) Modules() []module.Module { return c.modules }

// Load runs script text against the tree.
func (c *Controller) Load(ctx context.Context, text string) error {
	return c.tree.Load(ctx, text)
}

// LoadFile locates name with [pkg.Find] and loads its contents. It returns
// the path that was read.
func (c *Controller) LoadFile(ctx context.Context, name string) (string, error) {
	path, ok := pkg.Find(name)
	if !ok {
		return path, pkg.ErrSourceNotFound.Wrapf("%s", name)
	}

	f, err := os.Open(path)
	if err != nil {
		return path, pkg.ErrReadSource.Wrap(err)
	}
	defer f.Close()

	c.logger.DebugContext(ctx, "load", slog.String("path", path))

	return path, c.tree.LoadReader(ctx, f)
}
