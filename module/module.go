// Package module defines host components that expose settings to scripts.
//
// A [Module] links its fields into a scope of the configuration tree before a
// script is loaded; the script then assigns them by name. Module types are
// registered by name in a [Registry] so that a host can instantiate them on
// demand.
package module

import (
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/ardnew/scfg/lang"
	"github.com/ardnew/scfg/pkg"
)

// Module is a configurable host component.
type Module interface {
	// Name is the instance name, used as the name of its scope.
	Name() string
	Description() string
	// SetupConfig links the module's settings into s.
	SetupConfig(s *lang.Scope) error
}

// Factory creates a module instance with the given name.
type Factory func(name string) Module

// Info describes a registered module type.
type Info struct {
	Type        string
	Description string

	factory Factory
}

// Registry maps module type names to factories. It is safe for concurrent
// use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Info
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Info)}
}

// Default is the process-wide registry that built-in modules add themselves
// to.
var Default = NewRegistry()

// Register adds a module type. Registering the same type twice is an error.
func (r *Registry) Register(typ, desc string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[typ]; ok {
		return pkg.ErrModuleExists.Wrapf("type %q", typ)
	}

	r.types[typ] = Info{Type: typ, Description: desc, factory: f}

	return nil
}

// MustRegister is like Register but panics on error. It is intended for
// package init functions.
func (r *Registry) MustRegister(typ, desc string, f Factory) {
	if err := r.Register(typ, desc, f); err != nil {
		panic(err)
	}
}

// New creates an instance of the module type typ named name. An empty name
// defaults to the type name.
func (r *Registry) New(typ, name string) (Module, error) {
	r.mu.RLock()
	info, ok := r.types[typ]
	r.mu.RUnlock()

	if !ok {
		return nil, pkg.ErrUnknownModule.Wrapf("type %q", typ)
	}

	if name == "" {
		name = typ
	}

	return info.factory(name), nil
}

// Lookup returns the registration of typ.
func (r *Registry) Lookup(typ string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.types[typ]

	return info, ok
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.types))
}

// LogValue implements slog.LogValuer.
func (i Info) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", i.Type),
		slog.String("description", i.Description),
	)
}
