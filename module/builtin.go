package module

import (
	"errors"
	"math"

	"github.com/ardnew/scfg/lang"
)

func init() {
	Default.MustRegister("Settings", "General run settings", NewSettings)
	Default.MustRegister("Mutation", "Copy and insertion mutation rates", NewMutation)
}

// Settings holds general run options.
type Settings struct {
	name string

	Verbose    bool
	OutputDir  string
	MaxUpdates int
}

// NewSettings is the [Factory] of the "Settings" module type.
func NewSettings(name string) Module { return &Settings{name: name} }

func (s *Settings) Name() string        { return s.name }
func (s *Settings) Description() string { return "General run settings" }

func (s *Settings) SetupConfig(scope *lang.Scope) error {
	_, err1 := lang.LinkVar(scope, &s.Verbose, "verbose",
		"Print progress while running?", false)
	_, err2 := lang.LinkVar(scope, &s.OutputDir, "output_dir",
		"Directory for generated files", "output")
	_, err3 := lang.LinkVar(scope, &s.MaxUpdates, "max_updates",
		"Number of updates to run before stopping; 0 runs forever", 1000)

	return errors.Join(err1, err2, err3)
}

// Mutation holds per-site mutation probabilities.
type Mutation struct {
	name string

	CopyProb   float64
	InsertProb float64
}

// NewMutation is the [Factory] of the "Mutation" module type.
func NewMutation(name string) Module { return &Mutation{name: name} }

func (m *Mutation) Name() string        { return m.name }
func (m *Mutation) Description() string { return "Copy and insertion mutation rates" }

func (m *Mutation) SetupConfig(scope *lang.Scope) error {
	// A percentage view of copy_prob; writes are clamped to [0, 100]. Linked
	// first so that copy_prob seeds the exact default last.
	_, err1 := lang.LinkAccessors(scope,
		func() float64 { return m.CopyProb * 100 },
		func(v float64) { m.CopyProb = math.Min(math.Max(v, 0), 100) / 100 },
		"copy_percent", "copy_prob as a percentage", 0.1,
	)
	_, err2 := lang.LinkVar(scope, &m.CopyProb, "copy_prob",
		"Probability of a copy error per site", 0.001)
	_, err3 := lang.LinkVar(scope, &m.InsertProb, "insert_prob",
		"Probability of an insertion per site", 0.05)

	return errors.Join(err1, err2, err3)
}
