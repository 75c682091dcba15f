// Package cmd implements the scfg subcommands. Each command builds a
// configuration tree through a [host.Controller] configured by the [Session]
// stored in its context, loads its input scripts, and writes a result to the
// output stored with [WithOutput].
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file.
	ConfigIdentifier = "config"
)
