// Package cli contains the command line interface for scfg.
//
// # Usage
//
//	scfg [flags] [FILE...]              load files and write the configuration
//	scfg fmt native|json|yaml FILE...   reformat the configuration
//	scfg get PATH FILE...               print one entry
//	scfg query EXPR FILE...             evaluate an expr-lang expression
//	scfg repl [FILE...]                 interactive shell
//	scfg init                           write the flag defaults to a config file
//	scfg modules                        list module types
//
// Global flags shared by every command:
//
//   - -I, --include: script files loaded before command input
//   - -m, --module: instantiate a module as TYPE or TYPE:NAME
//   - --error-limit: stop loading after N errors; 0 reports all
//   - --[no-]builtins: install env, cwd, path_cat and the other host functions
//
// # Configuration Loader
//
// Flag defaults are read from the config file in the user configuration
// directory. The file is itself an scfg script; only the struct named
// "config" is consulted, with hyphens in flag names spelled as underscores:
//
//	config = {
//	  log_level = "debug";
//	  module = ["Settings"];
//	};
//
// A JSON file of the same name with a ".json" extension is also read.
// "scfg init" writes the current flag values in this form.
//
// # Logging Options
//
//   - --log-level: set minimum log level (trace, debug, info, warn, error)
//   - --log-format: set log output format (json, text)
//   - --log-time-layout: set timestamp format (none, RFC3339, kitchen, ...)
//   - --log-caller: include caller information in log output
//   - --log-pretty: colorize output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o scfg .
//
//   - --pprof-mode: enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: set profile output directory (default: ~/.cache/scfg/pprof)
package cli
