package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/scfg/cli/cmd"
	"github.com/ardnew/scfg/host"
	"github.com/ardnew/scfg/lang"
	"github.com/ardnew/scfg/pkg"
)

// CLI is the top-level command-line interface for scfg.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version and exit" short:"v"`

	Include    []string `help:"Script file(s) loaded before any command input" short:"I" type:"path"`
	Module     []string `help:"Instantiate a module as TYPE or TYPE:NAME"     short:"m" placeholder:"TYPE[:NAME]"`
	ErrorLimit int      `help:"Stop loading after N errors; 0 reports all"                default:"${errorLimit}"`
	Builtins   bool     `help:"Install built-in host functions (env, cwd, path_cat, ...)" default:"true"       negatable:""`

	Load    cmd.Load    `cmd:"" default:"withargs" help:"Load script files and write the configuration"`
	Fmt     cmd.Fmt     `cmd:""                    help:"Format the configuration"`
	Get     cmd.Get     `cmd:""                    help:"Print one entry"`
	Query   cmd.Query   `cmd:""                    help:"Evaluate an expression against the configuration"`
	Repl    cmd.Repl    `cmd:""                    help:"Start an interactive shell"`
	Init    cmd.Init    `cmd:""                    help:"Initialize configuration file"`
	Modules cmd.Modules `cmd:""                    help:"List module types"`
}

// Run executes the scfg CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"errorLimit":         strconv.Itoa(lang.DefaultErrorLimit),
		"version":            pkg.Version,
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags so that the logger is configured before kong
	// reports any parse error.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFilePath+".json"),
		kong.Configuration(resolve(ctx, baseConfig), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSession(ctx, cli.session())

	// Finalize logger configuration with all parsed values, including those
	// that have no TextUnmarshaler side effect.
	cli.Log.start(ctx)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}

// session collects the global options shared by every command.
func (c *CLI) session() cmd.Session {
	return cmd.Session{
		Include:    c.Include,
		Modules:    parseModules(c.Module),
		ErrorLimit: c.ErrorLimit,
		Builtins:   c.Builtins,
	}
}

// parseModules converts "TYPE" and "TYPE:NAME" arguments to module specs.
func parseModules(args []string) []host.Spec {
	specs := make([]host.Spec, 0, len(args))

	for _, arg := range args {
		typ, name, _ := strings.Cut(arg, ":")
		specs = append(specs, host.Spec{
			Type: strings.TrimSpace(typ),
			Name: strings.TrimSpace(name),
		})
	}

	return specs
}
