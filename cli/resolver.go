package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/scfg/lang"
	"github.com/ardnew/scfg/log"
)

// resolve returns a [kong.ConfigurationLoader] that reads configuration files
// written in the scfg language itself.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve(ctx, "config"), "/path/to/config")
//
// Only the struct named name is consulted:
//
//	config = {
//	  log_level = "debug";
//	  log_pretty = 0;
//	  module = ["Settings", "Mutation:mut"];
//	};
//
// Flag names with hyphens are spelled with underscores. Numbers are passed to
// kong as text; arrays feed repeatable flags. Command-line flags override
// values from the file.
//
// A file that fails to load yields an empty configuration and a warning, so a
// broken config file never prevents the CLI from starting.
func resolve(ctx context.Context, name string) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		tree := lang.New()

		if err := tree.LoadReader(ctx, r); err != nil {
			log.WarnContext(ctx, "ignoring configuration file",
				slog.Any("error", err),
			)

			return config{}, nil
		}

		e, ok := tree.Lookup(name)
		if !ok {
			return config{}, nil
		}

		s, ok := e.Struct()
		if !ok {
			return config{}, nil
		}

		return makeConfig(s.ToMap()), nil
	}
}

// config implements [kong.Resolver] for scfg configuration structs.
type config map[string]any

func makeConfig(m map[string]any) config {
	c := make(config, len(m))

	for key, val := range m {
		c[key] = flagValue(val)
	}

	return c
}

// flagValue converts a native tree value to a form kong can decode.
func flagValue(v any) any {
	switch v := v.(type) {
	case int64:
		return strconv.FormatInt(v, 10)

	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)

	case []any:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = flagValue(x)
		}

		return out

	default:
		return v
	}
}

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	if value, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}
