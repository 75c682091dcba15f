package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/scfg/lang"
	"github.com/ardnew/scfg/log"
	"github.com/ardnew/scfg/profile"
)

// Init generates a configuration file holding the current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	if _, err := os.Stat(confPath); err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	tree, err := i.buildTree(ctx, ktx)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	file, err := os.Create(confPath)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}
	defer file.Close()

	if err := tree.Dump(file); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// buildTree loads a tree holding one struct named [ConfigIdentifier] with an
// entry per visible flag. Each entry carries the flag's help text as its
// description and the flag's default.
func (i *Init) buildTree(ctx context.Context, ktx *kong.Context) (*lang.Tree, error) {
	tree := lang.New()

	s, err := tree.Root().AddScope(ConfigIdentifier, "Default flag values")
	if err != nil {
		return nil, err
	}

	ignore := []string{"help", "version", profile.Tag}

	var body strings.Builder

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(ignore, func(p string) bool {
			return strings.HasPrefix(flag.Name, p)
		}) {
			continue
		}

		lit, ok := literal(ktx.FlagValue(flag))
		if !ok {
			continue
		}

		name := strings.ReplaceAll(flag.Name, "-", "_")

		if _, err := s.Reserve(name, flag.Help, flag.Default); err != nil {
			return nil, err
		}

		fmt.Fprintf(&body, "%s = %s; ", name, lit)
	}

	script := ConfigIdentifier + " = { " + body.String() + "};"
	if err := tree.Load(ctx, script); err != nil {
		return nil, err
	}

	return tree, nil
}

// literal renders a flag value as a script literal. Booleans become 1 or 0.
// Empty strings and empty lists have no literal.
func literal(v any) (string, bool) {
	if v == nil {
		return "", false
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return "1", true
		}

		return "0", true

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true

	case reflect.Float32, reflect.Float64:
		return lang.FormatNumber(rv.Float()), true

	case reflect.String:
		if rv.Len() == 0 {
			return "", false
		}

		return lang.Quote(rv.String()), true

	case reflect.Slice:
		if rv.Len() == 0 {
			return "", false
		}

		elems := make([]string, 0, rv.Len())

		for k := range rv.Len() {
			lit, ok := literal(rv.Index(k).Interface())
			if !ok {
				return "", false
			}

			elems = append(elems, lit)
		}

		return "[" + strings.Join(elems, ", ") + "]", true

	default:
		return lang.Quote(fmt.Sprint(v)), true
	}
}
