package repl

import (
	"context"
	"errors"
	"strings"

	"github.com/ardnew/scfg/lang"
	"github.com/ardnew/scfg/lang/lexer"
	"github.com/ardnew/scfg/lang/token"
)

// command is a REPL command, typed with a leading colon.
type command struct {
	name string
	help string
}

var commands = []command{
	{"dump", "Print the configuration in canonical form"},
	{"names", "List the names in the global scope"},
	{"clear", "Clear the screen"},
	{"help", "Print this help"},
	{"quit", "Exit the REPL"},
}

func commandNames() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.name
	}

	return names
}

func helpMessage() string {
	var b strings.Builder

	b.WriteString("\nCommands:\n\n")

	for _, c := range commands {
		b.WriteString("  :" + c.name + strings.Repeat(" ", 8-len(c.name)) + c.help + "\n")
	}

	b.WriteString(`
Usage:
  Type a statement (a = 1;  s = { x = 2; };) to change the configuration
  Type an expression (s.x + 1, k:size, n(1, 2)) to print its value
  Press Tab / Shift-Tab to cycle through completions
  Use Up/Down arrows for history navigation
  Press Ctrl+C on empty line or Ctrl+D to exit
`)

	return b.String()
}

// result is the outcome of one line of input.
type result struct {
	text  string
	err   error
	quit  bool
	clear bool
}

// execute runs one line of input against tree. Lines starting with a colon
// that name a command run that command; lines that contain an assignment or
// end with a semicolon are loaded as statements; anything else is evaluated
// as an expression and its value printed.
func execute(ctx context.Context, tree *lang.Tree, input string) result {
	if tree == nil {
		return result{err: ErrNoTree}
	}

	input = strings.TrimSpace(input)

	if name, ok := strings.CutPrefix(input, ":"); ok {
		switch name {
		case "dump":
			var b strings.Builder
			if err := tree.Dump(&b); err != nil {
				return result{err: err}
			}

			return result{text: strings.TrimRight(b.String(), "\n")}

		case "names":
			return result{text: strings.Join(tree.Root().Names(), " ")}

		case "clear":
			return result{clear: true}

		case "help":
			return result{text: helpMessage()}

		case "q", "quit", "exit":
			return result{quit: true}
		}
	}

	if isStatement(input) {
		src := input
		if !strings.HasSuffix(src, ";") && !strings.HasSuffix(src, "}") {
			src += ";"
		}

		if err := tree.Load(ctx, src); err != nil {
			return result{err: explain(err, src)}
		}

		return result{}
	}

	e, err := tree.Eval(ctx, input)
	if err != nil {
		return result{err: explain(err, input)}
	}

	if e.IsString() {
		return result{text: lang.Quote(e.AsString())}
	}

	return result{text: e.AsString()}
}

// isStatement reports whether input has an assignment at nesting depth zero
// or ends with a semicolon.
func isStatement(input string) bool {
	toks, err := lexer.Tokenize(input)
	if err != nil {
		return false
	}

	depth := 0

	for _, tok := range toks {
		if tok.Kind != token.Symbol {
			continue
		}

		switch tok.Lexeme {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case "=":
			if depth == 0 {
				return true
			}
		case ";":
			return true
		}
	}

	return false
}

// snippetError decorates a language error with the offending source line.
type snippetError struct {
	err  error
	text string
}

func (e snippetError) Error() string { return strings.TrimRight(e.text, "\n") }

func (e snippetError) Unwrap() error { return e.err }

func explain(err error, source string) error {
	var diags lang.Diagnostics
	if errors.As(err, &diags) {
		return snippetError{err: err, text: diags.Format(source)}
	}

	var le *lang.Error
	if errors.As(err, &le) {
		return snippetError{err: err, text: le.Error() + "\n" + le.Snippet(source)}
	}

	return err
}
