package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// DefaultIndent is the indent width used by [Tree.Dump].
const DefaultIndent = 2

// Dump writes the global scope in canonical script form. Entries are sorted
// by name and descriptions are written as comments, so the output can be
// loaded back into an equivalent tree.
func (t *Tree) Dump(w io.Writer) error {
	return t.Format(context.Background(), w, DefaultIndent)
}

// Format writes the global scope in native script syntax. An indent of 0
// writes everything on one line and omits comments.
func (t *Tree) Format(_ context.Context, w io.Writer, indent int) error {
	if err := formatScope(t.Root(), w, indent, 0); err != nil {
		return err
	}

	// Final newline
	_, err := fmt.Fprintln(w)

	return err
}

// FormatJSON writes the global scope as a JSON object.
func (t *Tree) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(t, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(t)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the global scope as a YAML mapping.
func (t *Tree) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, t.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// formatScope writes every entry of s as a statement.
func formatScope(s *Scope, w io.Writer, indent, depth int) error {
	count := 0

	for e := range s.Entries() {
		if indent == 0 && e.IsBuiltin() {
			continue
		}

		if count > 0 {
			sep := " "
			if indent > 0 {
				sep = "\n"
			}

			if _, err := fmt.Fprint(w, sep); err != nil {
				return err
			}
		}

		if err := formatEntry(e, w, indent, depth); err != nil {
			return err
		}

		count++
	}

	return nil
}

// formatEntry writes e as one statement, preceded by its description when
// indenting.
func formatEntry(e *Entry, w io.Writer, indent, depth int) error {
	pad := strings.Repeat(" ", depth*indent)

	if indent > 0 {
		if err := formatComment(e, w, pad); err != nil {
			return err
		}
	}

	if fn, ok := e.Function(); ok {
		if fn.IsNative() {
			_, err := fmt.Fprint(w, pad, "// builtin ", formatSignature(e.name, fn))

			return err
		}

		_, err := fmt.Fprint(w, pad, formatSignature(e.name, fn), " = ", fn.source, ";")

		return err
	}

	if _, err := fmt.Fprint(w, pad, e.name, " = "); err != nil {
		return err
	}

	if err := formatValue(e, w, indent, depth); err != nil {
		return err
	}

	_, err := fmt.Fprint(w, ";")

	return err
}

func formatComment(e *Entry, w io.Writer, pad string) error {
	text := e.desc

	if def, ok := e.Default(); ok && def != "" && !e.IsStruct() && def != e.AsString() {
		if text != "" {
			text += " "
		}

		text += "(default: " + def + ")"
	}

	if text == "" {
		return nil
	}

	for line := range strings.Lines(text) {
		line = strings.TrimRight(line, "\r\n")
		if _, err := fmt.Fprint(w, pad, "// ", line, "\n"); err != nil {
			return err
		}
	}

	return nil
}

// formatValue writes the value of e in literal form.
func formatValue(e *Entry, w io.Writer, indent, depth int) error {
	switch e.Type() {
	case TypeNumber:
		_, err := fmt.Fprint(w, FormatNumber(e.AsDouble()))

		return err

	case TypeString:
		_, err := fmt.Fprint(w, Quote(e.AsString()))

		return err

	case TypeArray:
		return formatArray(e, w)

	case TypeStruct:
		s, ok := e.Struct()
		if !ok {
			_, err := fmt.Fprint(w, "{}")

			return err
		}

		return formatStruct(s, w, indent, depth)

	case TypeFunction:
		_, err := fmt.Fprint(w, e.AsString())

		return err

	case TypePlaceholder:
		return nil

	default:
		_, err := fmt.Fprint(w, "<unknown>")

		return err
	}
}

// formatStruct writes the body of s enclosed in braces.
func formatStruct(s *Scope, w io.Writer, indent, depth int) error {
	if s.Len() == 0 {
		_, err := fmt.Fprint(w, "{}")

		return err
	}

	begin, end := "{ ", " }"
	if indent > 0 {
		begin, end = "{\n", "\n"+strings.Repeat(" ", depth*indent)+"}"
	}

	if _, err := fmt.Fprint(w, begin); err != nil {
		return err
	}

	if err := formatScope(s, w, indent, depth+1); err != nil {
		return err
	}

	_, err := fmt.Fprint(w, end)

	return err
}

// formatArray writes the elements of e inline.
func formatArray(e *Entry, w io.Writer) error {
	if _, err := fmt.Fprint(w, "["); err != nil {
		return err
	}

	for i, el := range e.elems {
		if i > 0 {
			if _, err := fmt.Fprint(w, ", "); err != nil {
				return err
			}
		}

		if err := formatValue(el, w, 0, 0); err != nil {
			return err
		}
	}

	_, err := fmt.Fprint(w, "]")

	return err
}

// formatSignature returns "name(a, b)", or "name(...)" for variadic
// builtins.
func formatSignature(name string, fn *Function) string {
	if fn == nil {
		return name + "()"
	}

	if fn.variadic {
		return name + "(...)"
	}

	return name + "(" + strings.Join(fn.Params, ", ") + ")"
}

// Quote returns s as a double-quoted string literal that the lexer decodes
// back to s.
func Quote(s string) string {
	var sb strings.Builder

	sb.Grow(len(s) + 2)
	sb.WriteByte('"')

	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\0`)
		default:
			sb.WriteRune(r)
		}
	}

	sb.WriteByte('"')

	return sb.String()
}
