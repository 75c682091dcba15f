// Package token defines the lexical tokens of the scfg configuration language.
package token

import (
	"strconv"
	"strings"
)

// Kind classifies a [Token].
type Kind int

const (
	EOF        Kind = iota // end of input
	Identifier             // identifier
	Number                 // number
	String                 // string
	Char                   // char
	DotRun                 // dots
	Symbol                 // symbol
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case Identifier:
		return "identifier"
	case Number:
		return "number"
	case String:
		return "string"
	case Char:
		return "char"
	case DotRun:
		return "dots"
	case Symbol:
		return "symbol"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Symbols lists every single-character symbol recognized by the lexer.
const Symbols = "=;{}()[],+-:@"

// Token is one lexical unit of a script.
//
// Lexeme holds the decoded value for String and Char tokens (quotes removed,
// escapes resolved) and the raw source text otherwise. Pos is the byte offset
// of the first character; Line and Column are 1-based.
type Token struct {
	Kind   Kind
	Lexeme string
	Pos    int
	Line   int
	Column int
}

// Is reports whether t is the symbol s.
func (t Token) Is(s string) bool {
	return t.Kind == Symbol && t.Lexeme == s
}

// Len returns the number of dots in a DotRun token, or 0 for any other kind.
func (t Token) Len() int {
	if t.Kind != DotRun {
		return 0
	}

	return len(t.Lexeme)
}

// String returns a short human-readable description of the token suitable
// for diagnostics.
func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return t.Kind.String()
	case String:
		return strconv.Quote(t.Lexeme)
	case Char:
		return strconv.QuoteRune([]rune(t.Lexeme)[0])
	default:
		var sb strings.Builder

		sb.WriteString(t.Kind.String())
		sb.WriteString(" ")
		sb.WriteString(strconv.Quote(t.Lexeme))

		return sb.String()
	}
}
