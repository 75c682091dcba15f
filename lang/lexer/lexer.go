// Package lexer converts scfg script text into a flat sequence of tokens.
//
// Tokenize is a pure function: the same input always yields the same tokens.
// Whitespace and comments (`//` and `#` to end of line, `/* ... */` blocks)
// are discarded. The returned slice always ends with a single [token.EOF].
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/ardnew/scfg/lang/token"
)

// Tokenize splits text into tokens.
func Tokenize(text string) ([]token.Token, error) {
	l := &lexer{input: text, line: 1, col: 1}

	var toks []token.Token

	for {
		l.skipWhitespaceAndComments()

		if l.err != nil {
			return nil, l.err
		}

		if l.eof() {
			toks = append(toks, l.emit(token.EOF, l.pos, ""))

			return toks, nil
		}

		tok, err := l.next()
		if err != nil {
			return nil, err
		}

		toks = append(toks, tok)
	}
}

type lexer struct {
	input string
	pos   int
	line  int
	col   int
	err   error

	// start of the token being scanned
	startLine int
	startCol  int
}

func (l *lexer) next() (token.Token, error) {
	start := l.pos
	l.startLine, l.startCol = l.line, l.col

	ch := l.peek()

	switch {
	case isIdentifierStart(ch):
		for !l.eof() && isIdentifierContinue(l.peek()) {
			l.advance()
		}

		return l.emit(token.Identifier, start, l.input[start:l.pos]), nil

	case isDigit(ch):
		l.scanNumber()

		return l.emit(token.Number, start, l.input[start:l.pos]), nil

	case ch == '.':
		for !l.eof() && l.peek() == '.' {
			l.advance()
		}

		return l.emit(token.DotRun, start, l.input[start:l.pos]), nil

	case ch == '"':
		text, err := l.scanQuoted('"')
		if err != nil {
			return token.Token{}, err
		}

		return l.emit(token.String, start, text), nil

	case ch == '\'':
		text, err := l.scanQuoted('\'')
		if err != nil {
			return token.Token{}, err
		}

		if utf8.RuneCountInString(text) != 1 {
			return token.Token{}, l.errorAt(start, l.startLine, l.startCol,
				"character literal must contain exactly one character")
		}

		return l.emit(token.Char, start, text), nil

	case strings.ContainsRune(token.Symbols, ch):
		l.advance()

		return l.emit(token.Symbol, start, l.input[start:l.pos]), nil

	default:
		return token.Token{}, l.errorAt(start, l.line, l.col,
			"unexpected character "+quoteRune(ch))
	}
}

func (l *lexer) emit(kind token.Kind, start int, lexeme string) token.Token {
	line, col := l.startLine, l.startCol
	if kind == token.EOF {
		line, col = l.line, l.col
	}

	return token.Token{
		Kind:   kind,
		Lexeme: lexeme,
		Pos:    start,
		Line:   line,
		Column: col,
	}
}

// scanNumber consumes an integer or decimal literal with an optional
// exponent. A '.' is only part of the number when a digit follows it, so
// "1..a" lexes as Number, DotRun, Identifier.
func (l *lexer) scanNumber() {
	for !l.eof() && isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		l.advance()

		for !l.eof() && isDigit(l.peek()) {
			l.advance()
		}
	}

	if c := l.peek(); c == 'e' || c == 'E' {
		n := 1
		if s := l.peekAt(1); s == '+' || s == '-' {
			n = 2
		}

		if !isDigit(l.peekAt(n)) {
			return
		}

		for range n {
			l.advance()
		}

		for !l.eof() && isDigit(l.peek()) {
			l.advance()
		}
	}
}

// scanQuoted consumes a quoted literal starting at the opening quote and
// returns its decoded contents.
func (l *lexer) scanQuoted(quote rune) (string, error) {
	start, line, col := l.pos, l.line, l.col

	l.advance() // opening quote

	var sb strings.Builder

	for !l.eof() {
		ch := l.peek()

		switch ch {
		case quote:
			l.advance()

			return sb.String(), nil

		case '\n':
			return "", l.errorAt(start, line, col, "unterminated "+quoteKind(quote))

		case '\\':
			escPos, escLine, escCol := l.pos, l.line, l.col

			l.advance()

			if l.eof() {
				return "", l.errorAt(start, line, col, "unterminated "+quoteKind(quote))
			}

			r, ok := unescape(l.peek())
			if !ok {
				return "", l.errorAt(escPos, escLine, escCol,
					"invalid escape sequence \\"+string(l.peek()))
			}

			l.advance()
			sb.WriteRune(r)

		default:
			l.advance()
			sb.WriteRune(ch)
		}
	}

	return "", l.errorAt(start, line, col, "unterminated "+quoteKind(quote))
}

func (l *lexer) skipWhitespaceAndComments() {
	for !l.eof() {
		switch ch := l.peek(); {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			l.advance()

		case ch == '#', ch == '/' && l.peekAt(1) == '/':
			for !l.eof() && l.peek() != '\n' {
				l.advance()
			}

		case ch == '/' && l.peekAt(1) == '*':
			start, line, col := l.pos, l.line, l.col

			l.advance()
			l.advance()

			for {
				if l.eof() {
					l.err = l.errorAt(start, line, col, "unterminated block comment")

					return
				}

				if l.peek() == '*' && l.peekAt(1) == '/' {
					l.advance()
					l.advance()

					break
				}

				l.advance()
			}

		default:
			return
		}
	}
}

func (l *lexer) eof() bool { return l.pos >= len(l.input) }

func (l *lexer) peek() rune {
	if l.eof() {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])

	return r
}

// peekAt returns the rune n runes ahead of the current position.
func (l *lexer) peekAt(n int) rune {
	pos := l.pos

	for range n {
		if pos >= len(l.input) {
			return 0
		}

		_, size := utf8.DecodeRuneInString(l.input[pos:])
		pos += size
	}

	if pos >= len(l.input) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[pos:])

	return r
}

func (l *lexer) advance() {
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *lexer) errorAt(pos, line, col int, msg string) *Error {
	return &Error{Msg: msg, Pos: pos, Line: line, Column: col}
}

func unescape(r rune) (rune, bool) {
	switch r {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '0':
		return 0, true
	case '\\', '"', '\'':
		return r, true
	default:
		return 0, false
	}
}

func quoteKind(quote rune) string {
	if quote == '\'' {
		return "character literal"
	}

	return "string literal"
}

func quoteRune(r rune) string {
	return "'" + string(r) + "'"
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// IsIdentifier reports whether s is spelled like an identifier token.
func IsIdentifier(s string) bool {
	for i, r := range s {
		if i == 0 && !isIdentifierStart(r) || !isIdentifierContinue(r) {
			return false
		}
	}

	return s != ""
}

func isIdentifierStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentifierContinue(r rune) bool {
	return isIdentifierStart(r) || isDigit(r)
}
