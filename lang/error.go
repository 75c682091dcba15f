package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/scfg/lang/token"
)

// ErrorKind classifies an [Error].
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindLexical
	KindUnexpectedToken
	KindUndefinedReference
	KindScopeUnderflow
	KindRedeclarationConflict
	KindTypeMismatch
	KindInvalidMemberAccess
	KindIndexOutOfRange
	KindArgumentCountMismatch
	KindInvalidAccessor
	KindMaxDepthExceeded
	KindReadInput
	KindExprCompile
	KindExprEvaluate
)

var errorKindName = [...]string{
	KindInternal:              "Internal",
	KindLexical:               "LexicalError",
	KindUnexpectedToken:       "UnexpectedToken",
	KindUndefinedReference:    "UndefinedReference",
	KindScopeUnderflow:        "ScopeUnderflow",
	KindRedeclarationConflict: "RedeclarationConflict",
	KindTypeMismatch:          "TypeMismatch",
	KindInvalidMemberAccess:   "InvalidMemberAccess",
	KindIndexOutOfRange:       "IndexOutOfRange",
	KindArgumentCountMismatch: "ArgumentCountMismatch",
	KindInvalidAccessor:       "InvalidAccessor",
	KindMaxDepthExceeded:      "MaxDepthExceeded",
	KindReadInput:             "ReadInput",
	KindExprCompile:           "ExprCompile",
	KindExprEvaluate:          "ExprEvaluate",
}

func (k ErrorKind) String() string {
	if k >= 0 && int(k) < len(errorKindName) {
		return errorKindName[k]
	}

	return "ErrorKind(" + strconv.Itoa(int(k)) + ")"
}

// Predefined errors (sentinel values).
//
// Every error returned by this package matches exactly one of these with
// [errors.Is], regardless of the position or detail attached to it.
var (
	ErrInternal              = newKind(KindInternal, "internal error")
	ErrLexical               = newKind(KindLexical, "lexical error")
	ErrUnexpectedToken       = newKind(KindUnexpectedToken, "unexpected token")
	ErrUndefinedReference    = newKind(KindUndefinedReference, "undefined reference")
	ErrScopeUnderflow        = newKind(KindScopeUnderflow, "scope underflow")
	ErrRedeclaration         = newKind(KindRedeclarationConflict, "redeclaration conflict")
	ErrTypeMismatch          = newKind(KindTypeMismatch, "type mismatch")
	ErrInvalidMemberAccess   = newKind(KindInvalidMemberAccess, "invalid member access")
	ErrIndexOutOfRange       = newKind(KindIndexOutOfRange, "index out of range")
	ErrArgumentCountMismatch = newKind(KindArgumentCountMismatch, "argument count mismatch")
	ErrInvalidAccessor       = newKind(KindInvalidAccessor, "invalid accessor")
	ErrMaxDepthExceeded      = newKind(KindMaxDepthExceeded, "maximum call depth exceeded")
	ErrReadInput             = newKind(KindReadInput, "failed to read input")
	ErrExprCompile           = newKind(KindExprCompile, "expression compilation failed")
	ErrExprEvaluate          = newKind(KindExprEvaluate, "expression evaluation failed")
)

// Position identifies a location in script text.
// Line and Column are 1-based; the zero Position means "unknown".
type Position struct {
	Offset int
	Line   int
	Column int
}

// IsValid reports whether p refers to a real location.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

func positionOf(t token.Token) Position {
	return Position{Offset: t.Pos, Line: t.Line, Column: t.Column}
}

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	kind   ErrorKind
	msg    string
	detail string
	err    error       // Wrapped error (for errors.Unwrap)
	attrs  []slog.Attr // Attributes for structured logging
	pos    Position
}

func newKind(kind ErrorKind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// WrapError converts err into an *Error. Errors that already are (or wrap)
// an *Error are returned as-is; anything else becomes an internal error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return ErrInternal.Wrap(err)
}

// Kind returns the error classification.
func (e *Error) Kind() ErrorKind { return e.kind }

// Position returns the script location blamed for the error.
func (e *Error) Position() Position { return e.pos }

// Detail returns the human-readable explanation attached to the error.
func (e *Error) Detail() string { return e.detail }

// Error implements the error interface.
func (e *Error) Error() string {
	// "<line>:<col>: <msg>: <detail>: <err>", omitting absent parts.
	part := make([]string, 0, 4)

	if e.pos.IsValid() {
		part = append(part, e.pos.String())
	}

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.detail != "" {
		part = append(part, e.detail)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.kind == e.kind
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+5)

	attrs = append(attrs, slog.String("kind", e.kind.String()))

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.detail != "" {
		attrs = append(attrs, slog.String("detail", e.detail))
	}

	if e.pos.IsValid() {
		attrs = append(attrs,
			slog.Int("line", e.pos.Line),
			slog.Int("column", e.pos.Column),
		)
	}

	if e.err != nil {
		attrs = append(attrs, slog.Any("cause", e.err))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

func (e *Error) clone() *Error {
	c := *e

	return &c
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := e.clone()
	c.err = err

	return c
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := e.clone()
	c.attrs = make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(c.attrs, e.attrs)
	copy(c.attrs[len(e.attrs):], attrs)

	return c
}

// Because returns a copy of e with the given explanation.
func (e *Error) Because(detail string) *Error {
	c := e.clone()
	c.detail = detail

	return c
}

// At returns a copy of e blamed on the given token.
func (e *Error) At(t token.Token) *Error {
	return e.AtPosition(positionOf(t))
}

// AtPosition returns a copy of e blamed on pos.
func (e *Error) AtPosition(pos Position) *Error {
	c := e.clone()
	c.pos = pos

	return c
}

// Snippet renders the line of source that e points at with a caret under
// the offending column. It returns "" when e has no position or the line is
// out of range.
func (e *Error) Snippet(source string) string {
	if !e.pos.IsValid() {
		return ""
	}

	lines := strings.Split(source, "\n")
	if e.pos.Line > len(lines) {
		return ""
	}

	var sb strings.Builder

	num := strconv.Itoa(e.pos.Line)

	sb.WriteString("  ")
	sb.WriteString(num)
	sb.WriteString(" | ")
	sb.WriteString(strings.TrimRight(lines[e.pos.Line-1], "\r"))
	sb.WriteRune('\n')

	// +5 accounts for: 2 leading spaces + " | " (3 chars)
	sb.WriteString(strings.Repeat(" ", len(num)+5))

	if e.pos.Column > 0 {
		sb.WriteString(strings.Repeat(" ", e.pos.Column-1))
	}

	sb.WriteString("^\n")

	return sb.String()
}

// Diagnostics is the error returned by a failed load. It holds every
// offence recorded before the load stopped, in source order.
type Diagnostics []*Error

// Error implements the error interface.
func (d Diagnostics) Error() string {
	switch len(d) {
	case 0:
		return "no diagnostics"
	case 1:
		return d[0].Error()
	}

	var sb strings.Builder

	sb.WriteString(strconv.Itoa(len(d)))
	sb.WriteString(" errors:")

	for _, e := range d {
		sb.WriteString("\n\t")
		sb.WriteString(e.Error())
	}

	return sb.String()
}

// Unwrap exposes each diagnostic to errors.Is and errors.As.
func (d Diagnostics) Unwrap() []error {
	errs := make([]error, len(d))
	for i, e := range d {
		errs[i] = e
	}

	return errs
}

// LogValue implements slog.LogValuer.
func (d Diagnostics) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(d))
	for i, e := range d {
		attrs = append(attrs, slog.Any(strconv.Itoa(i), e))
	}

	return slog.GroupValue(attrs...)
}

// Format renders every diagnostic followed by its source snippet.
func (d Diagnostics) Format(source string) string {
	var sb strings.Builder

	for _, e := range d {
		sb.WriteString(e.Error())
		sb.WriteRune('\n')
		sb.WriteString(e.Snippet(source))
	}

	return sb.String()
}
