package lexer

import (
	"log/slog"
	"strconv"
)

// Error describes malformed input: an unterminated literal or comment, an
// invalid escape sequence, or a character outside the language alphabet.
type Error struct {
	Msg    string
	Pos    int
	Line   int
	Column int
}

// Error implements the error interface.
func (e *Error) Error() string {
	return strconv.Itoa(e.Line) + ":" + strconv.Itoa(e.Column) + ": " + e.Msg
}

// LogValue implements slog.LogValuer.
func (e *Error) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", e.Msg),
		slog.Int("line", e.Line),
		slog.Int("column", e.Column),
	)
}
