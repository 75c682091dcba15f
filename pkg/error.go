package pkg

// Sentinel errors shared by scfg packages outside the language core.
// These errors can be tested using errors.Is for reliable error checking.

import (
	"fmt"
	"strings"
)

// Error represents a chain of errors, innermost first.
type Error []error

// ErrSourceNotFound is returned when a script file cannot be located in the
// search path.
//
// This error should be wrapped with the name that was searched for.
var ErrSourceNotFound = MakeErrorf("script not found")

// ErrReadSource is returned when reading a script file fails.
//
// This error should be wrapped with the underlying I/O error
// to preserve the error chain.
var ErrReadSource = MakeErrorf("failed to read script")

// ErrUnknownModule is returned when a module type has no registered factory.
var ErrUnknownModule = MakeErrorf("unknown module type")

// ErrModuleExists is returned when a module type is registered twice, or
// when two module instances share a name.
var ErrModuleExists = MakeErrorf("module already registered")

// ErrModuleSetup is returned when a module fails to link its settings.
//
// This error should be wrapped with the module name and the underlying
// error.
var ErrModuleSetup = MakeErrorf("module setup failed")

// MakeError constructs an Error from the given errors.
// The errors are stored in the order they are provided:
// the first argument is the innermost error in the chain.
// Nil errors are skipped.
func MakeError(errs ...error) Error {
	var e Error

	for _, err := range errs {
		if err != nil {
			e = append(e, UnwrapErrors(err)...)
		}
	}

	return e
}

// MakeErrorf constructs an Error from a formatted error message.
func MakeErrorf(format string, args ...any) Error {
	return MakeError(fmt.Errorf(format, args...))
}

// Error returns the messages of the chain from innermost to outermost,
// separated by ": ".
func (e Error) Error() string {
	var sb strings.Builder

	for i, err := range e {
		if i > 0 {
			sb.WriteString(": ")
		}

		sb.WriteString(err.Error())
	}

	return sb.String()
}

// Wrap returns a new chain with err appended to the receiver's chain as the
// outermost errors.
func (e Error) Wrap(err ...error) Error {
	c := make(Error, 0, len(e)+len(err))
	c = append(c, e...)

	for _, x := range err {
		if x != nil {
			c = append(c, x)
		}
	}

	return c
}

// Wrapf appends a formatted error to a copy of the receiver.
func (e Error) Wrapf(format string, args ...any) Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// Unwrap returns the errors contained in the receiver.
func (e Error) Unwrap() []error {
	return e
}

// Is reports whether target is a chain whose innermost error is also the
// receiver's innermost error, so wrapped sentinels match with errors.Is.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)

	return ok && len(t) > 0 && len(e) > 0 && t[0] == e[0]
}

// UnwrapErrors recursively unwraps an error chain and returns a slice
// containing all errors in the chain, starting from the innermost error.
func UnwrapErrors(err error) Error {
	if err == nil {
		return nil
	}

	var chain Error

	switch e := err.(type) {
	case Error:
		return append(chain, e...)
	case interface{ Unwrap() []error }:
		for _, wrapped := range e.Unwrap() {
			chain = append(chain, UnwrapErrors(wrapped)...)
		}
	case interface{ Unwrap() error }:
		chain = append(chain, UnwrapErrors(e.Unwrap())...)
	}

	return append(chain, err)
}
