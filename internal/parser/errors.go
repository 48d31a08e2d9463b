package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatch is returned when a line does not have the expected shape
	ErrNoMatch = errors.New("line does not match")
	// ErrMalformedFunction is returned when an instrumented block is opened
	// but its grammar is violated before the matching close line.
	ErrMalformedFunction = errors.New("malformed function block")
	// ErrMalformedInvocation is returned when an invocation is opened but no
	// terminal line for it can be found.
	ErrMalformedInvocation = errors.New("malformed invocation block")
)

// NumberError reports a line that matched its pattern but carries an
// integer field that does not fit an int64.
type NumberError struct {
	Field string
	Value string
	Err   error
}

func (e *NumberError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *NumberError) Unwrap() error {
	return e.Err
}
