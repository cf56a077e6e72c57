package codec

import (
	"errors"
	"fmt"
)

var (
	ErrDecode          = errors.New("decode failed")
	ErrUnsupportedType = errors.New("unsupported type")
	ErrUnknownEncoding = errors.New("unknown text encoding")
)

// Error wraps a sentinel error with additional context
type Error struct {
	err     error
	context string
}

func (e *Error) Error() string {
	if e.context == "" {
		return e.err.Error()
	}
	return fmt.Sprintf("%s: %s", e.err.Error(), e.context)
}

// Unwrap implements the errors.Unwrap interface for compatibility with errors.Is/As
func (e *Error) Unwrap() error {
	return e.err
}

func newError(err error, format string, args ...interface{}) *Error {
	return &Error{
		err:     err,
		context: fmt.Sprintf(format, args...),
	}
}
