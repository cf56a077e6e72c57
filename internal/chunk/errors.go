package chunk

import (
	"errors"
	"fmt"
)

var (
	// ErrStructuralViolation is returned for any chunk that breaks the ReadRows protocol.
	ErrStructuralViolation = errors.New("structural violation")
	// ErrTruncatedStream is returned when a stream ends with a row that was never committed.
	ErrTruncatedStream = errors.New("truncated stream")
	// ErrDecodeInconsistency is returned when an assembled value cannot be decoded with the
	// configured options.
	ErrDecodeInconsistency = errors.New("decode inconsistency")
)

// Error wraps a sentinel error with the message and the chunk that triggered it.
type Error struct {
	err     error
	context string
	chunk   *Chunk
	cause   error
}

// Error satisfies the error interface
func (e *Error) Error() string {
	msg := e.err.Error()
	if e.context != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.context)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", msg, e.chunk)
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is/As
func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.err}
	}
	return []error{e.err, e.cause}
}

// Chunk returns the offending chunk, nil when the error was raised at end of stream.
func (e *Error) Chunk() *Chunk {
	return e.chunk
}

// Message returns the violation text without the sentinel prefix or the chunk.
func (e *Error) Message() string {
	return e.context
}

func violation(c *Chunk, msg string) *Error {
	return &Error{err: ErrStructuralViolation, context: msg, chunk: c}
}

const (
	msgExistingState        = "a new row cannot have existing state"
	msgRowKeyRequired       = "a row key must be set"
	msgNewRowReset          = "a new row cannot be reset"
	msgDuplicateKey         = "a commit happened but the same key followed"
	msgKeyOrder             = "a row key must be strictly increasing"
	msgKeyOrderReversed     = "a row key must be strictly decreasing"
	msgFamilyRequired       = "a family must be set"
	msgQualifierRequired    = "a column qualifier must be set"
	msgSizeAndCommit        = "a row cannot have a value size and be a commit row"
	msgNegativeValueSize    = "a value size cannot be negative"
	msgCommitBetweenKeys    = "a commit is required between row keys"
	msgFamilyNoQualifier    = "a qualifier must be specified"
	msgResetWithData        = "a reset should have no data"
	msgPendingRow           = "response ended with pending row without commit"
	msgNilChunk             = "chunk is nil"
	msgUndecodableValue     = "assembled cell value cannot be decoded"
	msgUndecodableQualifier = "qualifier cannot be decoded"
)
