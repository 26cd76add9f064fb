package core

// errors.go defines the import error taxonomy.
//
// Fatal errors abort the pipeline and set the import status to failed.
// InvariantViolation is special: it signals a pipeline bug rather than bad
// input, and callers log it at error level instead of warn so operators
// can tell the two apart.

import (
	"errors"
	"fmt"
)

// ErrorKind classifies fatal import errors.
type ErrorKind string

const (
	// KindUnreadableInput: the bytes could not be decoded as text when a
	// text format was expected.
	KindUnreadableInput ErrorKind = "unreadable_input"

	// KindNoRecognizableColumns: no frequency-bearing column was found by
	// any extractor, including the generic fallback.
	KindNoRecognizableColumns ErrorKind = "no_recognizable_columns"

	// KindInsufficientDataPoints: fewer than 2 valid rows survived
	// extraction and cleanup.
	KindInsufficientDataPoints ErrorKind = "insufficient_data_points"

	// KindInvariantViolation: an internal contract breach, e.g. the
	// normalizer emitted non-ascending frequencies. A pipeline bug, not
	// user error.
	KindInvariantViolation ErrorKind = "invariant_violation"
)

// ImportError is a fatal pipeline error carrying a machine-readable kind
// tag alongside the human-readable message.
type ImportError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ImportError) Unwrap() error { return e.Err }

// IsInputError reports whether the error was caused by the uploaded file
// rather than a pipeline bug.
func (e *ImportError) IsInputError() bool {
	return e.Kind != KindInvariantViolation
}

func unreadable(format string, args ...any) *ImportError {
	return &ImportError{Kind: KindUnreadableInput, Message: fmt.Sprintf(format, args...)}
}

func noColumns(format string, args ...any) *ImportError {
	return &ImportError{Kind: KindNoRecognizableColumns, Message: fmt.Sprintf(format, args...)}
}

func insufficient(format string, args ...any) *ImportError {
	return &ImportError{Kind: KindInsufficientDataPoints, Message: fmt.Sprintf(format, args...)}
}

func invariant(format string, args ...any) *ImportError {
	return &ImportError{Kind: KindInvariantViolation, Message: fmt.Sprintf(format, args...)}
}

// AsImportError unwraps err into an *ImportError if possible.
func AsImportError(err error) (*ImportError, bool) {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
