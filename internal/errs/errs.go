// Package errs defines the error kinds shared by every pipeline stage.
//
// Each kind is a sentinel error. Call sites wrap a kind with context using
// fmt.Errorf and %w (or Wrap when an underlying cause must be kept too), and
// callers classify failures with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInputNotFound reports that a referenced image or calibration path does not exist.
	ErrInputNotFound = errors.New("input not found")

	// ErrInvalidFormat reports a file whose extension or structure is not the expected type.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrDecodeFailure reports raster bytes that cannot be decoded into pixels.
	ErrDecodeFailure = errors.New("decode failure")

	// ErrInvalidInput reports structurally invalid data handed to a pipeline stage.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIOFailure reports an output path that cannot be created or written.
	ErrIOFailure = errors.New("io failure")
)

// kindError carries both an error kind and the underlying cause, so that
// errors.Is matches either of them.
type kindError struct {
	kind  error
	cause error
	msg   string
}

func (e *kindError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %v", e.msg, e.kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.msg, e.kind, e.cause)
}

func (e *kindError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// Wrap annotates cause with an error kind and a formatted message.
//
// The returned error matches both kind and cause under errors.Is.
func Wrap(kind, cause error, format string, args ...interface{}) error {
	return &kindError{
		kind:  kind,
		cause: cause,
		msg:   fmt.Sprintf(format, args...),
	}
}

// Kind returns the first error kind found in err's chain, or nil.
func Kind(err error) error {
	for _, k := range []error{ErrInputNotFound, ErrInvalidFormat, ErrDecodeFailure, ErrInvalidInput, ErrIOFailure} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
