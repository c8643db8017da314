package pipeline

import (
	"errors"
	"fmt"
)

// ValidationError rejects a malformed or non-HTTP seed URL before any
// external call is made.
type ValidationError struct {
	SeedURL string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pipeline: invalid seed url %q: %s", e.SeedURL, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// InternalError wraps an unexpected panic or programming error. Raw panics
// never propagate past the pipeline boundary.
type InternalError struct {
	Cause error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("pipeline: internal error: %v", e.Cause)
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}
