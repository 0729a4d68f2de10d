package resolve

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrEmptyResult is recorded for a source that answered without error
	// but with an empty value.
	ErrEmptyResult = errors.New("source returned an empty result")

	// ErrEmptyID is returned by Resolve for a blank id.
	ErrEmptyID = errors.New("id cannot be empty")
)

// Attempt records one failed source.
type Attempt struct {
	Source string
	Err    error
}

// NotFoundError is returned when every source in a chain failed or came
// back empty.
type NotFoundError struct {
	ID       string
	Attempts []Attempt
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("%q not found: no sources configured", e.ID)
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Source, a.Err))
	}
	return fmt.Sprintf("%q not found after %d sources (%s)", e.ID, len(e.Attempts), strings.Join(parts, "; "))
}

// Is reports ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Unwrap exposes the per-source errors to errors.Is and errors.As.
func (e *NotFoundError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}
