package template

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates a malformed argument, caught before any store
	// interaction.
	ErrValidation = errors.New("validation error")

	// ErrNonUniqueResult indicates that a single-result lookup matched more
	// than one document.
	ErrNonUniqueResult = errors.New("non-unique result")

	// ErrDelegate indicates that the underlying collection manager failed.
	// Errors returned by template operations match it via errors.Is.
	ErrDelegate = errors.New("delegate operation failed")
)

// DelegateError wraps a manager failure with the operation and collection it
// occurred on.
type DelegateError struct {
	Operation  string
	Collection string
	Cause      error
}

func (e *DelegateError) Error() string {
	return fmt.Sprintf("%s on %q: %v", e.Operation, e.Collection, e.Cause)
}

func (e *DelegateError) Unwrap() error {
	return e.Cause
}

func (e *DelegateError) Is(target error) bool {
	return target == ErrDelegate
}
