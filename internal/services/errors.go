package services

import (
	"errors"
	"fmt"
)

// --- Custom Service Errors for Client ---
var (
	ErrClientNotFound   = errors.New("client not found")
	ErrClientValidation = errors.New("client data validation error")
	// ErrDuplicateClient does not say which unique field collided; callers
	// needing a field-level message look the value up before writing.
	ErrDuplicateClient = errors.New("a client with the same account number, email or identification number already exists")
)

// ValidationError identifies the offending field of a rejected request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrClientValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrClientValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrClientValidation }

func newValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ErrorKind classifies service errors for transport-level mapping.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindDuplicateField
	KindNotFound
)

// KindOf reports which class err belongs to; unknown errors are internal.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrClientValidation):
		return KindValidation
	case errors.Is(err, ErrDuplicateClient):
		return KindDuplicateField
	case errors.Is(err, ErrClientNotFound):
		return KindNotFound
	}
	return KindInternal
}
