package services

import (
	"errors"
	"fmt"
)

// ErrorKind is a stable machine-readable error classification. Handlers
// decode the kind once into an HTTP status and envelope code; nothing
// downstream parses error messages.
type ErrorKind string

const (
	KindValidation           ErrorKind = "VALIDATION_ERROR"
	KindDuplicateKey         ErrorKind = "DUPLICATE_KEY"
	KindDuplicateRfid        ErrorKind = "DUPLICATE_RFID"
	KindSubjectHasCredential ErrorKind = "SUBJECT_ALREADY_HAS_CREDENTIAL"
	KindNotFound             ErrorKind = "NOT_FOUND"
	KindNotDeleted           ErrorKind = "NOT_DELETED"
	KindAlreadyDeleted       ErrorKind = "ALREADY_DELETED"
	KindCredentialExpired    ErrorKind = "CREDENTIAL_EXPIRED"
	KindInvalidTransition    ErrorKind = "INVALID_TRANSITION"
	KindForbidden            ErrorKind = "FORBIDDEN"
	KindInternal             ErrorKind = "INTERNAL_ERROR"
)

// Error is the typed service error carried across the service boundary.
// Field names the offending field for conflict and validation errors so the
// UI can highlight it without parsing the message.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError creates a typed service error
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewFieldError creates a typed service error tied to a specific field
func NewFieldError(kind ErrorKind, field, message string) *Error {
	return &Error{Kind: kind, Field: field, Message: message}
}

// KindOf extracts the error kind, defaulting to KindInternal for
// untyped errors
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// Common constructors used across the lifecycle and store paths.

func ErrNotFound(resource string) *Error {
	return NewError(KindNotFound, resource+" not found")
}

func ErrAlreadyDeleted(resource string) *Error {
	return NewError(KindAlreadyDeleted, resource+" is already deleted")
}

func ErrNotDeleted(resource string) *Error {
	return NewError(KindNotDeleted, resource+" is not deleted")
}

func ErrValidation(field, message string) *Error {
	return NewFieldError(KindValidation, field, message)
}
