package core

import "github.com/pkg/errors"

// Kind is a stable, machine-readable error category. Every failure surfaced
// to callers maps to exactly one Kind.
type Kind string

const (
	KindValidation               Kind = "validation"
	KindNotFound                 Kind = "not_found"
	KindDuplicateIdentifier      Kind = "duplicate_identifier"
	KindAllocationExhausted      Kind = "allocation_exhausted"
	KindCollaboratorUnavailable  Kind = "collaborator_unavailable"
	KindProvisioningInconsistent Kind = "provisioning_inconsistent"
	KindAlreadySubmitted         Kind = "already_submitted"
)

// AppError pairs an error Kind with a human-readable message.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func NewAppError(kind Kind, msg string, err error) *AppError {
	return &AppError{Kind: kind, Message: msg, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// ErrKind returns the Kind of err if it is (or wraps) an AppError.
func ErrKind(err error) (Kind, bool) {
	if appErr, ok := errors.Cause(err).(*AppError); ok {
		return appErr.Kind, true
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
