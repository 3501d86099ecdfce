package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error so callers can react to the category
// without matching individual codes.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindConsistency     ErrorKind = "consistency"
	KindStateTransition ErrorKind = "state_transition"
	KindConcurrency     ErrorKind = "concurrency"
	KindNotFound        ErrorKind = "not_found"
	KindStorage         ErrorKind = "storage"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Kind    ErrorKind      `json:"kind"`
	Details map[string]any `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches domain errors by code so sentinel values work with errors.Is.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Retryable reports whether the operation may succeed when retried as-is.
func (e *DomainError) Retryable() bool {
	return e.Kind == KindConcurrency
}

// WithDetail returns a copy of the error with an extra detail entry.
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Code: e.Code, Message: e.Message, Kind: e.Kind, Details: details, cause: e.cause}
}

// WithCause returns a copy of the error wrapping cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Kind: e.Kind, Details: e.Details, cause: cause}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    KindValidation,
	}
}

// NewValidationError creates an error for malformed or inconsistent input.
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindValidation}
}

// NewConsistencyError creates an error for a request that would violate a
// persisted invariant. details should carry the current state.
func NewConsistencyError(code, message string, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindConsistency, Details: details}
}

// NewStateTransitionError creates an error for a disallowed lifecycle move.
func NewStateTransitionError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindStateTransition}
}

// NewConcurrencyError creates a retryable error for lock or version conflicts.
func NewConcurrencyError(message string, cause error) *DomainError {
	return &DomainError{Code: CodeConcurrencyConflict, Message: message, Kind: KindConcurrency, cause: cause}
}

// NewStorageError wraps an unexpected persistence failure. The cause is kept
// for logging but never rendered to callers.
func NewStorageError(cause error) *DomainError {
	return &DomainError{Code: CodeStorageError, Message: "Storage operation failed", Kind: KindStorage, cause: cause}
}

// NewNotFoundError creates an error for a missing resource.
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: resource + " not found", Kind: KindNotFound}
}

// Error codes
const (
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeInvalidState        = "INVALID_STATE"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeStorageError        = "STORAGE_ERROR"
	CodeDuplicateRequest    = "DUPLICATE_REQUEST"
)

// Common domain errors
var (
	ErrNotFound            = &DomainError{Code: CodeNotFound, Message: "Resource not found", Kind: KindNotFound}
	ErrAlreadyExists       = &DomainError{Code: CodeAlreadyExists, Message: "Resource already exists", Kind: KindConsistency}
	ErrInvalidInput        = NewValidationError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = &DomainError{Code: CodeConcurrencyConflict, Message: "Resource was modified by another process", Kind: KindConcurrency}
	ErrInvalidState        = NewStateTransitionError(CodeInvalidState, "Operation not allowed in current state")
	ErrDuplicateRequest    = &DomainError{Code: CodeDuplicateRequest, Message: "Request was already processed", Kind: KindConsistency}
)

// KindOf returns the kind of err, or KindStorage for errors outside the
// domain taxonomy.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindStorage
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Kind == kind
}

// IsRetryable reports whether err is a transient conflict.
func IsRetryable(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Retryable()
}
