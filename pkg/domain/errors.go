// Package domain holds the error taxonomy and pagination types shared by every
// service layer.
package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a DomainError.
type ErrorCode string

const (
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeForbidden         ErrorCode = "FORBIDDEN"
	CodeInvalidState      ErrorCode = "INVALID_STATE"
	CodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	CodeConflict          ErrorCode = "CONFLICT"
	CodeValidation        ErrorCode = "VALIDATION_ERROR"
)

// DomainError is a classified, recoverable failure of a single request.
type DomainError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, domain.ErrNotFound) matches any not-found error.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound          = &DomainError{Code: CodeNotFound}
	ErrForbidden         = &DomainError{Code: CodeForbidden}
	ErrInvalidState      = &DomainError{Code: CodeInvalidState}
	ErrInvalidTransition = &DomainError{Code: CodeInvalidTransition}
	ErrConflict          = &DomainError{Code: CodeConflict}
	ErrValidation        = &DomainError{Code: CodeValidation}
)

// NewNotFoundError reports that the named entity does not exist.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewForbiddenError reports an authenticated caller acting outside its rights.
func NewForbiddenError(msg string) *DomainError {
	return &DomainError{Code: CodeForbidden, Message: msg}
}

// NewInvalidStateError reports an operation not legal in the current state.
func NewInvalidStateError(msg string) *DomainError {
	return &DomainError{Code: CodeInvalidState, Message: msg}
}

// NewInvalidTransitionError reports a status change outside the allowed edges.
func NewInvalidTransitionError(from, to string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewConflictError reports a uniqueness violation or a lost concurrent write.
func NewConflictError(msg string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: msg}
}

// NewValidationError reports malformed caller input.
func NewValidationError(msg string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: msg}
}

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
