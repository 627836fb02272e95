// Package errors carries the application error taxonomy. Every error
// the engine or backend raises is an *AppError with a kind and an HTTP
// status, so the REST layer can map failures without inspecting text.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError
type Kind string

const (
	KindValidation  Kind = "VALIDATION"
	KindNotFound    Kind = "NOT_FOUND"
	KindConflict    Kind = "CONFLICT"
	KindInvariant   Kind = "INVARIANT"
	KindInternal    Kind = "INTERNAL"
	KindUnavailable Kind = "UNAVAILABLE"
	KindStorage     Kind = "STORAGE"
	KindNetwork     Kind = "NETWORK"
	KindExternal    Kind = "EXTERNAL"
)

// AppError is the application error carried across layers
type AppError struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	Cause      error  `json:"-"`
	HTTPStatus int    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCause attaches an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func newError(kind Kind, message string, status int) *AppError {
	return &AppError{Kind: kind, Message: message, HTTPStatus: status}
}

// NewValidationError reports malformed or out-of-range input
func NewValidationError(message string) *AppError {
	return newError(KindValidation, message, http.StatusBadRequest)
}

// NewNotFoundError reports an absent resource by name
func NewNotFoundError(resource string) *AppError {
	return newError(KindNotFound, resource+" not found", http.StatusNotFound)
}

// NewConflictError reports an operation colliding with current state
func NewConflictError(message string) *AppError {
	return newError(KindConflict, message, http.StatusConflict)
}

// NewInvariantError reports a rejected graph invariant violation. The
// engine swallows these as silent no-ops; they never reach a response.
func NewInvariantError(message string) *AppError {
	return newError(KindInvariant, message, http.StatusUnprocessableEntity)
}

// NewInternalError reports an unexpected failure
func NewInternalError(message string) *AppError {
	return newError(KindInternal, message, http.StatusInternalServerError)
}

// NewUnavailableError reports a missing or down dependency
func NewUnavailableError(service string) *AppError {
	return newError(KindUnavailable, service+" is unavailable", http.StatusServiceUnavailable)
}

// NewStorageError reports a failed repository operation
func NewStorageError(operation string, err error) *AppError {
	return newError(KindStorage, operation+" failed", http.StatusInternalServerError).WithCause(err)
}

// NewNetworkError reports a failed backend or transport call
func NewNetworkError(message string, err error) *AppError {
	return newError(KindNetwork, message, http.StatusBadGateway).WithCause(err)
}

// NewExternalError reports a failure in an upstream service
func NewExternalError(service string, err error) *AppError {
	return newError(KindExternal, service+" error", http.StatusBadGateway).WithCause(err)
}

// GetAppError returns the AppError in err's chain, or nil
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func isKind(err error, kind Kind) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Kind == kind
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsConflict reports whether err is a conflict error
func IsConflict(err error) bool { return isKind(err, KindConflict) }

// IsInvariant reports whether err is a rejected invariant violation
func IsInvariant(err error) bool { return isKind(err, KindInvariant) }

// Wrap prefixes an error's message with context. A non-AppError cause
// becomes an internal error.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = message + ": " + appErr.Message
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}
