// Package apperror defines the domain error taxonomy shared by the
// repository, service and handler layers.
//
// Lower layers return an *AppError wrapping one of the sentinels below;
// the HTTP layer inspects the chain with errors.Is and picks a status code.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation error")
	ErrConflict         = errors.New("conflict")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

type AppError struct {
	Err     error  // sentinel
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

// NotFoundBy reports a missing row looked up by a key other than its id.
func NotFoundBy(resource, key, value string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with %s %q", resource, key, value),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a write rejected by a uniqueness rule.
func Conflict(resource, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict: %s", resource, message),
	}
}

// Unauthorized carries a credential check failure. The message is returned
// to the caller verbatim, so it must not reveal which check failed.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// UnsupportedMedia rejects a request body that is not JSON.
func UnsupportedMedia(message string) *AppError {
	return &AppError{
		Err:     ErrUnsupportedMedia,
		Message: message,
	}
}
