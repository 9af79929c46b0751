// Package apperror carries domain errors from the repository and service
// layers up to the handlers. Each sentinel has a fixed HTTP status and a
// machine-readable code, so every layer agrees on how a failure is shown.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// kind is how one sentinel is reported over HTTP.
type kind struct {
	sentinel error
	status   int
	code     string
}

// Checked in order; the first sentinel in an error's chain wins.
var kinds = []kind{
	{ErrValidation, http.StatusBadRequest, "validation_error"},
	{ErrNotFound, http.StatusNotFound, "not_found"},
	{ErrForbidden, http.StatusForbidden, "forbidden"},
	{ErrConflict, http.StatusConflict, "conflict"},
	{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
}

// AppError is a sentinel plus the text the participant sees.
type AppError struct {
	Err     error
	Message string
	Field   string // request field at fault, validation only
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Err }

// Status is the HTTP status for err: the status of its sentinel, or 500 for
// anything that is not an AppError.
func Status(err error) int {
	if k, ok := lookup(err); ok {
		return k.status
	}
	return http.StatusInternalServerError
}

// Code is the machine-readable name written in the "error" field of a
// response body.
func Code(err error) string {
	if k, ok := lookup(err); ok {
		return k.code
	}
	return "internal_error"
}

// Public reports whether err may be shown to the participant as-is.
func Public(err error) bool {
	_, ok := lookup(err)
	return ok
}

func lookup(err error) (kind, bool) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return kind{}, false
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k, true
		}
	}
	return kind{}, false
}

func NotFound(resource, id string) *AppError {
	return &AppError{Err: ErrNotFound, Message: fmt.Sprintf("%s not found with id %s", resource, id)}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, Field: field}
}

// Conflict is a write that would duplicate something unique, such as a
// second ornament from the same participant on one tree.
func Conflict(resource, message string) *AppError {
	return &AppError{Err: ErrConflict, Message: fmt.Sprintf("%s conflict: %s", resource, message)}
}

// Forbidden means the caller is known but may not do this, like writing a
// wish on their own tree.
func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message}
}

// Unauthorized means no session, or one that has expired.
func Unauthorized(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: message}
}
