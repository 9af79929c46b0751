package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError means a required input was missing or malformed. It is
// raised before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// NotFoundError is a 404 from the server: the tree (or participant) id
// does not resolve.
type NotFoundError struct {
	Resource string
	ID       string
	Message  string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// NetworkError is a transport failure (Status == 0) or any other non-2xx.
// Message is the server's human-readable message when the body carried one.
type NetworkError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s (%d)", e.Op, e.Message, e.Status)
	default:
		return fmt.Sprintf("%s: %s", e.Op, http.StatusText(e.Status))
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Conflict reports a 409: the participant has already decorated the tree.
func (e *NetworkError) Conflict() bool { return e.Status == http.StatusConflict }

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a 409 from the server.
func IsConflict(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne) && ne.Conflict()
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
