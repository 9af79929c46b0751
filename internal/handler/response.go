// Package handler turns HTTP requests into service calls and service
// results into JSON. Handlers own no business rules: validation, ownership
// and the reveal gate all live in internal/service.
package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/sakif/wellwishers/internal/apperror"
)

// maxBodyBytes bounds every JSON request body. The largest legitimate body
// is a kiti's room post.
const maxBodyBytes = 128 << 10

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable type, e.g. "not_found"
	Message string `json:"message"`         // shown to the participant
	Field   string `json:"field,omitempty"` // offending field for validation errors
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError answers with the status and code of err's sentinel. Anything
// else is a 500 with a generic message; the detail belongs in the server
// log, not in the response.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !apperror.Public(err) || !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}
	writeJSON(w, apperror.Status(err), ErrorResponse{
		Error:   apperror.Code(err),
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// logIfInternal logs err when writeError is about to hide it behind a 500.
func logIfInternal(logger *slog.Logger, msg string, err error) {
	if !apperror.Public(err) {
		logger.Error(msg, slog.String("error", err.Error()))
	}
}

// decodeJSON reads a bounded JSON body into dst. Unknown fields are
// tolerated: the web client sends a few the server derives itself.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return apperror.ValidationFailed("body", "request body is too large")
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is required")
		default:
			return apperror.ValidationFailed("body", "request body must be valid JSON")
		}
	}
	return nil
}
