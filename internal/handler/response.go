package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError so the wire format
// stays uniform:
//
//	writeJSON(w, http.StatusOK, record)
//	writeError(w, r, h.logger, err)
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//
//	{"error": "not_found", "message": "user not found with id 7"}
//	{"error": "validation_error", "message": "email is required", "field": "email"}
//
// Confirmation and verification results are bare JSON strings
// ("User Deleted!", "User Verified"), matching what existing clients expect.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/taskapi/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // Request field at fault, if any
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be written before the body; once Encode writes,
// later header changes are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status code and sends it.
//
// ERROR MAPPING:
//
//	apperror.ErrValidation       → 400 validation_error
//	apperror.ErrUnauthorized     → 401 unauthorized
//	apperror.ErrNotFound         → 404 not_found
//	apperror.ErrConflict         → 409 conflict
//	apperror.ErrUnsupportedMedia → 415 unsupported_media_type
//	anything else                → 500 internal_error
//
// errors.Is walks the whole chain, so a service error such as
// fmt.Errorf("creating user: %w", apperror.Conflict(...)) still maps to 409.
//
// Errors that map to 500 are logged through the handler's logger with the
// request id and route, so they can be matched to the access log line.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, errorType := statusFor(err)
		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	// Unknown error: the raw message may contain SQL or file paths, so it
	// only goes to the log.
	logger.ErrorContext(r.Context(), "unhandled error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", chimiddleware.GetReqID(r.Context())),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType, "unsupported_media_type"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
