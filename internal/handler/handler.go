package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"seven-oz-loyalty/internal/middleware"
	"seven-oz-loyalty/internal/model"

	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies; a claim is two short strings.
const maxBodyBytes = 4 << 10

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing useful to tell the client.
		return
	}
}

// writeError writes an ErrorResponse tagged with the request's correlation id.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	writeErrorCause(w, r, status, code, message, nil, logger)
}

// writeErrorCause is writeError with the underlying error attached to the log line.
func writeErrorCause(w http.ResponseWriter, r *http.Request, status int, code, message string, cause error, logger zerolog.Logger) {
	requestID := middleware.GetRequestID(r.Context())

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	if cause != nil {
		event = event.AnErr("cause", cause)
	}
	event.
		Str("error", code).
		Int("status", status).
		Str("request_id", requestID).
		Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: requestID,
	})
}

// writeServiceError maps a service error to its HTTP status in one place.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	switch {
	case errors.As(err, &domainErr):
		writeError(w, r, http.StatusBadRequest, domainErr.Code, domainErr.Message, logger)
	default:
		writeErrorCause(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", err, logger)
	}
}
