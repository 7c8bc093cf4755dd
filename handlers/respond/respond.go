// Package respond writes JSON responses and maps domain errors to HTTP
// status codes.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"bloodzy/backend/models"
)

// RetryAfterSeconds is advertised on 503 responses for store failures.
const RetryAfterSeconds = "5"

// JSON writes data with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// Message writes {"error": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

// Error maps err onto a status and writes it. Unexpected errors are logged
// and hidden behind a generic message.
func Error(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ve *models.ValidationError
	var nf *models.NotFoundError
	var se *models.StoreError

	switch {
	case errors.As(err, &ve):
		body := map[string]string{"error": ve.Message}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		JSON(w, http.StatusBadRequest, body)
	case errors.Is(err, models.ErrAlreadyRegistered), errors.Is(err, models.ErrDuplicateAccount):
		Message(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrInvalidCredentials):
		Message(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &nf):
		Message(w, http.StatusNotFound, nf.Error())
	case errors.As(err, &se):
		if logger != nil {
			logger.Warn("store unavailable", "op", se.Op, "error", se.Err)
		}
		w.Header().Set("Retry-After", RetryAfterSeconds)
		Message(w, http.StatusServiceUnavailable, "service temporarily unavailable, please retry")
	default:
		if logger != nil {
			logger.Error("request failed", "error", err)
		}
		Message(w, http.StatusInternalServerError, "internal server error")
	}
}

// Decode reads a single JSON object from the request body.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return &models.ValidationError{Message: "request body is required"}
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &models.ValidationError{Message: "request body is required"}
		}
		return &models.ValidationError{Message: "invalid request body"}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &models.ValidationError{Message: "request body must contain a single JSON value"}
	}
	return nil
}
