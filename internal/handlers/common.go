package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"meditation-backend/internal/apperrors"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondServiceError maps an error kind to its status. Unclassified errors
// are reported as fallback without exposing their text.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	message := fallback

	var appErr *apperrors.Error
	if status != http.StatusInternalServerError && errors.As(err, &appErr) {
		message = appErr.Message
	}
	respondError(w, message, status)
}

func statusFor(err error) int {
	switch apperrors.Kind(err) {
	case apperrors.ErrInvalidInput:
		return http.StatusBadRequest
	case apperrors.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrAlreadyExists, apperrors.ErrConflictRetryable:
		return http.StatusConflict
	case apperrors.ErrStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes a request body, rejecting unknown fields
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
