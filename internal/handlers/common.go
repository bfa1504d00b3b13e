package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"twiin-backend/internal/apperr"
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

// respondAppError maps a service error to an HTTP status via the sentinel
// taxonomy and sends it
func respondAppError(w http.ResponseWriter, err error) {
	respondError(w, err.Error(), statusForError(err))
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, apperr.ErrUnauthorized),
		errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrNoActiveRound),
		errors.Is(err, apperr.ErrNoMatch),
		errors.Is(err, apperr.ErrUserNotFound),
		errors.Is(err, apperr.ErrChallengeNotFound),
		errors.Is(err, apperr.ErrSubmissionNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrEmailTaken),
		errors.Is(err, apperr.ErrNotAgreed):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInvalidMedia),
		errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrStorage):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
