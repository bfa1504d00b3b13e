// Package apperr defines the sentinel errors shared across services and
// handlers. Repositories wrap the underlying cause with %w so callers can
// match with errors.Is and still log the full chain.
package apperr

import "errors"

var (
	// ErrUnauthorized indicates a missing or invalid session
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials indicates a failed signin attempt
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken indicates a signup with an already registered email
	ErrEmailTaken = errors.New("email already registered")

	// ErrNoActiveRound indicates no round covers the current time. It is
	// distinct from a query failure so callers can tell "no round
	// configured" from "fetch failed".
	ErrNoActiveRound = errors.New("no active challenge round")

	// ErrNoMatch indicates the user has no twiin for the round
	ErrNoMatch = errors.New("no match for round")

	// ErrUserNotFound indicates an unknown user id
	ErrUserNotFound = errors.New("user not found")

	// ErrChallengeNotFound indicates an unknown challenge id
	ErrChallengeNotFound = errors.New("challenge not found")

	// ErrSubmissionNotFound indicates an unknown submission id
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrNotAgreed indicates a submission attempt before both selections match
	ErrNotAgreed = errors.New("selections do not agree")

	// ErrInvalidMedia indicates a missing payload or unsupported content type
	ErrInvalidMedia = errors.New("invalid media")

	// ErrValidation indicates a malformed or incomplete request
	ErrValidation = errors.New("validation failed")

	// ErrStorage indicates an object storage failure
	ErrStorage = errors.New("storage failure")
)
