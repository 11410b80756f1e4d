package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	// Callers must not be able to tell which one occurred.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrForbidden    = errors.New("auth: forbidden")

	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: resource conflict")
	ErrInvalidInput = errors.New("auth: invalid input")
)

// Token verification failures keep distinguishable kinds even though the
// HTTP layer collapses all of them into a single unauthorized response.
var (
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenSignature = errors.New("auth: token signature invalid")
	ErrTokenMalformed = errors.New("auth: token malformed")
)
