// Package common defines shared constants and sentinel errors used across
// the ledger core and both front ends. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Validation errors: expected, user-facing outcomes. They are reported
	// back to the originating front end as a short message and never logged
	// as incidents.
	ErrUnknownItem       = errors.New("unknown item")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrSessionClosed     = errors.New("session closed")
	ErrNoActiveSession   = errors.New("no active session")
	ErrUserLocked        = errors.New("user locked")
	ErrUserBlocked       = errors.New("user blocked")
	ErrInsufficientStock = errors.New("insufficient stock")

	// Lookup errors.
	ErrOrderNotFound   = errors.New("order not found")
	ErrSessionNotFound = errors.New("session not found")

	// Infrastructure errors.
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrUnauthorized       = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
