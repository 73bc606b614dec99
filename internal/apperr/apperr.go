// Package apperr defines the error taxonomy shared by the sharing and
// webhook subsystems. Handlers translate these sentinels into HTTP status
// codes; repositories and services wrap them with context using
// github.com/pkg/errors so the sentinel survives errors.Is checks.
package apperr

import "errors"

var (
	// ErrInvalidArgument covers malformed roles, empty event sets and
	// malformed identifiers. Never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound covers missing tokens, ids and wrong-status lookups.
	// For invitation acceptance it deliberately does not distinguish
	// "never existed" from "already consumed".
	ErrNotFound = errors.New("not found")

	// ErrExpired marks a token whose validity window has passed. Kept
	// distinct from ErrNotFound so clients can render a targeted message.
	ErrExpired = errors.New("expired")

	// ErrInactive marks a shareable link that was switched off by its owner.
	ErrInactive = errors.New("inactive")

	// ErrDanglingReference marks a token whose referenced upload no longer
	// exists. Surfaced to HTTP clients as a not-found.
	ErrDanglingReference = errors.New("referenced upload no longer exists")
)
