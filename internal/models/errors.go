package models

import "errors"

// Failure taxonomy surfaced by the core. Anything else is converted to
// one of these at the component that detects it.
var (
	// ErrInvalidRequest flags a malformed or incomplete event payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotAuthorized flags an action on a room the user is not a participant of.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrStoreUnavailable flags a durable or ephemeral backend failure.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrRoomNotFound flags a lookup of a room that does not exist.
	ErrRoomNotFound = errors.New("chat room not found")
)
