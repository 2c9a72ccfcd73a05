package model

import "errors"

// ErrorKind classifies business-rule failures
type ErrorKind string

const (
	KindValidation ErrorKind = "validation" // Malformed input
	KindNotFound   ErrorKind = "not_found"  // Room, player or profile missing
	KindConflict   ErrorKind = "conflict"   // Seating, naming or version collision
	KindState      ErrorKind = "state"      // Action not valid right now
)

// Error is a business-rule failure with a stable machine-readable code
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// KindOf returns the kind of a business-rule error, or "" for anything else
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Common errors used across the application
var (
	// Validation errors
	ErrInvalidRoomName  = newError(KindValidation, "INVALID_ROOM_NAME", "room name must contain only letters and spaces (max 25)")
	ErrInvalidPassword  = newError(KindValidation, "INVALID_PASSWORD", "room password does not match")
	ErrEmptyMessage     = newError(KindValidation, "EMPTY_MESSAGE", "message must not be empty")
	ErrMessageTooLong   = newError(KindValidation, "MESSAGE_TOO_LONG", "message must be at most 350 characters")
	ErrInvalidSelection = newError(KindValidation, "INVALID_SELECTION", "selected dice contain no scoring combination")
	ErrInvalidDiceIndex = newError(KindValidation, "INVALID_DICE_INDEX", "selected dice are not part of the pending roll")
	ErrMalformedMessage = newError(KindValidation, "MALFORMED_MESSAGE", "message is not a valid event envelope")
	ErrUnknownEvent     = newError(KindValidation, "UNKNOWN_EVENT", "unknown event")

	// Not found errors
	ErrRoomNotFound    = newError(KindNotFound, "ROOM_NOT_FOUND", "room not found")
	ErrPlayerNotFound  = newError(KindNotFound, "PLAYER_NOT_FOUND", "player is not seated in this room")
	ErrProfileNotFound = newError(KindNotFound, "PROFILE_NOT_FOUND", "player profile not found")

	// Conflict errors
	ErrRoomFull         = newError(KindConflict, "ROOM_FULL", "room is full")
	ErrAlreadyInRoom    = newError(KindConflict, "ALREADY_IN_ROOM", "player already entered this room")
	ErrRoomNameTaken    = newError(KindConflict, "ROOM_NAME_TAKEN", "room name already exists")
	ErrVersionConflict  = newError(KindConflict, "VERSION_CONFLICT", "room was modified concurrently")
	ErrConcurrentUpdate = newError(KindConflict, "CONCURRENT_UPDATE", "room is busy, try again")

	// State errors
	ErrGameNotWaiting = newError(KindState, "GAME_NOT_WAITING", "game has already started")
	ErrGameNotStarted = newError(KindState, "GAME_NOT_STARTED", "game has not started")
	ErrNotPlayerTurn  = newError(KindState, "NOT_YOUR_TURN", "not this player's turn")
	ErrNoPendingRoll  = newError(KindState, "NO_PENDING_ROLL", "there is no roll to score")
)
