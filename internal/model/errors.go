package model

import "errors"

// Common errors used across the application
var (
	// Not found
	ErrSessionNotFound = errors.New("session not found")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrAccountNotFound = errors.New("account not found")

	// Forbidden
	ErrNotHost   = errors.New("caller is not the host")
	ErrForbidden = errors.New("operation not permitted at this access level")

	// Conflict (stale transitions)
	ErrStaleTransition  = errors.New("state transition is stale or invalid")
	ErrSessionNotActive = errors.New("session is not active")
	ErrSessionEnded     = errors.New("session has ended")

	// Preconditions for activation
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrPlayersNotReady  = errors.New("not all players are ready")

	// Join failures
	ErrSessionFull      = errors.New("session is at capacity")
	ErrSessionNotListed = errors.New("session is not joinable by code")

	// Score writes
	ErrInvalidAddress = errors.New("score address outside the session's round or category set")
)
