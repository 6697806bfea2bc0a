package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tallydeck/tallydeck/internal/model"
	"github.com/tallydeck/tallydeck/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotHost            = "NOT_HOST"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeStaleTransition    = "STALE_TRANSITION"
	CodeSessionNotActive   = "SESSION_NOT_ACTIVE"
	CodeSessionEnded       = "SESSION_ENDED"
	CodeSessionFull        = "SESSION_FULL"
	CodeNotEnoughPlayers   = "NOT_ENOUGH_PLAYERS"
	CodePlayersNotReady    = "PLAYERS_NOT_READY"
	CodeInvalidAddress     = "INVALID_ADDRESS"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "Session not found"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrAccountNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Account not found"}}
	case errors.Is(err, model.ErrNotHost):
		return &httpError{http.StatusForbidden, APIError{CodeNotHost, "Only the host can perform this action"}}
	case errors.Is(err, model.ErrForbidden):
		return &httpError{http.StatusForbidden, APIError{CodeForbidden, "You do not have access to this session"}}
	case errors.Is(err, model.ErrStaleTransition):
		return &httpError{http.StatusConflict, APIError{CodeStaleTransition, "Session state changed since you last polled"}}
	case errors.Is(err, model.ErrSessionNotActive):
		return &httpError{http.StatusConflict, APIError{CodeSessionNotActive, "Session is not active"}}
	case errors.Is(err, model.ErrSessionEnded):
		return &httpError{http.StatusConflict, APIError{CodeSessionEnded, "Session has ended"}}
	case errors.Is(err, model.ErrSessionFull):
		return &httpError{http.StatusConflict, APIError{CodeSessionFull, "Session is at capacity"}}
	case errors.Is(err, model.ErrSessionNotListed):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "No joinable session with that code"}}
	case errors.Is(err, model.ErrNotEnoughPlayers):
		return &httpError{http.StatusConflict, APIError{CodeNotEnoughPlayers, "Not enough players to start"}}
	case errors.Is(err, model.ErrPlayersNotReady):
		return &httpError{http.StatusConflict, APIError{CodePlayersNotReady, "Not all players are ready"}}
	case errors.Is(err, model.ErrInvalidAddress):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidAddress, "Score address is outside the session's rounds or categories"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidToken):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired token"}}
	case errors.Is(err, auth.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
