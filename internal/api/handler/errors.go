package handler

import (
	"net/http"

	"github.com/tallydeck/tallydeck/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest     = apierr.CodeInvalidRequest
	CodeUnauthorized       = apierr.CodeUnauthorized
	CodeForbidden          = apierr.CodeForbidden
	CodeNotHost            = apierr.CodeNotHost
	CodeSessionNotFound    = apierr.CodeSessionNotFound
	CodePlayerNotFound     = apierr.CodePlayerNotFound
	CodeStaleTransition    = apierr.CodeStaleTransition
	CodeSessionNotActive   = apierr.CodeSessionNotActive
	CodeSessionEnded       = apierr.CodeSessionEnded
	CodeSessionFull        = apierr.CodeSessionFull
	CodeNotEnoughPlayers   = apierr.CodeNotEnoughPlayers
	CodePlayersNotReady    = apierr.CodePlayersNotReady
	CodeInvalidAddress     = apierr.CodeInvalidAddress
	CodeUsernameExists     = apierr.CodeUsernameExists
	CodeInvalidCredentials = apierr.CodeInvalidCredentials
	CodeInternalError      = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return apierr.NewUnauthorizedError()
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return apierr.NewInternalError()
}
