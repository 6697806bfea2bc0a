package handler

import (
	"encoding/json"
	"net/http"

	"github.com/tallydeck/tallydeck/internal/api/request"
	"github.com/tallydeck/tallydeck/internal/api/response"
	"github.com/tallydeck/tallydeck/internal/services/auth"
)

// AuthHandler handles account and guest identity endpoints
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// CreateGuest handles POST /api/v1/players/guest
func (h *AuthHandler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusCreated, response.GuestResponse{
		GuestID: h.authService.NewGuestID(),
	})
}

// Register handles POST /api/v1/players/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Username == "" || req.Password == "" {
		WriteError(w, NewInvalidRequestError("username and password are required"))
		return
	}

	account, token, err := h.authService.Register(r.Context(), req.Username, req.DisplayName, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AuthResponse{
		Account: response.AccountFromModel(account),
		Token:   token,
	})
}

// Login handles POST /api/v1/players/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	account, token, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponse{
		Account: response.AccountFromModel(account),
		Token:   token,
	})
}
