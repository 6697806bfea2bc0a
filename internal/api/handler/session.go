package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tallydeck/tallydeck/internal/api/middleware"
	"github.com/tallydeck/tallydeck/internal/api/request"
	"github.com/tallydeck/tallydeck/internal/api/response"
	"github.com/tallydeck/tallydeck/internal/model"
	"github.com/tallydeck/tallydeck/internal/services/session"
)

// SessionHandler handles session creation and code lookup
type SessionHandler struct {
	sessions *session.Controller
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Controller) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req request.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.GameSlug == "" {
		WriteError(w, NewInvalidRequestError("game_slug is required"))
		return
	}

	mode := model.ScoreMode(req.ScoreMode)
	if mode != model.ScoreModeRounds && mode != model.ScoreModeCategories {
		WriteError(w, NewInvalidRequestError("score_mode must be 'rounds' or 'categories'"))
		return
	}
	if req.MinPlayers < 1 || req.MaxPlayers < req.MinPlayers {
		WriteError(w, NewInvalidRequestError("min_players and max_players must describe a valid range"))
		return
	}
	if mode == model.ScoreModeCategories && len(req.Categories) == 0 {
		WriteError(w, NewInvalidRequestError("categories are required in categories mode"))
		return
	}

	sess, player, err := h.sessions.CreateSession(r.Context(), identity, session.CreateParams{
		GameSlug:    req.GameSlug,
		ScoreMode:   mode,
		TeamBased:   req.TeamBased,
		MinPlayers:  req.MinPlayers,
		MaxPlayers:  req.MaxPlayers,
		AllowGuests: req.AllowGuests,
		TotalRounds: req.TotalRounds,
		Categories:  req.Categories,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.CreateSessionResponse{
		Session: response.SessionFromModel(sess),
		Player:  response.PlayerFromModel(player, true, 0),
	})
}

// FindByCode handles GET /api/v1/sessions/code/{code}
func (h *SessionHandler) FindByCode(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	found, err := h.sessions.FindByCode(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.DiscoveryFromModel(found))
}
