package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tallydeck/tallydeck/internal/api/middleware"
	"github.com/tallydeck/tallydeck/internal/api/request"
	"github.com/tallydeck/tallydeck/internal/api/response"
	"github.com/tallydeck/tallydeck/internal/model"
	"github.com/tallydeck/tallydeck/internal/services/sessionsync"
)

// SyncHandler handles the per-session poll and mutation endpoints
type SyncHandler struct {
	sync *sessionsync.Service
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(sync *sessionsync.Service) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// Poll handles GET /api/v1/sessions/{id}/sync?since={cursor}
func (h *SyncHandler) Poll(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	sessionID := model.SessionID(mux.Vars(r)["id"])

	var cursor uint64
	if since := r.URL.Query().Get("since"); since != "" {
		parsed, err := strconv.ParseUint(since, 10, 64)
		if err != nil {
			WriteError(w, NewInvalidRequestError("since must be a non-negative integer"))
			return
		}
		cursor = parsed
	}

	snap, err := h.sync.Poll(r.Context(), sessionID, identity, cursor)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SyncFromSnapshot(snap))
}

// Join handles POST /api/v1/sessions/{id}/join
func (h *SyncHandler) Join(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	sessionID := model.SessionID(mux.Vars(r)["id"])

	var req request.JoinSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Empty body means join under the identity's own name
		req = request.JoinSessionRequest{}
	}

	player, err := h.sync.Join(r.Context(), sessionID, identity, req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.JoinResponse{
		Player: response.PlayerFromModel(player, true, 0),
	})
}

// Leave handles POST /api/v1/sessions/{id}/leave
func (h *SyncHandler) Leave(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	sessionID := model.SessionID(mux.Vars(r)["id"])

	if err := h.sync.Leave(r.Context(), sessionID, identity); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// SetReady handles POST /api/v1/sessions/{id}/ready
func (h *SyncHandler) SetReady(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	sessionID := model.SessionID(mux.Vars(r)["id"])

	var req request.SetReadyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if err := h.sync.SetReady(r.Context(), sessionID, identity, req.Ready); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// SetScore handles POST /api/v1/sessions/{id}/score
func (h *SyncHandler) SetScore(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	sessionID := model.SessionID(mux.Vars(r)["id"])

	var req request.SetScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.PlayerID == "" {
		WriteError(w, NewInvalidRequestError("player_id is required"))
		return
	}

	addr := model.CellAddress{Round: req.Round, CategoryID: req.CategoryID}
	_, err := h.sync.SetScoreCell(r.Context(), sessionID, identity, model.PlayerID(req.PlayerID), addr, req.Value)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// AdvanceRound handles POST /api/v1/sessions/{id}/advance
func (h *SyncHandler) AdvanceRound(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	sessionID := model.SessionID(mux.Vars(r)["id"])

	var req request.AdvanceRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	sess, err := h.sync.AdvanceRound(r.Context(), sessionID, identity, req.FromRound)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(sess))
}

// ChangeStatus handles POST /api/v1/sessions/{id}/status
func (h *SyncHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	sessionID := model.SessionID(mux.Vars(r)["id"])

	var req request.ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	sess, err := h.sync.ChangeStatus(r.Context(), sessionID, identity, model.SessionStatus(req.Status))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(sess))
}
