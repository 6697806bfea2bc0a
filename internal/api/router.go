package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tallydeck/tallydeck/internal/api/handler"
	"github.com/tallydeck/tallydeck/internal/api/middleware"
	"github.com/tallydeck/tallydeck/internal/services/auth"
	"github.com/tallydeck/tallydeck/internal/services/session"
	"github.com/tallydeck/tallydeck/internal/services/sessionsync"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger            *slog.Logger
	AuthService       *auth.Service
	SessionController *session.Controller
	SyncService       *sessionsync.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	sessionHandler := handler.NewSessionHandler(cfg.SessionController)
	syncHandler := handler.NewSyncHandler(cfg.SyncService)

	// Create middleware
	identityMiddleware := middleware.Identity(cfg.AuthService)
	requireUserMiddleware := middleware.RequireUser()
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	api.Use(identityMiddleware)

	// Identity routes (no credentials required)
	api.HandleFunc("/players/guest", authHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/players/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", authHandler.Login).Methods(http.MethodPost)

	// Session creation requires a registered account; guests join, they
	// do not host
	create := api.PathPrefix("/sessions").Subrouter()
	create.Use(requireUserMiddleware)
	create.HandleFunc("", sessionHandler.Create).Methods(http.MethodPost)

	// Discovery and sync run on resolved identity alone; access
	// resolution inside the engine decides what each caller sees
	api.HandleFunc("/sessions/code/{code}", sessionHandler.FindByCode).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/sync", syncHandler.Poll).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/join", syncHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/leave", syncHandler.Leave).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/ready", syncHandler.SetReady).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/score", syncHandler.SetScore).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/advance", syncHandler.AdvanceRound).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/status", syncHandler.ChangeStatus).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
