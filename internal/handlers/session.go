package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/session"
)

// SessionHandler exposes login, logout and the current principal.
type SessionHandler struct {
	sessions *session.Store
	logger   *zap.SugaredLogger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Store, logger *zap.SugaredLogger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	principal, token, err := h.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Warnw("Login rejected", "username", req.Username, "error", err)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"principal": principal,
		"access":    token,
	})
}

// Logout handles POST /api/v1/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		h.logger.Errorw("Logout failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to clear session")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Current handles GET /api/v1/session
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	principal, err := h.sessions.Current(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read session")
		return
	}
	if principal == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"authenticated": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"principal":     principal,
	})
}
