package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/middleware"
	"github.com/crisp-platform/console-server/internal/services"
)

// NotificationHandler handles broadcast notification endpoints.
type NotificationHandler struct {
	notificationSvc *services.NotificationService
	logger          *zap.SugaredLogger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(ns *services.NotificationService, logger *zap.SugaredLogger) *NotificationHandler {
	return &NotificationHandler{notificationSvc: ns, logger: logger}
}

type broadcastRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Broadcast handles POST /api/v1/notifications
func (h *NotificationHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		respondError(w, http.StatusBadRequest, "Title is required")
		return
	}

	principal := middleware.PrincipalFrom(r.Context())
	n, err := h.notificationSvc.Broadcast(r.Context(), principal, req.Title, req.Body)
	if err != nil {
		h.logger.Errorw("Broadcast failed", "error", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, n)
}

// List handles GET /api/v1/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.notificationSvc.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, notifications)
}
