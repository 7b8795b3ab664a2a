package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/models"
	"github.com/crisp-platform/console-server/internal/services"
)

// AuditHandler exposes the operator accountability trail.
type AuditHandler struct {
	auditSvc *services.AuditService
	logger   *zap.SugaredLogger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(as *services.AuditService, logger *zap.SugaredLogger) *AuditHandler {
	return &AuditHandler{auditSvc: as, logger: logger}
}

func limitFrom(r *http.Request) int {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	return limit
}

// Recent handles GET /api/v1/audit/recent
func (h *AuditHandler) Recent(w http.ResponseWriter, r *http.Request) {
	entries, err := h.auditSvc.FetchRecent(r.Context(), limitFrom(r))
	if err != nil {
		h.logger.Errorw("Failed to fetch audit entries", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch audit entries")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// ByReport handles GET /api/v1/audit/reports/{category}/{id}
func (h *AuditHandler) ByReport(w http.ResponseWriter, r *http.Request) {
	category := models.Category(chi.URLParam(r, "category"))
	id := chi.URLParam(r, "id")

	entries, err := h.auditSvc.FetchByReport(r.Context(), category, id, limitFrom(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch audit entries")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
