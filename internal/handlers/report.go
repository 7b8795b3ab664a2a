package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/middleware"
	"github.com/crisp-platform/console-server/internal/models"
	"github.com/crisp-platform/console-server/internal/services"
)

// ReportHandler handles report review endpoints.
type ReportHandler struct {
	reportSvc *services.ReportService
	logger    *zap.SugaredLogger
}

// NewReportHandler creates a new report handler
func NewReportHandler(rs *services.ReportService, logger *zap.SugaredLogger) *ReportHandler {
	return &ReportHandler{reportSvc: rs, logger: logger}
}

// List handles GET /api/v1/reports
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.ReportFilter{
		Category: models.Category(q.Get("category")),
		Status:   models.ReportStatus(q.Get("status")),
	}
	if v := q.Get("validated"); v != "" {
		validated := v == "true"
		filter.Validated = &validated
	}

	reports, err := h.reportSvc.List(r.Context(), filter)
	if err != nil {
		h.logger.Errorw("Failed to list reports", "error", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

// Get handles GET /api/v1/reports/{category}/{id}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	category := models.Category(chi.URLParam(r, "category"))
	id := chi.URLParam(r, "id")

	report, userFB, workerFB, err := h.reportSvc.Get(r.Context(), category, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"report":          report,
		"user_feedback":   userFB,
		"worker_feedback": workerFB,
	})
}

// Validate handles POST /api/v1/reports/{category}/{id}/validate
func (h *ReportHandler) Validate(w http.ResponseWriter, r *http.Request) {
	category := models.Category(chi.URLParam(r, "category"))
	id := chi.URLParam(r, "id")
	principal := middleware.PrincipalFrom(r.Context())

	report, err := h.reportSvc.Validate(r.Context(), principal, category, id)
	if err != nil {
		h.logger.Errorw("Failed to validate report",
			"category", category, "id", id, "error", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

type statusRequest struct {
	Status models.ReportStatus `json:"status"`
}

// UpdateStatus handles PUT /api/v1/reports/{category}/{id}/status
func (h *ReportHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	category := models.Category(chi.URLParam(r, "category"))
	id := chi.URLParam(r, "id")
	principal := middleware.PrincipalFrom(r.Context())

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		respondError(w, http.StatusBadRequest, "Status is required")
		return
	}

	report, err := h.reportSvc.UpdateStatus(r.Context(), principal, category, id, req.Status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

type assignRequest struct {
	AccountID string `json:"account_id"`
}

// Assign handles PUT /api/v1/reports/{category}/{id}/assign
func (h *ReportHandler) Assign(w http.ResponseWriter, r *http.Request) {
	category := models.Category(chi.URLParam(r, "category"))
	id := chi.URLParam(r, "id")
	principal := middleware.PrincipalFrom(r.Context())

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountID == "" {
		respondError(w, http.StatusBadRequest, "Account id is required")
		return
	}

	report, err := h.reportSvc.Assign(r.Context(), principal, category, id, req.AccountID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Delete handles DELETE /api/v1/reports/{category}/{id}
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	category := models.Category(chi.URLParam(r, "category"))
	id := chi.URLParam(r, "id")
	principal := middleware.PrincipalFrom(r.Context())

	if err := h.reportSvc.Delete(r.Context(), principal, category, id); err != nil {
		h.logger.Errorw("Failed to delete report",
			"category", category, "id", id, "error", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "archived"})
}
