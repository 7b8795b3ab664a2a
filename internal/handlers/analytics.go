package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/aggregate"
	"github.com/crisp-platform/console-server/internal/middleware"
	"github.com/crisp-platform/console-server/internal/services"
)

// AnalyticsHandler serves the chart and dashboard view models.
type AnalyticsHandler struct {
	analyticsSvc *services.AnalyticsService
	logger       *zap.SugaredLogger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(as *services.AnalyticsService, logger *zap.SugaredLogger) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsSvc: as, logger: logger}
}

func periodFrom(r *http.Request) (aggregate.Period, bool) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		return aggregate.PeriodMonth, true
	}
	p, err := aggregate.ParsePeriod(raw)
	return p, err == nil
}

// Categories handles GET /api/v1/analytics/categories
func (h *AnalyticsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	period, ok := periodFrom(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Unknown period")
		return
	}
	principal := middleware.PrincipalFrom(r.Context())

	counts, unclassified := h.analyticsSvc.CategoryDistribution(r.Context(), principal, period)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"period":       period,
		"categories":   counts,
		"unclassified": unclassified,
	})
}

// DateTrends handles GET /api/v1/analytics/trends
func (h *AnalyticsHandler) DateTrends(w http.ResponseWriter, r *http.Request) {
	period, ok := periodFrom(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Unknown period")
		return
	}
	principal := middleware.PrincipalFrom(r.Context())

	if r.URL.Query().Get("split") == "category" {
		dates, series := h.analyticsSvc.DateTrendsPerCategory(r.Context(), principal, period)
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"period": period,
			"dates":  dates,
			"series": series,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"period": period,
		"trends": h.analyticsSvc.DateTrends(r.Context(), principal, period),
	})
}

// HourTrends handles GET /api/v1/analytics/hours
func (h *AnalyticsHandler) HourTrends(w http.ResponseWriter, r *http.Request) {
	period, ok := periodFrom(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Unknown period")
		return
	}
	principal := middleware.PrincipalFrom(r.Context())

	if r.URL.Query().Get("split") == "category" {
		rows, unclassified := h.analyticsSvc.HourTrendsPerCategory(r.Context(), principal, period)
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"period":       period,
			"series":       rows,
			"unclassified": unclassified,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"period":  period,
		"buckets": h.analyticsSvc.HourTrends(r.Context(), principal, period),
	})
}

// Summary handles GET /api/v1/analytics/summary (dashboard cards)
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFrom(r.Context())
	respondJSON(w, http.StatusOK, h.analyticsSvc.Summary(r.Context(), principal))
}
