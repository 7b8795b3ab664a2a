package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/restapi"
)

// WeatherHandler proxies weather lookups for the map overlay.
type WeatherHandler struct {
	weather *restapi.WeatherClient
	logger  *zap.SugaredLogger
}

// NewWeatherHandler creates a new weather handler
func NewWeatherHandler(wc *restapi.WeatherClient, logger *zap.SugaredLogger) *WeatherHandler {
	return &WeatherHandler{weather: wc, logger: logger}
}

// Current handles GET /api/v1/weather?lat=..&lon=..
func (h *WeatherHandler) Current(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil {
		respondError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}

	conditions, err := h.weather.Current(r.Context(), lat, lon)
	if err != nil {
		h.logger.Warnw("Weather lookup failed", "lat", lat, "lon", lon, "error", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, conditions)
}
