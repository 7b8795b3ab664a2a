package handlers

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/models"
)

var startTime = time.Now()

const version = "1.3.0"

// HealthHandler provides health check endpoints
type HealthHandler struct {
	db     *pgxpool.Pool
	rdb    *redis.Client
	logger *zap.SugaredLogger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *pgxpool.Pool, rdb *redis.Client, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, logger: logger}
}

// Check handles GET /api/v1/health (liveness probe)
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:  "ok",
		Version: version,
		Uptime:  time.Since(startTime).String(),
	})
}

// Ready handles GET /api/v1/health/ready (readiness probe)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{
		Status:   "ready",
		Version:  version,
		Uptime:   time.Since(startTime).String(),
		Database: "connected",
		Redis:    "connected",
	}

	code := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		status.Status = "not ready"
		status.Database = "disconnected"
		code = http.StatusServiceUnavailable
	}
	if err := h.rdb.Ping(r.Context()).Err(); err != nil {
		status.Status = "not ready"
		status.Redis = "disconnected"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, status)
}
