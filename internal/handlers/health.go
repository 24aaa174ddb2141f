package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is satisfied by database.PostgresDB, database.SQLiteDB and
// database.RedisDB.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db    HealthChecker
	redis HealthChecker
}

func NewHealthHandler(db, redis HealthChecker) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Redis    string `json:"redis,omitempty"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "alive"})
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ready", Database: "ok", Redis: "ok"}
	status := http.StatusOK

	if h.db != nil {
		if err := h.db.Health(ctx); err != nil {
			resp.Database = "unavailable"
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
		}
	}
	if h.redis != nil {
		if err := h.redis.Health(ctx); err != nil {
			resp.Redis = "unavailable"
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}
