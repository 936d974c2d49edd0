package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves GET /healthz.
type HealthHandler struct {
	db       Pinger
	compiler string
	logger   *slog.Logger
}

// NewHealthHandler reports compiler as the active syntax checker backend
// ("docker" or "unavailable").
func NewHealthHandler(db Pinger, compiler string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, compiler: compiler, logger: logger}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Compiler string `json:"compiler"`
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	res := healthResponse{Status: "ok", Database: "ok", Compiler: h.compiler}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Error("health check: database unreachable", slog.String("error", err.Error()))
		res.Status, res.Database = "degraded", "unreachable"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, res)
}
