package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamcmcbot/openrouter-chatbot-sub002/internal/httputil"
)

// HealthHandler reports process and store health.
type HealthHandler struct {
	pool *pgxpool.Pool
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(pool *pgxpool.Pool) *HealthHandler {
	return &HealthHandler{pool: pool}
}

// Health reports liveness plus a quick store ping.
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	store := "ok"
	status := http.StatusOK
	if err := h.pool.Ping(ctx); err != nil {
		store = "unreachable"
		status = http.StatusServiceUnavailable
	}

	httputil.RespondJSON(w, status, map[string]string{
		"status": "ok",
		"store":  store,
	})
}
