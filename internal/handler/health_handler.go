package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hackmate/hackathon-console/internal/response"
)

const healthTimeout = 2 * time.Second

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// QueueDepth reports the number of undelivered board intents.
type QueueDepth interface {
	Len(ctx context.Context) (int64, error)
}

// HealthHandler reports dependency status and the intent backlog.
type HealthHandler struct {
	checks map[string]HealthCheck
	queue  QueueDepth
	log    zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checks map[string]HealthCheck, queue QueueDepth, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		queue:  queue,
		log:    log.With().Str("component", "health_handler").Logger(),
	}
}

// Health godoc
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := true
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.log.Warn().Err(err).Str("check", name).Msg("Health check failed")
			results[name] = "down"
			healthy = false
			continue
		}
		results[name] = "up"
	}

	data := gin.H{"checks": results}
	if h.queue != nil {
		if n, err := h.queue.Len(ctx); err == nil {
			data["board_intents_queued"] = n
		}
	}

	if !healthy {
		data["status"] = "degraded"
		response.FailWithMessage(c, http.StatusServiceUnavailable, response.ErrInternal, "dependency check failed", data)
		return
	}
	data["status"] = "ok"
	response.Success(c, http.StatusOK, data)
}
