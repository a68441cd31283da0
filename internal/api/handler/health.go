package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/artmatch/internal/service"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	orchestrator *service.Orchestrator
	sourceID     string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(orchestrator *service.Orchestrator, sourceID string) *HealthHandler {
	return &HealthHandler{orchestrator: orchestrator, sourceID: sourceID}
}

// Health returns the service status with the candidate source and query
// cache counters.
func (h *HealthHandler) Health(c *gin.Context) {
	body := gin.H{
		"status": "ok",
		"source": h.sourceID,
	}
	if h.orchestrator != nil {
		body["query_cache"] = h.orchestrator.QueryCacheStats()
	}
	c.JSON(http.StatusOK, body)
}
