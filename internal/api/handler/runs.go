package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/timmy/artmatch/internal/repository"
)

const maxRunPageSize = 100

// RunsHandler serves recorded match runs.
type RunsHandler struct {
	runs *repository.MatchRepository
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(runs *repository.MatchRepository) *RunsHandler {
	return &RunsHandler{runs: runs}
}

// ListRuns handles GET /api/v1/runs.
// Query parameters limit (default 20, max 100) and offset page the results.
func (h *RunsHandler) ListRuns(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	if limit == 0 || limit > maxRunPageSize {
		limit = maxRunPageSize
	}
	offset := intQuery(c, "offset", 0)

	runs, total, err := h.runs.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list runs: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":   runs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetRun handles GET /api/v1/runs/:id.
func (h *RunsHandler) GetRun(c *gin.Context) {
	run, err := h.runs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Run not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get run: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, run)
}

// Stats handles GET /api/v1/stats with run counts per outcome.
func (h *RunsHandler) Stats(c *gin.Context) {
	counts, err := h.runs.CountByReason(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get stats: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"runs_by_reason": counts,
	})
}
