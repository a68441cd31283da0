package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/timmy/artmatch/internal/domain"
	"github.com/timmy/artmatch/internal/logger"
	"github.com/timmy/artmatch/internal/service"
)

// MatchHandler handles matching endpoints.
type MatchHandler struct {
	orchestrator *service.Orchestrator
	analyzer     *service.KeywordAnalyzer
	recorder     *service.RunRecorder
}

// NewMatchHandler creates a new match handler.
// Parameters:
//   - orchestrator: runs the fallback strategies.
//   - analyzer: builds an analysis when only poem text is posted.
//   - recorder: persists runs; nil skips recording.
//
// Returns:
//   - *MatchHandler: initialized handler.
func NewMatchHandler(orchestrator *service.Orchestrator, analyzer *service.KeywordAnalyzer, recorder *service.RunRecorder) *MatchHandler {
	return &MatchHandler{
		orchestrator: orchestrator,
		analyzer:     analyzer,
		recorder:     recorder,
	}
}

// PoemInput is raw poem text to analyze by keyword.
type PoemInput struct {
	Title string `json:"title"`
	Poet  string `json:"poet"`
	Text  string `json:"text"`
}

// MatchRequest is the body of POST /api/v1/match.
type MatchRequest struct {
	Analysis json.RawMessage `json:"analysis"`
	Poem     *PoemInput      `json:"poem"`
	Count    int             `json:"count"`
	Explain  bool            `json:"explain"`
}

// Match handles POST /api/v1/match.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *MatchHandler) Match(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	var analysis *domain.PoemAnalysis
	switch {
	case len(req.Analysis) > 0 && string(req.Analysis) != "null":
		parsed, err := domain.ParsePoemAnalysis(req.Analysis)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid analysis: " + err.Error(),
			})
			return
		}
		analysis = parsed
	case req.Poem != nil && req.Poem.Text != "":
		analysis = h.analyzer.Analyze(req.Poem.Title, req.Poem.Poet, req.Poem.Text)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Either 'analysis' or 'poem.text' is required",
		})
		return
	}

	ctx := c.Request.Context()
	result, err := h.orchestrator.Match(ctx, service.MatchRequest{
		Analysis: analysis,
		Count:    req.Count,
		Explain:  req.Explain,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrInvalidRequest) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"error":      "Match failed: " + err.Error(),
			"request_id": logger.GetRequestID(ctx),
		})
		return
	}

	if h.recorder != nil {
		if _, err := h.recorder.Record(ctx, analysis, result); err != nil {
			logger.CtxError(ctx, "Failed to record run %s: %v", result.RunID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":      result.RunID,
		"strategy":    result.Strategy,
		"reason":      result.Reason,
		"attempts":    result.Attempts,
		"duration_ms": result.Duration.Milliseconds(),
		"matches":     result.Matches,
		"analysis":    analysis,
	})
}

func intQuery(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
