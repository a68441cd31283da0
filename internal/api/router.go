package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/artmatch/internal/api/handler"
	"github.com/timmy/artmatch/internal/api/middleware"
	"github.com/timmy/artmatch/internal/app"
	"github.com/timmy/artmatch/internal/metrics"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(a *app.App, mode string) *gin.Engine {
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	metrics.Register()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	healthHandler := handler.NewHealthHandler(a.Orchestrator, a.Source.GetSourceID())
	matchHandler := handler.NewMatchHandler(a.Orchestrator, a.Analyzer, a.Recorder)
	runsHandler := handler.NewRunsHandler(a.Runs)

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/match", matchHandler.Match)

		v1.GET("/runs", runsHandler.ListRuns)
		v1.GET("/runs/:id", runsHandler.GetRun)

		v1.GET("/stats", runsHandler.Stats)
	}

	return r
}
