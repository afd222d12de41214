package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all ops API routes.
func SetupRoutes(router *gin.Engine, handler *Handler) {
	// Health and readiness checks
	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadyCheck)

	// Prometheus metrics
	if handler.telemetry != nil {
		router.GET("/metrics", gin.WrapH(handler.telemetry.Handler()))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/queue/stats", handler.GetQueueStats)              // GET  /api/v1/queue/stats
		v1.POST("/reports/:id/reprocess", handler.ReprocessReport) // POST /api/v1/reports/:id/reprocess
		v1.POST("/classify/preview", handler.PreviewClassification) // POST /api/v1/classify/preview
	}
}
