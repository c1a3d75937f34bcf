package http

import (
	"github.com/dwarvesf/withdrawal-engine/internal/handler"

	"github.com/gin-gonic/gin"
)

func loadRoutes(r *gin.Engine, h *handler.Handler) {
	withdrawal := r.Group("/withdrawal")
	{
		withdrawal.POST("/request", h.WithdrawalHandler.Submit)
		withdrawal.DELETE("/request/:id", h.WithdrawalHandler.Cancel)
		withdrawal.GET("/status/:id", h.WithdrawalHandler.Status)
		withdrawal.GET("/request-queue/status", h.WithdrawalHandler.RequestQueueStatus)
		withdrawal.GET("/tx-queue/status", h.WithdrawalHandler.TxQueueStatus)
	}

	// health checks
	r.GET("/healthz", h.HealthHandler.Basic)
	healthGroup := r.Group("/api/v1/health")
	{
		healthGroup.GET("/db", h.HealthHandler.Database)
		healthGroup.GET("/external", h.HealthHandler.External)
		healthGroup.GET("/jobs", h.HealthHandler.Jobs)
	}

	// prometheus metrics
	r.GET("/metrics", h.MetricsHandler.Handler())
}
