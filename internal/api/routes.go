package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.WorkerInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)

	fire := s.router.Group("/api/fire-detection")
	{
		fire.POST("/start", s.workerHandler.StartDetection)
		fire.POST("/stop/:cameraId", s.workerHandler.StopDetection)
		fire.GET("/status/:cameraId", s.workerHandler.GetStatus)
		fire.GET("/workers", s.workerHandler.ListWorkers)
		fire.POST("/heartbeat", s.workerHandler.Heartbeat)

		fire.POST("/alert", s.alertHandler.SubmitAlert)
		fire.GET("", s.alertHandler.ListAlerts)
		fire.GET("/stats", s.alertHandler.GetStats)
		fire.GET("/analytics/hourly", s.alertHandler.GetAnalytics)
		fire.GET("/:alertId", s.alertHandler.GetAlert)
		fire.POST("/:alertId/resolve", s.alertHandler.ResolveAlert)
		fire.POST("/:alertId/false-positive", s.alertHandler.MarkFalsePositive)
	}

	system := s.router.Group("/system")
	{
		system.GET("/stats", s.systemHandler.GetStats)
	}

	if registry := s.container.Metrics.Registry(); registry != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}
}
