package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the schedule routes and health check
func NewRouter(handler *ScheduleHandler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "drumsched"})
	})

	v1 := router.Group("/api/v1")
	{
		schedule := v1.Group("/drum-schedule")
		{
			schedule.GET("", handler.Get)
			schedule.GET("/arrivals", handler.Arrivals)
			schedule.POST("/regenerate", handler.Regenerate)
			schedule.POST("/approve", handler.Approve)
			schedule.POST("/reopen", handler.Reopen)
		}
	}

	return router
}
