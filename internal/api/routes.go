package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler, logger *slog.Logger) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(Logger(logger))

	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		scorecard := v1.Group("/scorecard")
		{
			scorecard.GET("", handler.GetScorecard)
			scorecard.GET("/summary", handler.GetScorecardSummary)
		}

		v1.GET("/removal-report", handler.GetRemovalReport)
		v1.GET("/records", handler.GetRecords)
	}

	return router
}
