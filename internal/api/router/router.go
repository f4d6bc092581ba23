package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talentops/hrsync/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if deps.DB != nil {
			if err := deps.DB.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"error":  "database unavailable",
				})
				return
			}
		}
		if deps.Broker != nil && !deps.Broker.IsConnected() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "message broker unavailable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "hrsync-api",
		})
	})

	batchHandler := handler.NewBatchHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		rows := v1.Group("/rows")
		{
			// POST /api/v1/rows - Replace the staged uploader table
			rows.POST("", batchHandler.StageRows)

			// GET /api/v1/rows - List rows with per-row outcomes
			rows.GET("", batchHandler.ListRows)

			// POST /api/v1/rows/retry-failed - Re-run only FAILED rows
			rows.POST("/retry-failed", batchHandler.RetryFailed)
		}

		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs - Start a batch job
			jobs.POST("", batchHandler.StartJob)

			// GET /api/v1/jobs/current - Progress snapshot
			jobs.GET("/current", batchHandler.GetJob)

			// POST /api/v1/jobs/current/cancel - Cancel the active job
			jobs.POST("/current/cancel", batchHandler.CancelJob)
		}
	}

	return r
}
