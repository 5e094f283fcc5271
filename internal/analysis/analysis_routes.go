package analysis

import (
	"go-wages/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	partitions := r.Group("/partitions/:location/:year")
	{
		partitions.GET("/summary", middleware.RateLimitByIP(10, 40), handler.Summary)
		partitions.GET("/pyramid", middleware.RateLimitByIP(10, 40), handler.Pyramid)
		partitions.GET("/titles", middleware.RateLimitByIP(10, 40), handler.Titles)
		partitions.POST("/regenerate", middleware.RateLimitByIP(1, 3), handler.Regenerate)
	}

	r.GET("/summaries", middleware.RateLimitByIP(5, 20), handler.ListSummaries)
}
