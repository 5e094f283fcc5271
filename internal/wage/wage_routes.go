package wage

import (
	"go-wages/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	wages := r.Group("/wages")
	{
		wages.GET("", middleware.RateLimitByIP(5, 20), handler.Search)
		wages.GET("/aggregate", middleware.RateLimitByIP(5, 20), handler.Aggregate)
		wages.GET("/filters", middleware.RateLimitByIP(10, 40), handler.FilterOptions)
	}
}
