package progress

import (
	"go-wages/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	uploads := r.Group("/uploads")
	{
		uploads.GET("/progress", middleware.RateLimitByIP(10, 40), handler.Get)
	}
}
