package ingest

import (
	"go-wages/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rdb *redis.Client) {
	uploads := r.Group("/uploads")
	{
		uploads.POST("",
			middleware.RateLimitByIP(1, 5),
			middleware.Idempotency(rdb, zap.L()),
			handler.Upload,
		)
	}
}
