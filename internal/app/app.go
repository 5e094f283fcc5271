package app

import (
	"context"
	"net/http"

	"go-wages/internal/middleware"
	"go-wages/internal/shared/connection"
	"go-wages/internal/shared/migration"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildApp connects infrastructure, registers every module on router and
// returns a cleanup that drains the upload pool and closes connections.
func BuildApp(router *gin.Engine, cfg Config) (func(), error) {
	logger := zap.L().Named("app.api")

	if cfg.RunMigrations {
		if err := migration.Migrate(cfg.DB.URL(), -1, logger); err != nil {
			return nil, err
		}
	}

	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB, 5)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	// Redis backs caches, locks and idempotency; the API degrades without it.
	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
	if err != nil {
		logger.Warn("redis unavailable, running without cache", zap.Error(err))
	}

	router.Use(
		middleware.RequestID(),
		middleware.ContextLogger(zap.L()),
		middleware.Metrics(),
	)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ctx, cancel := context.WithCancel(context.Background())
	mods := registerModules(ctx, router, sqlDB, gormDB, rdb, cfg)

	cleanup := func() {
		mods.pool.Close()
		cancel()
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = sqlDB.Close()
	}
	return cleanup, nil
}
