package app

import (
	"context"
	"database/sql"

	"go-wages/internal/analysis"
	"go-wages/internal/ingest"
	"go-wages/internal/messaging/kafka"
	"go-wages/internal/progress"
	"go-wages/internal/shared/lock"
	"go-wages/internal/shared/workerpool"
	"go-wages/internal/wage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type modules struct {
	wages    wage.Service
	progress progress.Service
	ingest   ingest.Service
	analysis analysis.Service
	pool     *workerpool.Pool
}

// newServices builds the service graph shared by the API and the consumer.
func newServices(db *sql.DB, gormDB *gorm.DB, rdb *redis.Client, cfg Config) (modules, *ingest.Engine) {
	// --- Repositories ---
	wageRepo := wage.NewRepository(gormDB)
	progressRepo := progress.NewRepository(db)
	analysisRepo := analysis.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Services ---
	wageService := wage.NewService(wageRepo, rdb)
	progressService := progress.NewService(progressRepo)
	ledger := progress.NewLedgerWithOutbox(db, progressRepo, outboxRepo)
	analysisService := analysis.NewService(
		analysisRepo,
		wageRepo,
		progressService,
		lock.New(rdb, analysis.LockTTL),
		rdb,
		cfg.TitleTopN,
	)

	engine := ingest.NewEngine(wageRepo, ledger,
		ingest.WithChunkSize(cfg.IngestChunkSize),
		ingest.WithMetrics(ingest.NewMetrics(prometheus.DefaultRegisterer)),
	)

	return modules{
		wages:    wageService,
		progress: progressService,
		analysis: analysisService,
	}, engine
}

func registerModules(
	ctx context.Context,
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	cfg Config,
) modules {
	mods, engine := newServices(db, gormDB, rdb, cfg)

	mods.pool = workerpool.New(cfg.UploadWorkers, cfg.UploadQueue)
	mods.pool.Start(ctx)
	mods.ingest = ingest.NewService(engine, mods.pool, mods.wages)

	// --- Handlers ---
	wageHandler := wage.NewHandler(mods.wages)
	progressHandler := progress.NewHandler(mods.progress)
	ingestHandler := ingest.NewHandler(mods.ingest)
	analysisHandler := analysis.NewHandler(mods.analysis)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		wage.RegisterRoutes(api, wageHandler)
		progress.RegisterRoutes(api, progressHandler)
		ingest.RegisterRoutes(api, ingestHandler, rdb)
		analysis.RegisterRoutes(api, analysisHandler)
	}

	return mods
}
