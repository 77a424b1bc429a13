package app

import (
	"database/sql"
	"time"

	"go-paytax/internal/messaging/kafka"
	"go-paytax/internal/rates"
	"go-paytax/internal/revision"
	"go-paytax/internal/taxation"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	logger := zap.L()

	// --- Repositories ---
	taxationRepo := taxation.NewRepository(gormDB)
	revisionRepo := revision.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Statutory rates ---
	ratesProvider := rates.NewCachedProvider(
		rates.NewStaticProvider(),
		rdb,
		12*time.Hour,
		logger,
	)

	// --- Services ---
	engine := taxation.NewEngine(ratesProvider)
	taxationService := taxation.NewService(taxationRepo, engine, logger)
	revisionService := revision.NewService(db, revisionRepo, outboxRepo, ratesProvider, taxationRepo, logger)

	// --- Handlers ---
	taxationHandler := taxation.NewHandler(taxationService, logger)
	revisionHandler := revision.NewHandler(revisionService, logger)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		taxation.RegisterRoutes(api, taxationHandler, rdb, logger)
		revision.RegisterRoutes(api, revisionHandler, rdb, logger)
	}

	return nil
}
