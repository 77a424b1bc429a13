package taxation

import (
	"go-paytax/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	taxation := r.Group("/taxation")
	taxation.Use(middleware.AuthMiddleware())
	taxation.Use(middleware.ContextLogger(logger))
	{
		taxation.POST("/bulk-compute",
			middleware.RateLimitByUser(0.1, 1),
			middleware.Idempotency(rdb),
			handler.BulkCompute,
		)

		taxation.GET("/:employee_id/:tax_year",
			middleware.RateLimitByUser(5, 20),
			handler.Get,
		)

		taxation.PUT("/:employee_id/:tax_year",
			middleware.RateLimitByUser(1, 5),
			handler.Upsert,
		)

		taxation.POST("/:employee_id/:tax_year/compute",
			middleware.RateLimitByUser(1, 5),
			middleware.Idempotency(rdb),
			handler.Compute,
		)

		taxation.POST("/:employee_id/:tax_year/compute-component",
			middleware.RateLimitByUser(1, 5),
			handler.ComputeComponent,
		)

		taxation.GET("/:employee_id/:tax_year/compare",
			middleware.RateLimitByUser(3, 10),
			handler.Compare,
		)

		taxation.POST("/:employee_id/:tax_year/regime",
			middleware.RateLimitByUser(0.5, 2),
			handler.SelectRegime,
		)

		taxation.POST("/:employee_id/:tax_year/finalize",
			middleware.RateLimitByUser(0.5, 2),
			handler.Finalize,
		)

		taxation.PATCH("/:employee_id/:tax_year/payments",
			middleware.RateLimitByUser(1, 5),
			handler.UpdatePayments,
		)

		taxation.POST("/:employee_id/:tax_year/payout",
			middleware.RateLimitByUser(0.5, 2),
			middleware.Idempotency(rdb),
			handler.RecordPayout,
		)
	}
}
