package revision

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
	revisions := r.Group("/revisions")
	revisions.Use(middleware.AuthMiddleware())
	revisions.Use(middleware.ContextLogger(logger))
	{
		revisions.POST("",
			middleware.RateLimitByUser(0.5, 2),
			middleware.Idempotency(rdb),
			handler.Submit,
		)

		revisions.GET("",
			middleware.RateLimitByUser(3, 10),
			handler.List,
		)

		revisions.GET("/dead-letters",
			middleware.RateLimitByUser(3, 10),
			handler.ListDeadLetters,
		)

		revisions.GET("/projection/:employee_id/:tax_year",
			middleware.RateLimitByUser(3, 10),
			handler.Projection,
		)

		revisions.GET("/:id",
			middleware.RateLimitByUser(3, 10),
			handler.Get,
		)

		revisions.POST("/:id/approve",
			middleware.RateLimitByUser(0.5, 2),
			handler.Approve,
		)

		revisions.POST("/:id/reject",
			middleware.RateLimitByUser(0.5, 2),
			handler.Reject,
		)

		revisions.POST("/:id/cancel",
			middleware.RateLimitByUser(0.5, 2),
			handler.Cancel,
		)

		revisions.POST("/:id/requeue",
			middleware.RateLimitByUser(0.5, 2),
			handler.Requeue,
		)
	}
}
