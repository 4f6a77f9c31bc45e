package components

import (
	"log/slog"

	"gin-seckill/internal/handler"
	"gin-seckill/internal/handler/api"
	"gin-seckill/internal/handler/middleware"
	"gin-seckill/internal/infra/cache"
	"gin-seckill/internal/pkg/config"
	"gin-seckill/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewSeckillHandler,
		api.NewItemHandler,
		api.NewAdminHandler,
		NewAuthMiddleware,
		NewRateLimitMiddleware,
	),
	fx.Invoke(registerRoutes),
)

func NewAuthMiddleware(jwtService *jwt.Service) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(jwtService)
}

func NewRateLimitMiddleware(limiter *cache.RateLimiter, cfg config.Config, logger *slog.Logger) (*middleware.RateLimitMiddleware, error) {
	return middleware.NewRateLimitMiddleware(limiter, middleware.NewRateLimitRules(cfg.RateLimit), logger)
}

func registerRoutes(
	engine *gin.Engine,
	cfg config.Config,
	seckillHandler *api.SeckillHandler,
	itemHandler *api.ItemHandler,
	adminHandler *api.AdminHandler,
	logger *middleware.Logger,
	auth *middleware.AuthMiddleware,
	rateLimit *middleware.RateLimitMiddleware,
) {
	handler.NewRouter(engine, cfg,
		handler.Handlers{
			Seckill: seckillHandler,
			Item:    itemHandler,
			Admin:   adminHandler,
		},
		handler.Middlewares{
			Logger:    logger,
			Auth:      auth,
			RateLimit: rateLimit,
		},
	)
}
