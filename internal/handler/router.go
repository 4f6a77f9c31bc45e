package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"gin-seckill/internal/handler/api"
	"gin-seckill/internal/handler/middleware"
	"gin-seckill/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	Seckill *api.SeckillHandler
	Item    *api.ItemHandler
	Admin   *api.AdminHandler
}

type Middlewares struct {
	Logger    *middleware.Logger
	Auth      *middleware.AuthMiddleware
	RateLimit *middleware.RateLimitMiddleware
}

func NewRouter(engine *gin.Engine, cfg config.Config, h Handlers, mw Middlewares) {
	setupMiddleware(engine, cfg, mw.Logger)
	setupRoutes(engine, h, mw)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, h Handlers, mw Middlewares) {
	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		items := apiGroup.Group("/items")
		addRoutes(items, []route{
			{Method: http.MethodGet, Path: "", Handler: h.Item.List},
			{Method: http.MethodGet, Path: "/:id", Handler: h.Item.Get},
		})

		// the purchase limit is per client IP and runs before auth so floods never reach token parsing
		sk := apiGroup.Group("/seckill")
		addRoutes(sk, []route{
			{Method: http.MethodPost, Path: "/:itemId", Handler: h.Seckill.Reserve,
				Mw: []gin.HandlerFunc{mw.RateLimit.Seckill(), mw.Auth.RequireAuth()}},
			{Method: http.MethodGet, Path: "/:itemId/result", Handler: h.Seckill.Result,
				Mw: []gin.HandlerFunc{mw.Auth.RequireAuth(), mw.RateLimit.Result()}},
		})

		admin := apiGroup.Group("/admin")
		admin.Use(mw.Auth.RequireAuth(), mw.Auth.RequireRoleAtLeast(middleware.RoleAdmin))
		{
			addRoutes(admin, []route{
				{Method: http.MethodPost, Path: "/reconcile", Handler: h.Admin.Reconcile},
				{Method: http.MethodDelete, Path: "/items/:id/sold-out", Handler: h.Admin.ResetSoldOut},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
