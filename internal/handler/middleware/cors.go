package middleware

import (
	"log/slog"
	"slices"

	"gin-seckill/internal/pkg/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Browser clients need these to back off and to quote a request in support tickets.
var requiredExposeHeaders = []string{"Retry-After", "X-RateLimit-Remaining", "X-Request-ID"}

func NewCORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		ExposeHeaders:    exposeHeaders(cfg.ExposeHeaders),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
	slog.Info("CORS middleware initialized", "AllowOrigins", cfg.AllowOrigins, "ExposeHeaders", corsCfg.ExposeHeaders)
	return cors.New(corsCfg)
}

func exposeHeaders(configured []string) []string {
	out := slices.Clone(configured)
	for _, h := range requiredExposeHeaders {
		if !slices.Contains(out, h) {
			out = append(out, h)
		}
	}
	return out
}
