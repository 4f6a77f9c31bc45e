//go:build unit

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gin-seckill/internal/handler/middleware"
	"gin-seckill/internal/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLoggingMiddleware_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := middleware.NewLogger(config.NewTestConfig().Log)

	router := gin.New()
	router.Use(logger.LoggingMiddleware())
	router.GET("/seckill/:itemId/result", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.GetRequestID(c))
	})

	cases := []struct {
		name    string
		inbound string
		keep    bool
	}{
		{name: "success: inbound id is propagated", inbound: "req-123", keep: true},
		{name: "success: missing id is generated", inbound: "", keep: false},
		{name: "success: oversized id is replaced", inbound: strings.Repeat("x", 65), keep: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/seckill/abc/result", nil)
			if tc.inbound != "" {
				req.Header.Set("X-Request-ID", tc.inbound)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			got := w.Header().Get("X-Request-ID")
			assert.NotEmpty(t, got)
			assert.Equal(t, got, w.Body.String())
			if tc.keep {
				assert.Equal(t, tc.inbound, got)
			} else {
				assert.NotEqual(t, tc.inbound, got)
				assert.LessOrEqual(t, len(got), 64)
			}
		})
	}
}
