//go:build unit

package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	gohttptest "net/http/httptest"
	"testing"
	"time"

	"gin-seckill/internal/handler/middleware"
	"gin-seckill/internal/infra/cache"
	"gin-seckill/internal/pkg/clock"
	"gin-seckill/internal/pkg/config"
	"gin-seckill/tests/common/httptest"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rateLimitEnv struct {
	mr     *miniredis.Miniredis
	clock  *clock.MockClock
	router *gin.Engine
}

func newRateLimitEnv(t *testing.T) *rateLimitEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	clk := clock.NewMockClock(time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC))
	rules := middleware.NewRateLimitRules(config.NewTestConfig().RateLimit)
	mw, err := middleware.NewRateLimitMiddleware(cache.NewRateLimiter(client, clk), rules, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	router := gin.New()
	router.Use(middleware.ErrorHandler())
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) }
	router.POST("/seckill/:itemId", mw.Seckill(), ok)
	router.GET("/seckill/:itemId/result", func(c *gin.Context) {
		if id, err := uuid.Parse(c.GetHeader("X-Test-User")); err == nil {
			c.Set("user_id", id)
		}
		c.Next()
	}, mw.Result(), ok)

	return &rateLimitEnv{mr: mr, clock: clk, router: router}
}

func TestRateLimit_SeckillPerIP(t *testing.T) {
	env := newRateLimitEnv(t)
	path := "/seckill/" + uuid.NewString()

	first := httptest.PerformRequestFrom(t, env.router, http.MethodPost, path, nil, "", "203.0.113.7:5000")
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.PerformRequestFrom(t, env.router, http.MethodPost, path, nil, "", "203.0.113.7:5001")
	httptest.AssertErrorResponse(t, second, http.StatusTooManyRequests, "Too many requests")
	httptest.AssertHeaders(t, second, map[string]string{"Retry-After": "5"})
	httptest.AssertRetryAfter(t, second, 5)

	other := httptest.PerformRequestFrom(t, env.router, http.MethodPost, path, nil, "", "198.51.100.1:5000")
	assert.Equal(t, http.StatusOK, other.Code, "buckets are per client")

	env.clock.Add(5 * time.Second)
	again := httptest.PerformRequestFrom(t, env.router, http.MethodPost, path, nil, "", "203.0.113.7:5002")
	assert.Equal(t, http.StatusOK, again.Code)
}

func TestRateLimit_ResultPerUser(t *testing.T) {
	env := newRateLimitEnv(t)
	path := "/seckill/" + uuid.NewString() + "/result"
	user := uuid.NewString()

	codes := make([]int, 0, 4)
	for range 4 {
		rec := performWithUser(t, env.router, path, user, "203.0.113.7:5000")
		codes = append(codes, rec)
	}
	assert.Equal(t, []int{200, 200, 200, 429}, codes, "capacity 3 allows a burst of three")

	assert.Equal(t, http.StatusOK, performWithUser(t, env.router, path, uuid.NewString(), "203.0.113.7:5000"),
		"a different user behind the same address has its own bucket")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	env := newRateLimitEnv(t)
	env.mr.Close()

	for range 3 {
		rec := httptest.PerformRequestFrom(t, env.router, http.MethodPost, "/seckill/"+uuid.NewString(), nil, "", "203.0.113.7:5000")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestNewRateLimitMiddleware_ValidatesRules(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(r *middleware.RateLimitRules)
	}{
		{name: "error: zero rate", mutate: func(r *middleware.RateLimitRules) { r.Seckill.Rate = 0 }},
		{name: "error: zero capacity", mutate: func(r *middleware.RateLimitRules) { r.Result.Capacity = 0 }},
		{name: "error: unknown scope", mutate: func(r *middleware.RateLimitRules) { r.Seckill.Scope = "session" }},
		{name: "error: missing name", mutate: func(r *middleware.RateLimitRules) { r.Result.Name = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rules := middleware.NewRateLimitRules(config.NewTestConfig().RateLimit)
			tc.mutate(&rules)
			_, err := middleware.NewRateLimitMiddleware(nil, rules, slog.New(slog.NewTextHandler(io.Discard, nil)))
			assert.Error(t, err)
		})
	}
}

func performWithUser(t *testing.T, router *gin.Engine, path, userID, remoteAddr string) int {
	t.Helper()
	req := gohttptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Test-User", userID)
	req.RemoteAddr = remoteAddr
	w := gohttptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}
