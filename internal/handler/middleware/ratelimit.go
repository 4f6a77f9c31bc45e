package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"gin-seckill/internal/handler/httperr"
	"gin-seckill/internal/infra/cache"
	"gin-seckill/internal/pkg/config"
	"gin-seckill/internal/pkg/errs"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Scope string

const (
	ScopeIP   Scope = "ip"
	ScopeUser Scope = "user"
)

type RateLimitRule struct {
	Name     string  `validate:"required"`
	Rate     float64 `validate:"gt=0"`
	Capacity int     `validate:"min=1"`
	Scope    Scope   `validate:"oneof=ip user"`
}

type RateLimitRules struct {
	Seckill RateLimitRule
	Result  RateLimitRule
}

func NewRateLimitRules(cfg config.RateLimitConfig) RateLimitRules {
	return RateLimitRules{
		Seckill: RateLimitRule{Name: "seckill", Rate: cfg.SeckillRate, Capacity: cfg.SeckillCapacity, Scope: ScopeIP},
		Result:  RateLimitRule{Name: "seckill_result", Rate: cfg.ResultRate, Capacity: cfg.ResultCapacity, Scope: ScopeUser},
	}
}

type TokenBucket interface {
	TryAcquire(ctx context.Context, key string, rate float64, capacity, requested int) (cache.Decision, error)
}

type RateLimitMiddleware struct {
	bucket TokenBucket
	rules  RateLimitRules
	logger *slog.Logger
}

func NewRateLimitMiddleware(bucket TokenBucket, rules RateLimitRules, logger *slog.Logger) (*RateLimitMiddleware, error) {
	v := validator.New()
	for _, rule := range []RateLimitRule{rules.Seckill, rules.Result} {
		if err := v.Struct(rule); err != nil {
			return nil, errs.Wrapf(err, "invalid rate limit rule %q", rule.Name)
		}
	}
	return &RateLimitMiddleware{bucket: bucket, rules: rules, logger: logger}, nil
}

func (m *RateLimitMiddleware) Seckill() gin.HandlerFunc { return m.limit(m.rules.Seckill) }

func (m *RateLimitMiddleware) Result() gin.HandlerFunc { return m.limit(m.rules.Result) }

// limit fails open: a broken limiter must not take the sale down with it.
func (m *RateLimitMiddleware) limit(rule RateLimitRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := cache.RateLimitKey(rule.Name, scopePart(c, rule.Scope))

		decision, err := m.bucket.TryAcquire(c.Request.Context(), key, rule.Rate, rule.Capacity, 1)
		if err != nil {
			m.logger.Warn("rate limiter unavailable, admitting request", "rule", rule.Name, "error", err.Error())
			c.Next()
			return
		}
		if decision.Admitted {
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
			c.Next()
			return
		}

		msg := "Too many requests"
		if secs := httperr.RetryAfterSeconds(decision.Wait); secs > 1 {
			msg += ", please retry in " + strconv.Itoa(secs) + " seconds"
		}
		httperr.AbortWithRetry(c, http.StatusTooManyRequests, errs.ErrRateLimited, msg, decision.Wait)
	}
}

func scopePart(c *gin.Context, scope Scope) string {
	if scope == ScopeUser {
		if id, ok := GetUserID(c); ok {
			return "user:" + id.String()
		}
	}
	return "ip:" + c.ClientIP()
}
