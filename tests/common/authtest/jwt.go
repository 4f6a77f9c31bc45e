//go:build unit || e2e

package authtest

import (
	"testing"
	"time"

	"gin-seckill/internal/handler/middleware"
	"gin-seckill/internal/pkg/config"
	"gin-seckill/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type JWTHelper struct {
	service *jwt.Service
}

func NewJWTHelper(cfg config.JWTConfig) *JWTHelper {
	return &JWTHelper{service: jwt.NewService(cfg.Secret)}
}

func (h *JWTHelper) GenerateToken(t *testing.T, userID uuid.UUID, role middleware.Role) string {
	t.Helper()
	token, err := h.service.GenerateToken(userID, string(role), time.Hour)
	require.NoError(t, err)
	return token
}

func (h *JWTHelper) CreateExpiredToken(t *testing.T, userID uuid.UUID, role middleware.Role) string {
	t.Helper()
	token, err := h.service.GenerateToken(userID, string(role), -time.Minute)
	require.NoError(t, err)
	return token
}
