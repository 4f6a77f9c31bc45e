//go:build unit

package jwt_test

import (
	"testing"
	"time"

	"gin-seckill/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateToken(t *testing.T) {
	svc := jwt.NewService("secret")
	buyer := uuid.New()

	t.Run("success: round trip keeps buyer and role", func(t *testing.T) {
		token, err := svc.GenerateToken(buyer, "buyer", time.Minute)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, buyer, claims.UserID)
		assert.Equal(t, "buyer", claims.Role)
	})

	t.Run("error: expired token", func(t *testing.T) {
		token, err := svc.GenerateToken(buyer, "buyer", -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("error: signed with another secret", func(t *testing.T) {
		token, err := jwt.NewService("other").GenerateToken(buyer, "buyer", time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("error: garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})
}
