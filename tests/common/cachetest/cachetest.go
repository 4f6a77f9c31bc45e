//go:build unit

package cachetest

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"gin-seckill/internal/domain/seckill"
	"gin-seckill/internal/infra/cache"
	"gin-seckill/internal/pkg/config"
	"gin-seckill/internal/usecase/shared"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// NewStockCache returns a StockCache over a fresh miniredis instance.
func NewStockCache(t *testing.T) (*cache.StockCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), PoolSize: 32})
	t.Cleanup(func() { _ = client.Close() })

	cfg := config.NewTestConfig().Seckill
	cfg.LockRetryInterval = 5 * time.Millisecond
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return cache.NewStockCache(client, cache.NewLocker(client, cfg.LockRetryInterval), cfg, logger), mr
}

// Reserve warms the sale with stock units and pre-deducts n of them.
func Reserve(t *testing.T, sc *cache.StockCache, sale seckill.SaleKey, stock int64, n int) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, sc.WarmUpIfAbsent(ctx, sale, func(context.Context) (int64, error) { return stock, nil }))
	for range n {
		_, err := sc.PreDeduct(ctx, sale)
		require.NoError(t, err)
	}
}

func Pair(t *testing.T, sc *cache.StockCache, sale seckill.SaleKey) shared.StockPair {
	t.Helper()
	pair, err := sc.ReadPair(context.Background(), sale)
	require.NoError(t, err)
	return pair
}
