package bootstrap

import (
	"context"

	"gin-seckill/internal/infra/cache"
	"gin-seckill/internal/infra/db"
	"gin-seckill/internal/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// DBModule holds the durable stock and order store.
var DBModule = fx.Module("db",
	fx.Provide(
		NewDB,
	),
)

// CacheModule holds the hot stock counters, sold-out flags and rate-limit buckets.
var CacheModule = fx.Module("cache",
	fx.Provide(
		fx.Annotate(
			NewRedisClient,
			fx.As(new(redis.UniversalClient)),
		),
	),
)

func NewDB(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	pool, cleanup, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}
	closeOnStop(lc, cleanup)
	return pool, nil
}

func NewRedisClient(lc fx.Lifecycle, cfg config.Config) (*redis.Client, error) {
	client, cleanup, err := cache.NewClient(cfg.Redis)
	if err != nil {
		return nil, err
	}
	closeOnStop(lc, cleanup)
	return client, nil
}

// closeOnStop registers before any consumer of the store, and fx stops hooks
// in reverse, so connections outlive the workers draining on shutdown.
func closeOnStop(lc fx.Lifecycle, cleanup func()) {
	if cleanup == nil {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			cleanup()
			return nil
		},
	})
}
