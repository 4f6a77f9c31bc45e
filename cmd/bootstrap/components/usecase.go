package components

import (
	"log/slog"

	"gin-seckill/internal/infra/alert"
	"gin-seckill/internal/infra/cache"
	"gin-seckill/internal/infra/messaging"
	"gin-seckill/internal/pkg/clock"
	"gin-seckill/internal/pkg/config"
	"gin-seckill/internal/usecase/compensation"
	"gin-seckill/internal/usecase/outbox"
	"gin-seckill/internal/usecase/reconcile"
	"gin-seckill/internal/usecase/seckill"
	"gin-seckill/internal/usecase/settlement"
	"gin-seckill/internal/usecase/shared"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	cacheModule,
	outboxModule,
	seckillModule,
	consumerModule,
	reconcileModule,
)

var cacheModule = fx.Module("usecase/cache",
	fx.Provide(
		NewLocker,
		NewStockCache,
		AsStockCache,
		cache.NewRateLimiter,
	),
)

var outboxModule = fx.Module("usecase/outbox",
	fx.Provide(
		fx.Annotate(
			NewPublisher,
			fx.As(new(outbox.Publisher)),
		),
		NewOrderListener,
		NewProducer,
		NewRelay,
	),
)

var seckillModule = fx.Module("usecase/seckill",
	fx.Provide(
		NewCoordinator,
		seckill.NewItemQueries,
	),
)

var consumerModule = fx.Module("usecase/consumer",
	fx.Provide(
		settlement.NewConsumer,
		NewRetention,
		compensation.NewConsumer,
	),
)

var reconcileModule = fx.Module("usecase/reconcile",
	fx.Provide(
		NewAlertSink,
		fx.Annotate(
			NewReconciler,
			fx.As(new(reconcile.Runner)),
		),
	),
)

func NewLocker(client redis.UniversalClient, cfg config.Config) *cache.Locker {
	return cache.NewLocker(client, cfg.Seckill.LockRetryInterval)
}

func NewStockCache(client redis.UniversalClient, locker *cache.Locker, cfg config.Config, logger *slog.Logger) *cache.StockCache {
	return cache.NewStockCache(client, locker, cfg.Seckill, logger)
}

func AsStockCache(c *cache.StockCache) shared.StockCache {
	return c
}

func NewPublisher(client *sqs.Client, cfg config.Config, clk clock.Clock) *messaging.Publisher {
	return messaging.NewPublisher(client, cfg.AWS, clk)
}

func NewOrderListener(uow shared.UnitOfWork, stock shared.StockCache, cfg config.Config, clk clock.Clock, logger *slog.Logger) *seckill.OrderListener {
	return seckill.NewOrderListener(uow, stock, cfg.Seckill, clk, logger)
}

func NewProducer(uow shared.UnitOfWork, publisher outbox.Publisher, listener *seckill.OrderListener, clk clock.Clock, logger *slog.Logger) *outbox.Producer {
	return outbox.NewProducer(uow, publisher, listener, clk, logger)
}

func NewRelay(uow shared.UnitOfWork, publisher outbox.Publisher, listener *seckill.OrderListener, cfg config.Config, clk clock.Clock, logger *slog.Logger) *outbox.Relay {
	relayCfg := outbox.RelayConfig{
		CheckDelay:   cfg.Seckill.OutboxCheckDelay,
		PublishGrace: cfg.Seckill.OutboxPublishGrace,
		MaxChecks:    cfg.Seckill.OutboxMaxChecks,
		BatchSize:    cfg.Seckill.OutboxBatchSize,
	}
	return outbox.NewRelay(uow, publisher, listener, listener, relayCfg, clk, logger)
}

func NewCoordinator(uow shared.UnitOfWork, stock shared.StockCache, producer *outbox.Producer, cfg config.Config, clk clock.Clock, logger *slog.Logger) seckill.Coordinator {
	return seckill.NewCoordinator(uow, stock, producer, cfg.Seckill, clk, logger)
}

func NewRetention(uow shared.UnitOfWork, cfg config.Config, clk clock.Clock, logger *slog.Logger) *settlement.Retention {
	return settlement.NewRetention(uow, cfg.Seckill.IdempotenceTTL, clk, logger)
}

// NewAlertSink falls back to log-only alerts when no metrics namespace is set.
func NewAlertSink(client *cloudwatch.Client, cfg config.Config, clk clock.Clock, logger *slog.Logger) reconcile.AlertSink {
	if cfg.AWS.MetricsNamespace == "" {
		return alert.NewLogSink(logger)
	}
	return alert.NewCloudWatchSink(client, cfg.AWS.MetricsNamespace, clk, logger)
}

func NewReconciler(
	cfg config.Config,
	uow shared.UnitOfWork,
	stock *cache.StockCache,
	alerts reconcile.AlertSink,
	clk clock.Clock,
	logger *slog.Logger,
) (*reconcile.Reconciler, error) {
	rc := cfg.Reconcile
	return reconcile.NewReconciler(reconcile.Config{
		Retries:           rc.Retries,
		RetryDelay:        rc.RetryDelay,
		LowStockThreshold: rc.LowStockThreshold,
		Concurrency:       rc.Concurrency,
		ReconcileAll:      rc.ReconcileAll,
		AutoCorrect:       rc.AutoCorrect,
	}, uow.Reads().Items(), stock, alerts, clk, logger)
}
