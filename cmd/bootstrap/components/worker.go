package components

import (
	"context"
	"log/slog"
	"sync"

	"gin-seckill/internal/handler/job"
	"gin-seckill/internal/handler/queue"
	"gin-seckill/internal/pkg/clock"
	"gin-seckill/internal/pkg/config"
	"gin-seckill/internal/usecase/compensation"
	"gin-seckill/internal/usecase/outbox"
	"gin-seckill/internal/usecase/reconcile"
	"gin-seckill/internal/usecase/seckill"
	"gin-seckill/internal/usecase/settlement"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		NewPollers,
		NewScheduler,
	),
	fx.Invoke(
		preloadStock,
		startWorkers,
	),
)

type Pollers []*queue.Poller

func NewPollers(
	client *sqs.Client,
	cfg config.Config,
	settle *settlement.Consumer,
	compensate *compensation.Consumer,
	clk clock.Clock,
	logger *slog.Logger,
) Pollers {
	return Pollers{
		queue.NewPoller(client, cfg.AWS.SettlementQueueURL, queue.NewSettlementHandler(settle), cfg.Worker, logger),
		queue.NewPoller(client, cfg.AWS.CancellationQueueURL, queue.NewCancellationHandler(compensate, clk), cfg.Worker, logger),
	}
}

func NewScheduler(
	cfg config.Config,
	relay *outbox.Relay,
	reconciler reconcile.Runner,
	retention *settlement.Retention,
	logger *slog.Logger,
) *job.Scheduler {
	return job.NewScheduler(logger, job.Jobs(cfg, relay, reconciler, retention, logger)...)
}

func preloadStock(lc fx.Lifecycle, cfg config.Config, coordinator seckill.Coordinator, logger *slog.Logger) {
	if !cfg.Seckill.PreloadOnStart {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			n, err := coordinator.Preload(ctx)
			if err != nil {
				return err
			}
			logger.Info("stock preloaded", "items", n)
			return nil
		},
	})
}

func startWorkers(lc fx.Lifecycle, cfg config.Config, pollers Pollers, scheduler *job.Scheduler, logger *slog.Logger) {
	if !cfg.Worker.Enabled {
		logger.Info("workers disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			for _, p := range pollers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := p.Run(ctx); err != nil {
						logger.Error("poller stopped", "error", err.Error())
					}
				}()
			}
			scheduler.Start(ctx)
			logger.Info("workers started", "pollers", len(pollers))
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			done := make(chan struct{})
			go func() {
				wg.Wait()
				scheduler.Wait()
				close(done)
			}()

			deadline, stop := context.WithTimeout(stopCtx, cfg.Worker.ShutdownDeadline)
			defer stop()
			select {
			case <-done:
				logger.Info("workers stopped")
				return nil
			case <-deadline.Done():
				logger.Warn("workers did not stop before deadline", "deadline", cfg.Worker.ShutdownDeadline)
				return deadline.Err()
			}
		},
	})
}
