package job

import (
	"context"
	"log/slog"

	"gin-seckill/internal/pkg/config"
	"gin-seckill/internal/usecase/outbox"
	"gin-seckill/internal/usecase/reconcile"
)

type RelayRunner interface {
	RunOnce(ctx context.Context) (outbox.RelayStats, error)
}

type ReconcileRunner interface {
	RunOnce(ctx context.Context) (reconcile.Report, error)
}

type PurgeRunner interface {
	RunOnce(ctx context.Context) (int64, error)
}

// Jobs returns the background jobs in the order they should start.
func Jobs(cfg config.Config, relay RelayRunner, reconciler ReconcileRunner, purge PurgeRunner, logger *slog.Logger) []Job {
	return []Job{
		{
			Name:     "outbox-relay",
			Interval: cfg.Worker.RelayInterval,
			Run: func(ctx context.Context) error {
				stats, err := relay.RunOnce(ctx)
				if stats != (outbox.RelayStats{}) {
					logger.Info("outbox relay pass",
						"published", stats.Published,
						"committed", stats.Committed,
						"rolled_back", stats.RolledBack,
						"unresolved", stats.Unresolved,
					)
				}
				return err
			},
		},
		{
			Name:     "stock-reconcile",
			Interval: cfg.Reconcile.Interval,
			Run: func(ctx context.Context) error {
				report, err := reconciler.RunOnce(ctx)
				if err != nil {
					return err
				}
				logger.Info("reconcile pass",
					"checked", report.Checked,
					"skipped", report.Skipped,
					"drifted", len(report.Drifts),
					"failed", report.Failed,
				)
				return nil
			},
		},
		{
			Name:     "idempotence-purge",
			Interval: cfg.Worker.PurgeInterval,
			Run: func(ctx context.Context) error {
				_, err := purge.RunOnce(ctx)
				return err
			},
		},
	}
}
