package settlement

import (
	"context"
	"log/slog"
	"time"

	"gin-seckill/internal/pkg/clock"
	"gin-seckill/internal/pkg/errs"
	"gin-seckill/internal/usecase/shared"
)

// Retention purges idempotence records older than the redelivery horizon.
type Retention struct {
	uow    shared.UnitOfWork
	ttl    time.Duration
	clock  clock.Clock
	logger *slog.Logger
}

func NewRetention(uow shared.UnitOfWork, ttl time.Duration, clk clock.Clock, logger *slog.Logger) *Retention {
	return &Retention{
		uow:    uow,
		ttl:    ttl,
		clock:  clk,
		logger: logger,
	}
}

func (r *Retention) RunOnce(ctx context.Context) (int64, error) {
	cutoff := r.clock.Now().Add(-r.ttl)
	n, err := r.uow.Reads().Idempotence().DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if n > 0 {
		r.logger.Info("idempotence records purged", "count", n, "cutoff", cutoff)
	}
	return n, nil
}
