package settlement

import (
	"context"
	"log/slog"

	"gin-seckill/internal/infra"
	"gin-seckill/internal/pkg/errs"
	"gin-seckill/internal/usecase/shared"
)

// Consumer turns a reservation into a durable stock decrement exactly once
// per transaction id.
type Consumer struct {
	uow    shared.UnitOfWork
	stock  shared.StockCache
	logger *slog.Logger
}

func NewConsumer(uow shared.UnitOfWork, stock shared.StockCache, logger *slog.Logger) *Consumer {
	return &Consumer{
		uow:    uow,
		stock:  stock,
		logger: logger,
	}
}

// Handle reports whether the durable decrement succeeded. Redelivered messages
// return the recorded outcome without touching durable stock again; a recorded
// success also retries the reserved release, which is a no-op once done.
func (c *Consumer) Handle(ctx context.Context, p shared.SettlementPayload) (bool, error) {
	logger := c.logger.With("transaction_id", p.TransactionID, "item_id", p.ItemID.String())

	rec, err := c.uow.Reads().Idempotence().Find(ctx, p.TransactionID)
	if err == nil {
		logger.Info("settlement already processed", "succeeded", rec.Succeeded)
		c.finishRecorded(ctx, p, rec.Succeeded, logger)
		return rec.Succeeded, nil
	}
	if !infra.IsKind(err, infra.KindNotFound) {
		return false, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	succeeded, err := shared.WithinResult(ctx, c.uow, func(ctx context.Context, tx shared.Tx) (bool, error) {
		rows, err := tx.Items().DecrementStockIfPositive(ctx, p.ItemID)
		if err != nil {
			return false, err
		}

		ok := rows == 1
		if !ok {
			if _, err := tx.Orders().CancelUnpaid(ctx, p.TransactionID); err != nil {
				return false, err
			}
		}

		if err := tx.Idempotence().Insert(ctx, p.TransactionID, ok); err != nil {
			return false, err
		}
		return ok, nil
	})
	if err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			// a concurrent delivery (or a cancellation) claimed the id first
			winner, findErr := c.uow.Reads().Idempotence().Find(ctx, p.TransactionID)
			if findErr != nil {
				return false, errs.Mark(findErr, errs.ErrDatabaseOperationFailed)
			}
			logger.Info("settlement lost the race to another delivery", "succeeded", winner.Succeeded)
			c.finishRecorded(ctx, p, winner.Succeeded, logger)
			return winner.Succeeded, nil
		}
		return false, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	// Both outcomes free the reserved unit. On failure the durable store was
	// already empty, so the unit must not become sellable again.
	c.release(ctx, p, logger)

	if !succeeded {
		logger.Error("durable stock exhausted for an admitted reservation, order cancelled")
		return false, nil
	}

	logger.Info("settlement committed")
	return true, nil
}

// finishRecorded completes the cache step of an earlier successful delivery
// that stopped before releasing. A failed record may have been written by
// compensation, which owns the cache for that transaction.
func (c *Consumer) finishRecorded(ctx context.Context, p shared.SettlementPayload, succeeded bool, logger *slog.Logger) {
	if succeeded {
		c.release(ctx, p, logger)
	}
}

func (c *Consumer) release(ctx context.Context, p shared.SettlementPayload, logger *slog.Logger) {
	released, err := c.stock.ReleaseReserved(context.WithoutCancel(ctx), p.Sale(), p.TransactionID)
	if err != nil {
		logger.Warn("failed to release reserved stock", "error", err.Error())
		return
	}
	if released {
		logger.Debug("reserved unit released")
	}
}
