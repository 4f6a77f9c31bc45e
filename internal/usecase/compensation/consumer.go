package compensation

import (
	"context"
	"log/slog"
	"time"

	"gin-seckill/internal/domain/seckill"
	"gin-seckill/internal/infra"
	"gin-seckill/internal/pkg/clock"
	"gin-seckill/internal/pkg/errs"
	"gin-seckill/internal/usecase/shared"
)

type Outcome string

const (
	// OutcomeNoop: the order was paid, absent, or already cancelled.
	OutcomeNoop Outcome = "noop"
	// OutcomeReleased: cancelled before settlement; the reserved unit went back to available.
	OutcomeReleased Outcome = "released"
	// OutcomeRestocked: cancelled after settlement; durable and cached stock both grew by one.
	OutcomeRestocked Outcome = "restocked"
)

// Consumer cancels orders left unpaid past their deadline and returns the
// unit to sale.
type Consumer struct {
	uow    shared.UnitOfWork
	stock  shared.StockCache
	clock  clock.Clock
	logger *slog.Logger
}

func NewConsumer(uow shared.UnitOfWork, stock shared.StockCache, clk clock.Clock, logger *slog.Logger) *Consumer {
	return &Consumer{
		uow:    uow,
		stock:  stock,
		clock:  clk,
		logger: logger,
	}
}

func (c *Consumer) Handle(ctx context.Context, p shared.CancellationPayload) (Outcome, error) {
	logger := c.logger.With("transaction_id", p.TransactionID)

	if c.clock.Now().Before(p.ScheduledAt) {
		return OutcomeNoop, errs.Wrapf(errs.ErrNotYetDue, "cancellation due at %s", p.ScheduledAt.Format(time.RFC3339))
	}

	reads := c.uow.Reads()
	order, err := reads.Orders().FindByTransactionID(ctx, p.TransactionID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			logger.Warn("cancellation for unknown order ignored")
			return OutcomeNoop, nil
		}
		return OutcomeNoop, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if order.Status() != seckill.OrderUnpaid {
		logger.Info("order no longer unpaid, nothing to cancel", "status", order.Status().String())
		return OutcomeNoop, nil
	}

	item, err := reads.Items().FindByID(ctx, order.ItemID())
	if err != nil {
		return OutcomeNoop, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	sale := item.SaleKey()

	outcome, err := shared.WithinResult(ctx, c.uow, func(ctx context.Context, tx shared.Tx) (Outcome, error) {
		rows, err := tx.Orders().CancelUnpaid(ctx, p.TransactionID)
		if err != nil {
			return OutcomeNoop, err
		}
		if rows == 0 {
			// paid or cancelled since the read above
			return OutcomeNoop, nil
		}

		err = tx.Idempotence().Insert(ctx, p.TransactionID, false)
		if err == nil {
			// settlement has not run; it will see the claim and skip
			return OutcomeReleased, nil
		}
		if !infra.IsKind(err, infra.KindDuplicateKey) {
			return OutcomeNoop, err
		}

		rec, err := tx.Idempotence().Find(ctx, p.TransactionID)
		if err != nil {
			return OutcomeNoop, err
		}
		if !rec.Succeeded {
			return OutcomeNoop, nil
		}
		if _, err := tx.Items().IncrementStock(ctx, order.ItemID()); err != nil {
			return OutcomeNoop, err
		}
		return OutcomeRestocked, nil
	})
	if err != nil {
		return OutcomeNoop, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	cacheCtx := context.WithoutCancel(ctx)
	switch outcome {
	case OutcomeReleased:
		// claims the same per-transaction marker settlement would use to release
		_, err = c.stock.Rollback(cacheCtx, sale, p.TransactionID)
	case OutcomeRestocked:
		err = c.stock.Restock(cacheCtx, sale)
	default:
		return outcome, nil
	}
	if err != nil {
		logger.Warn("failed to return unit to cached stock", "outcome", string(outcome), "error", err.Error())
	}
	// a sold-out flag stays set; reopening the sale is an operator decision

	logger.Info("unpaid order cancelled", "outcome", string(outcome), "item_id", order.ItemID().String())
	return outcome, nil
}
