package seckill

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	domain "gin-seckill/internal/domain/seckill"
	"gin-seckill/internal/infra"
	"gin-seckill/internal/pkg/clock"
	"gin-seckill/internal/pkg/config"
	"gin-seckill/internal/pkg/errs"
	"gin-seckill/internal/usecase/outbox"
	"gin-seckill/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// OrderArgs is the local-transaction argument of a settlement half message.
type OrderArgs struct {
	BuyerID uuid.UUID
	Item    *domain.Item
}

// OrderListener creates the unpaid order behind a settlement message and
// answers status checks for messages whose outcome was never recorded.
type OrderListener struct {
	uow       shared.UnitOfWork
	stock     shared.StockCache
	lookaside *expirable.LRU[string, outbox.State]
	clock     clock.Clock
	logger    *slog.Logger

	cancelAfter  time.Duration
	checkTimeout time.Duration
}

var (
	_ outbox.Listener        = (*OrderListener)(nil)
	_ outbox.RollbackHandler = (*OrderListener)(nil)
)

func NewOrderListener(uow shared.UnitOfWork, stock shared.StockCache, cfg config.SeckillConfig, clk clock.Clock, logger *slog.Logger) *OrderListener {
	return &OrderListener{
		uow:          uow,
		stock:        stock,
		lookaside:    expirable.NewLRU[string, outbox.State](cfg.TxLookasideSize, nil, cfg.TxCheckTimeout),
		clock:        clk,
		logger:       logger,
		cancelAfter:  cfg.CancelAfter,
		checkTimeout: cfg.TxCheckTimeout,
	}
}

// ExecuteLocalTransaction writes the unpaid order and its delayed cancellation
// message in one transaction.
func (l *OrderListener) ExecuteLocalTransaction(ctx context.Context, msg shared.OutboxMessage, arg any) outbox.State {
	logger := l.logger.With("transaction_id", msg.TransactionID)

	args, ok := arg.(OrderArgs)
	if !ok || args.Item == nil {
		logger.Error("unexpected local transaction argument", "type", fmt.Sprintf("%T", arg))
		return outbox.StateRollback
	}

	now := l.clock.Now()
	order, err := domain.NewOrder(args.BuyerID, args.Item, msg.TransactionID, now)
	if err != nil {
		logger.Error("failed to build order", "error", err.Error())
		return l.record(msg.TransactionID, outbox.StateRollback)
	}

	scheduledAt := now.Add(l.cancelAfter)
	body, err := json.Marshal(shared.CancellationPayload{
		TransactionID: msg.TransactionID,
		ScheduledAt:   scheduledAt,
	})
	if err != nil {
		logger.Error("failed to encode cancellation", "error", err.Error())
		return l.record(msg.TransactionID, outbox.StateRollback)
	}

	err = l.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Orders().Insert(ctx, order); err != nil {
			return err
		}
		return tx.Outbox().InsertCommitted(ctx, shared.OutboxMessage{
			ID:            uuid.New(),
			Topic:         shared.TopicCancellation,
			TransactionID: msg.TransactionID,
			Body:          body,
			DeliverAt:     scheduledAt,
			CreatedAt:     now,
		})
	})
	if err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			logger.Info("order rejected by uniqueness constraint", "buyer_id", args.BuyerID.String())
		} else {
			logger.Error("order transaction failed", "error", err.Error())
		}
		return l.record(msg.TransactionID, outbox.StateRollback)
	}

	logger.Info("order created", "order_no", order.OrderNo(), "buyer_id", args.BuyerID.String())
	return l.record(msg.TransactionID, outbox.StateCommit)
}

// CheckLocalTransaction resolves a half message left prepared. Lookaside
// first, then the order table; an absent order only becomes a rollback after
// checkTimeout so a slow writer is never overtaken.
func (l *OrderListener) CheckLocalTransaction(ctx context.Context, msg shared.OutboxMessage) outbox.State {
	if state, ok := l.lookaside.Get(msg.TransactionID); ok {
		return state
	}

	_, err := l.uow.Reads().Orders().FindByTransactionID(ctx, msg.TransactionID)
	switch {
	case err == nil:
		return outbox.StateCommit
	case infra.IsKind(err, infra.KindNotFound):
		if clock.Since(l.clock, msg.CreatedAt) > l.checkTimeout {
			return outbox.StateRollback
		}
		return outbox.StateUnknown
	default:
		l.logger.Warn("order lookup failed during check", "transaction_id", msg.TransactionID, "error", err.Error())
		return outbox.StateUnknown
	}
}

// OnRollback returns the pre-deducted unit to the cache.
func (l *OrderListener) OnRollback(ctx context.Context, msg shared.OutboxMessage) error {
	payload, err := shared.DecodeSettlement(msg.Body)
	if err != nil {
		return err
	}
	if _, err := l.stock.Rollback(ctx, payload.Sale(), msg.TransactionID); err != nil {
		return errs.Wrap(err, "failed to roll back cached stock")
	}
	l.logger.Info("cached stock rolled back for abandoned reservation", "transaction_id", msg.TransactionID)
	return nil
}

func (l *OrderListener) record(txID string, state outbox.State) outbox.State {
	l.lookaside.Add(txID, state)
	return state
}
