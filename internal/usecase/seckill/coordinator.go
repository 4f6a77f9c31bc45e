package seckill

import (
	"context"
	"encoding/json"
	"log/slog"

	domain "gin-seckill/internal/domain/seckill"
	"gin-seckill/internal/infra"
	"gin-seckill/internal/pkg/clock"
	"gin-seckill/internal/pkg/config"
	"gin-seckill/internal/pkg/errs"
	"gin-seckill/internal/usecase/outbox"
	"gin-seckill/internal/usecase/shared"

	"github.com/google/uuid"
)

type Coordinator interface {
	// Reserve admits one purchase attempt. A nil error means the buyer holds a
	// provisional reservation, not a settled order.
	Reserve(ctx context.Context, buyerID, itemID uuid.UUID) (*domain.Reservation, error)
	// Result never blocks: won, lost or pending.
	Result(ctx context.Context, buyerID, itemID uuid.UUID) (domain.Result, error)
	Preload(ctx context.Context) (int, error)
	ResetSoldOut(ctx context.Context, itemID uuid.UUID) error
}

type MessageProducer interface {
	SendInTransaction(ctx context.Context, msg outbox.Message, arg any) (outbox.State, error)
}

type coordinatorImpl struct {
	uow      shared.UnitOfWork
	stock    shared.StockCache
	producer MessageProducer
	catalog  *catalog
	clock    clock.Clock
	logger   *slog.Logger
}

func NewCoordinator(
	uow shared.UnitOfWork,
	stock shared.StockCache,
	producer MessageProducer,
	cfg config.SeckillConfig,
	clk clock.Clock,
	logger *slog.Logger,
) Coordinator {
	return &coordinatorImpl{
		uow:      uow,
		stock:    stock,
		producer: producer,
		catalog:  newCatalog(uow, cfg.CatalogCacheTTL),
		clock:    clk,
		logger:   logger,
	}
}

func (c *coordinatorImpl) Reserve(ctx context.Context, buyerID, itemID uuid.UUID) (*domain.Reservation, error) {
	item, err := c.catalog.item(ctx, itemID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	switch status, _ := item.Window(now); status {
	case domain.WindowUpcoming:
		return nil, errs.ErrSaleNotStarted
	case domain.WindowEnded:
		return nil, errs.ErrSaleEnded
	}

	sale := item.SaleKey()
	soldOut, err := c.stock.IsSoldOut(ctx, sale)
	if err != nil {
		return nil, errs.Wrap(err, "sold-out check failed")
	}
	if soldOut {
		return nil, errs.ErrSoldOut
	}

	live, err := c.hasLiveOrder(ctx, buyerID, itemID)
	if err != nil {
		return nil, err
	}
	if live {
		return nil, errs.ErrRepeatPurchase
	}

	if err := c.stock.WarmUpIfAbsent(ctx, sale, c.stockLoader(itemID)); err != nil {
		return nil, errs.Wrap(err, "stock warm-up failed")
	}

	remaining, err := c.stock.PreDeduct(ctx, sale)
	if err != nil {
		switch {
		case errs.Is(err, errs.ErrStockExhausted):
			if markErr := c.stock.MarkSoldOut(ctx, sale); markErr != nil {
				c.logger.Warn("failed to mark sold out", "sale", sale.String(), "error", markErr.Error())
			}
			return nil, errs.ErrSoldOut
		case errs.Is(err, errs.ErrStockNotLoaded):
			return nil, errs.ErrReservationConflict
		default:
			return nil, errs.Wrap(err, "pre-deduction failed")
		}
	}

	// a pre-deducted unit ends in an order or in compensation, whether or not
	// the caller is still waiting
	emitCtx := context.WithoutCancel(ctx)

	txID := uuid.NewString()
	state, err := c.emit(emitCtx, buyerID, item, txID)
	if err != nil {
		// the unit never became an order; a deferred discard is compensated by the relay
		if !errs.Is(err, outbox.ErrLocalTransactionDeferred) {
			if _, rbErr := c.stock.Rollback(emitCtx, sale, txID); rbErr != nil {
				c.logger.Error("failed to roll back pre-deduction", "sale", sale.String(), "transaction_id", txID, "error", rbErr.Error())
			}
		}
		if errs.IsAny(err, outbox.ErrLocalTransactionRolledBack, outbox.ErrLocalTransactionDeferred) {
			if live, lookupErr := c.hasLiveOrder(emitCtx, buyerID, itemID); lookupErr == nil && live {
				return nil, errs.ErrRepeatPurchase
			}
		}
		c.logger.Warn("order emission failed", "transaction_id", txID, "error", err.Error())
		return nil, errs.Mark(err, errs.ErrEmissionFailure)
	}

	c.logger.Info("reservation accepted",
		"transaction_id", txID,
		"buyer_id", buyerID.String(),
		"item_id", itemID.String(),
		"remaining", remaining,
		"state", string(state))

	return &domain.Reservation{
		BuyerID:       buyerID,
		ItemID:        itemID,
		TransactionID: txID,
		ReservedAt:    now,
	}, nil
}

func (c *coordinatorImpl) emit(ctx context.Context, buyerID uuid.UUID, item *domain.Item, txID string) (outbox.State, error) {
	sale := item.SaleKey()
	body, err := json.Marshal(shared.SettlementPayload{
		ItemID:        item.ID(),
		TransactionID: txID,
		WindowStart:   sale.WindowStart,
	})
	if err != nil {
		return outbox.StateRollback, errs.Wrap(err, "failed to encode settlement message")
	}

	return c.producer.SendInTransaction(ctx, outbox.Message{
		Topic:         shared.TopicSettlement,
		TransactionID: txID,
		Body:          body,
	}, OrderArgs{BuyerID: buyerID, Item: item})
}

func (c *coordinatorImpl) Result(ctx context.Context, buyerID, itemID uuid.UUID) (domain.Result, error) {
	item, err := c.catalog.item(ctx, itemID)
	if err != nil {
		return domain.Result{}, err
	}

	order, err := c.uow.Reads().Orders().FindByBuyerAndItem(ctx, buyerID, itemID)
	switch {
	case err == nil && !order.IsCancelled():
		return domain.Won(order.OrderNo()), nil
	case err == nil:
		// the buyer's only orders were cancelled unpaid
		return domain.Lost(), nil
	case !infra.IsKind(err, infra.KindNotFound):
		return domain.Result{}, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	soldOut, err := c.stock.IsSoldOut(ctx, item.SaleKey())
	if err != nil {
		return domain.Result{}, errs.Wrap(err, "sold-out check failed")
	}
	if soldOut {
		return domain.Lost(), nil
	}
	return domain.Pending(), nil
}

// Preload warms every item whose sale is open now. Failures are logged and
// skipped; reservations warm lazily anyway.
func (c *coordinatorImpl) Preload(ctx context.Context) (int, error) {
	items, err := c.uow.Reads().Items().ListActive(ctx, c.clock.Now())
	if err != nil {
		return 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	warmed := 0
	for _, item := range items {
		if err := c.stock.WarmUpIfAbsent(ctx, item.SaleKey(), c.stockLoader(item.ID())); err != nil {
			c.logger.Warn("preload failed", "item_id", item.ID().String(), "error", err.Error())
			continue
		}
		warmed++
	}

	c.logger.Info("stock preload finished", "items", len(items), "warmed", warmed)
	return warmed, nil
}

// ResetSoldOut clears the sold-out flag of the item's current window.
func (c *coordinatorImpl) ResetSoldOut(ctx context.Context, itemID uuid.UUID) error {
	item, err := c.uow.Reads().Items().FindByID(ctx, itemID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return errs.ErrItemNotFound
		}
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	if err := c.stock.ClearSoldOut(ctx, item.SaleKey()); err != nil {
		return errs.Wrap(err, "failed to clear sold-out flag")
	}
	c.logger.Warn("sold-out flag cleared by operator", "item_id", itemID.String())
	return nil
}

func (c *coordinatorImpl) hasLiveOrder(ctx context.Context, buyerID, itemID uuid.UUID) (bool, error) {
	order, err := c.uow.Reads().Orders().FindByBuyerAndItem(ctx, buyerID, itemID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return false, nil
		}
		return false, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return !order.IsCancelled(), nil
}

func (c *coordinatorImpl) stockLoader(itemID uuid.UUID) func(ctx context.Context) (int64, error) {
	return func(ctx context.Context) (int64, error) {
		stock, err := c.uow.Reads().Items().GetStock(ctx, itemID)
		if err != nil {
			return 0, err
		}
		return stock.StockCount, nil
	}
}
