package repository

import (
	"context"
	"log/slog"
	"time"

	"gin-seckill/internal/domain/seckill"
	"gin-seckill/internal/infra"
	"gin-seckill/internal/infra/db"
	"gin-seckill/internal/pkg/ptr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_no, buyer_id, item_id, price_cents, status, transaction_id, created_at, paid_at`

type OrderRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewOrderRepository(dbtx db.DBTX, logger *slog.Logger) *OrderRepository {
	return &OrderRepository{
		db:     dbtx,
		logger: logger,
	}
}

func (r *OrderRepository) Insert(ctx context.Context, order *seckill.Order) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO seckill_orders (id, order_no, buyer_id, item_id, price_cents, status, transaction_id, created_at, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		order.ID(),
		order.OrderNo(),
		order.BuyerID(),
		order.ItemID(),
		order.PriceCents(),
		order.Status().String(),
		order.TransactionID(),
		order.CreatedAt(),
		ptr.TimeToPgtype(order.PaidAt()),
	)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), "failed to insert order", err)
	}
	return nil
}

func (r *OrderRepository) FindByTransactionID(ctx context.Context, txID string) (*seckill.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM seckill_orders WHERE transaction_id = $1`, txID)

	order, err := scanOrder(row)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), "failed to find order by transaction id", err)
	}
	return order, nil
}

// FindByBuyerAndItem prefers the live order over cancelled history.
func (r *OrderRepository) FindByBuyerAndItem(ctx context.Context, buyerID, itemID uuid.UUID) (*seckill.Order, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+orderColumns+`
		  FROM seckill_orders
		 WHERE buyer_id = $1 AND item_id = $2
		 ORDER BY (status = 'cancelled'), created_at DESC
		 LIMIT 1`, buyerID, itemID)

	order, err := scanOrder(row)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), "failed to find order by buyer and item", err)
	}
	return order, nil
}

func (r *OrderRepository) CancelUnpaid(ctx context.Context, txID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE seckill_orders
		   SET status = 'cancelled', updated_at = now()
		 WHERE transaction_id = $1 AND status = 'unpaid'`, txID)
	if err != nil {
		return 0, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to cancel order", err)
	}
	return tag.RowsAffected(), nil
}

func scanOrder(row pgx.Row) (*seckill.Order, error) {
	var (
		id, buyerID, itemID uuid.UUID
		orderNo, status     string
		priceCents          int64
		txID                string
		createdAt           time.Time
		paidAt              pgtype.Timestamptz
	)
	if err := row.Scan(&id, &orderNo, &buyerID, &itemID, &priceCents, &status, &txID, &createdAt, &paidAt); err != nil {
		return nil, err
	}
	return seckill.ReconstructOrder(id, orderNo, buyerID, itemID, priceCents, seckill.OrderStatus(status), txID, createdAt, ptr.TimeFromPgtype(paidAt))
}
