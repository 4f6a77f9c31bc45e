package repository

import (
	"context"
	"log/slog"
	"time"

	"gin-seckill/internal/domain/seckill"
	"gin-seckill/internal/infra"
	"gin-seckill/internal/infra/db"
	"gin-seckill/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const itemColumns = `id, name, price_cents, total_stock, stock_count, version, start_time, end_time`

type ItemRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewItemRepository(dbtx db.DBTX, logger *slog.Logger) *ItemRepository {
	return &ItemRepository{
		db:     dbtx,
		logger: logger,
	}
}

func (r *ItemRepository) FindByID(ctx context.Context, itemID uuid.UUID) (*seckill.Item, error) {
	row := r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM seckill_items WHERE id = $1`, itemID)

	item, err := scanItem(row)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), "failed to find item", err)
	}
	return item, nil
}

func (r *ItemRepository) List(ctx context.Context) ([]*seckill.Item, error) {
	rows, err := r.db.Query(ctx, `SELECT `+itemColumns+` FROM seckill_items ORDER BY start_time, id`)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to list items", err)
	}
	return r.collect(rows)
}

// ListActive returns items whose sale window contains now.
func (r *ItemRepository) ListActive(ctx context.Context, now time.Time) ([]*seckill.Item, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+` FROM seckill_items WHERE start_time <= $1 AND end_time >= $1 ORDER BY id`, now)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to list active items", err)
	}
	return r.collect(rows)
}

func (r *ItemRepository) GetStock(ctx context.Context, itemID uuid.UUID) (shared.ItemStock, error) {
	var stock shared.ItemStock
	err := r.db.QueryRow(ctx, `SELECT stock_count, version FROM seckill_items WHERE id = $1`, itemID).
		Scan(&stock.StockCount, &stock.Version)
	if err != nil {
		return shared.ItemStock{}, infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), "failed to get item stock", err)
	}
	return stock, nil
}

func (r *ItemRepository) DecrementStockIfPositive(ctx context.Context, itemID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE seckill_items
		   SET stock_count = stock_count - 1, version = version + 1, updated_at = now()
		 WHERE id = $1 AND stock_count > 0`, itemID)
	if err != nil {
		return 0, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to decrement stock", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ItemRepository) IncrementStock(ctx context.Context, itemID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE seckill_items
		   SET stock_count = stock_count + 1, version = version + 1, updated_at = now()
		 WHERE id = $1 AND stock_count < total_stock`, itemID)
	if err != nil {
		return 0, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to increment stock", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ItemRepository) collect(rows pgx.Rows) ([]*seckill.Item, error) {
	defer rows.Close()

	var items []*seckill.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to iterate items", err)
	}
	return items, nil
}

func scanItem(row pgx.Row) (*seckill.Item, error) {
	var (
		id                     uuid.UUID
		name                   string
		priceCents             int64
		totalStock, stockCount int
		version                int
		startTime, endTime     time.Time
	)
	if err := row.Scan(&id, &name, &priceCents, &totalStock, &stockCount, &version, &startTime, &endTime); err != nil {
		return nil, err
	}
	return seckill.NewItem(id, name, priceCents, totalStock, stockCount, version, startTime, endTime)
}
