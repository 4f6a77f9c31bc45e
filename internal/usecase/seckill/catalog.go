package seckill

import (
	"context"
	"time"

	domain "gin-seckill/internal/domain/seckill"
	"gin-seckill/internal/infra"
	"gin-seckill/internal/pkg/clock"
	"gin-seckill/internal/pkg/errs"
	"gin-seckill/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const catalogCacheSize = 1024

type ItemView struct {
	ID            uuid.UUID
	Name          string
	PriceCents    int64
	TotalStock    int
	StockCount    int
	StartTime     time.Time
	EndTime       time.Time
	Status        domain.WindowStatus
	RemainSeconds int
}

type ItemQueries interface {
	List(ctx context.Context) ([]ItemView, error)
	Get(ctx context.Context, itemID uuid.UUID) (*ItemView, error)
}

// catalog keeps item metadata for a few seconds so hot items do not hit the
// store on every attempt. Stock counts in it are informational only.
type catalog struct {
	uow   shared.UnitOfWork
	items *expirable.LRU[uuid.UUID, *domain.Item]
}

func newCatalog(uow shared.UnitOfWork, ttl time.Duration) *catalog {
	return &catalog{
		uow:   uow,
		items: expirable.NewLRU[uuid.UUID, *domain.Item](catalogCacheSize, nil, ttl),
	}
}

func (c *catalog) item(ctx context.Context, itemID uuid.UUID) (*domain.Item, error) {
	if item, ok := c.items.Get(itemID); ok {
		return item, nil
	}

	item, err := c.uow.Reads().Items().FindByID(ctx, itemID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrItemNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	c.items.Add(itemID, item)
	return item, nil
}

type itemQueriesImpl struct {
	uow   shared.UnitOfWork
	clock clock.Clock
}

func NewItemQueries(uow shared.UnitOfWork, clk clock.Clock) ItemQueries {
	return &itemQueriesImpl{
		uow:   uow,
		clock: clk,
	}
}

func (q *itemQueriesImpl) List(ctx context.Context) ([]ItemView, error) {
	items, err := q.uow.Reads().Items().List(ctx)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	now := q.clock.Now()
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, toItemView(item, now))
	}
	return views, nil
}

func (q *itemQueriesImpl) Get(ctx context.Context, itemID uuid.UUID) (*ItemView, error) {
	item, err := q.uow.Reads().Items().FindByID(ctx, itemID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrItemNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	view := toItemView(item, q.clock.Now())
	return &view, nil
}

func toItemView(item *domain.Item, now time.Time) ItemView {
	status, remain := item.Window(now)
	return ItemView{
		ID:            item.ID(),
		Name:          item.Name(),
		PriceCents:    item.PriceCents(),
		TotalStock:    item.TotalStock(),
		StockCount:    item.StockCount(),
		StartTime:     item.StartTime(),
		EndTime:       item.EndTime(),
		Status:        status,
		RemainSeconds: remain,
	}
}
