package shared

import (
	"context"
	"time"

	"gin-seckill/internal/domain/seckill"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Reads: Single-statement operations on the pool using implicit transactions
	Reads() Tx
}

// Tx exposes the store operations bound to one transaction (or to the pool for Reads).
type Tx interface {
	Items() ItemRepository
	Orders() OrderRepository
	Idempotence() IdempotenceRepository
	Outbox() OutboxRepository
}

type ItemRepository interface {
	FindByID(ctx context.Context, itemID uuid.UUID) (*seckill.Item, error)
	List(ctx context.Context) ([]*seckill.Item, error)
	ListActive(ctx context.Context, now time.Time) ([]*seckill.Item, error)
	GetStock(ctx context.Context, itemID uuid.UUID) (ItemStock, error)
	DecrementStockIfPositive(ctx context.Context, itemID uuid.UUID) (int64, error)
	IncrementStock(ctx context.Context, itemID uuid.UUID) (int64, error)
}

type ItemStock struct {
	StockCount int64
	Version    int
}

type OrderRepository interface {
	Insert(ctx context.Context, order *seckill.Order) error
	FindByTransactionID(ctx context.Context, txID string) (*seckill.Order, error)
	FindByBuyerAndItem(ctx context.Context, buyerID, itemID uuid.UUID) (*seckill.Order, error)
	// CancelUnpaid affects a row only while the order is still unpaid.
	CancelUnpaid(ctx context.Context, txID string) (int64, error)
}

type IdempotenceRepository interface {
	// Insert fails with a DUPLICATE_KEY repository error when txID is already recorded.
	Insert(ctx context.Context, txID string, succeeded bool) error
	Find(ctx context.Context, txID string) (*seckill.IdempotenceRecord, error)
	DeleteCreatedBefore(ctx context.Context, before time.Time) (int64, error)
}

type OutboxRepository interface {
	InsertPrepared(ctx context.Context, msg OutboxMessage) error
	InsertCommitted(ctx context.Context, msg OutboxMessage) error
	Transition(ctx context.Context, id uuid.UUID, from, to OutboxStatus) (bool, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	ListByStatus(ctx context.Context, status OutboxStatus, updatedBefore time.Time, limit int) ([]OutboxMessage, error)
	TouchCheck(ctx context.Context, id uuid.UUID) (int, error)
}
