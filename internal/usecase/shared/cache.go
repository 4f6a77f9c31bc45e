package shared

import (
	"context"

	"gin-seckill/internal/domain/seckill"
)

// StockCache is the fast, shared view of a sale's stock. PreDeduct fails with
// errs.ErrStockExhausted or errs.ErrStockNotLoaded. Rollback and ReleaseReserved
// act at most once per transaction id and report whether they did.
type StockCache interface {
	PreDeduct(ctx context.Context, sale seckill.SaleKey) (int64, error)
	Rollback(ctx context.Context, sale seckill.SaleKey, txID string) (bool, error)
	ReleaseReserved(ctx context.Context, sale seckill.SaleKey, txID string) (bool, error)
	Restock(ctx context.Context, sale seckill.SaleKey) error
	ReadPair(ctx context.Context, sale seckill.SaleKey) (StockPair, error)
	SetAvailable(ctx context.Context, sale seckill.SaleKey, n int64) error
	MarkSoldOut(ctx context.Context, sale seckill.SaleKey) error
	IsSoldOut(ctx context.Context, sale seckill.SaleKey) (bool, error)
	ClearSoldOut(ctx context.Context, sale seckill.SaleKey) error
	WarmUpIfAbsent(ctx context.Context, sale seckill.SaleKey, loader func(ctx context.Context) (int64, error)) error
}

type StockPair struct {
	Available int64
	Reserved  int64
	Present   bool
}
