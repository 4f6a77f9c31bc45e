package seckill

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidStock  = errors.New("invalid stock count")
	ErrInvalidWindow = errors.New("invalid sale window")
	ErrInvalidPrice  = errors.New("price cannot be negative")
)

// SaleKey namespaces every cache-side counter of an item by its sale window,
// so a new window on the same item never inherits a stale sold-out flag.
type SaleKey struct {
	ItemID      uuid.UUID
	WindowStart int64
}

func (k SaleKey) String() string {
	return k.ItemID.String() + ":" + strconv.FormatInt(k.WindowStart, 10)
}

type Item struct {
	id         uuid.UUID
	name       string
	priceCents int64
	totalStock int
	stockCount int
	version    int
	startTime  time.Time
	endTime    time.Time
}

func NewItem(id uuid.UUID, name string, priceCents int64, totalStock, stockCount, version int, startTime, endTime time.Time) (*Item, error) {
	if priceCents < 0 {
		return nil, ErrInvalidPrice
	}
	if totalStock < 0 || stockCount < 0 || stockCount > totalStock {
		return nil, ErrInvalidStock
	}
	if !endTime.After(startTime) {
		return nil, ErrInvalidWindow
	}

	return &Item{
		id:         id,
		name:       name,
		priceCents: priceCents,
		totalStock: totalStock,
		stockCount: stockCount,
		version:    version,
		startTime:  startTime,
		endTime:    endTime,
	}, nil
}

func (i *Item) ID() uuid.UUID { return i.id }
func (i *Item) Name() string { return i.name }
func (i *Item) PriceCents() int64 { return i.priceCents }
func (i *Item) TotalStock() int { return i.totalStock }
func (i *Item) StockCount() int { return i.stockCount }
func (i *Item) Version() int { return i.version }
func (i *Item) StartTime() time.Time { return i.startTime }
func (i *Item) EndTime() time.Time { return i.endTime }

func (i *Item) SaleKey() SaleKey {
	return SaleKey{ItemID: i.id, WindowStart: i.startTime.Unix()}
}

// Window reports the sale phase at now and, for upcoming sales, the seconds left
// until the start. Ended sales report -1.
func (i *Item) Window(now time.Time) (WindowStatus, int) {
	switch {
	case now.Before(i.startTime):
		return WindowUpcoming, int(i.startTime.Sub(now) / time.Second)
	case now.After(i.endTime):
		return WindowEnded, -1
	default:
		return WindowActive, 0
	}
}

// LowStock reports whether the available count has fallen below the given
// fraction of the total stock.
func (i *Item) LowStock(available int64, threshold float64) bool {
	return float64(available) < float64(i.totalStock)*threshold
}
