package seckill

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrEmptyTransactionID = errors.New("transaction id is required")
	ErrInvalidBuyer       = errors.New("buyer id is required")
)

const orderNoTimestampFormat = "20060102150405"

type Order struct {
	id            uuid.UUID
	orderNo       string
	buyerID       uuid.UUID
	itemID        uuid.UUID
	priceCents    int64
	status        OrderStatus
	transactionID string
	createdAt     time.Time
	paidAt        *time.Time
}

// NewOrder creates an unpaid order for the reservation identified by transactionID.
func NewOrder(buyerID uuid.UUID, item *Item, transactionID string, now time.Time) (*Order, error) {
	if buyerID == uuid.Nil {
		return nil, ErrInvalidBuyer
	}
	if strings.TrimSpace(transactionID) == "" {
		return nil, ErrEmptyTransactionID
	}

	return &Order{
		id:            uuid.New(),
		orderNo:       NewOrderNo(now),
		buyerID:       buyerID,
		itemID:        item.ID(),
		priceCents:    item.PriceCents(),
		status:        OrderUnpaid,
		transactionID: transactionID,
		createdAt:     now,
	}, nil
}

func ReconstructOrder(
	id uuid.UUID,
	orderNo string,
	buyerID, itemID uuid.UUID,
	priceCents int64,
	status OrderStatus,
	transactionID string,
	createdAt time.Time,
	paidAt *time.Time,
) (*Order, error) {
	if !status.IsValid() {
		return nil, ErrInvalidOrderStatus
	}
	return &Order{
		id:            id,
		orderNo:       orderNo,
		buyerID:       buyerID,
		itemID:        itemID,
		priceCents:    priceCents,
		status:        status,
		transactionID: transactionID,
		createdAt:     createdAt,
		paidAt:        paidAt,
	}, nil
}

// NewOrderNo renders a sortable order number: the second-resolution timestamp
// followed by eight hex characters of a random UUID.
func NewOrderNo(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return now.Format(orderNoTimestampFormat) + strings.ToUpper(suffix)
}

func (o *Order) ID() uuid.UUID { return o.id }
func (o *Order) OrderNo() string { return o.orderNo }
func (o *Order) BuyerID() uuid.UUID { return o.buyerID }
func (o *Order) ItemID() uuid.UUID { return o.itemID }
func (o *Order) PriceCents() int64 { return o.priceCents }
func (o *Order) Status() OrderStatus { return o.status }
func (o *Order) TransactionID() string { return o.transactionID }
func (o *Order) CreatedAt() time.Time { return o.createdAt }
func (o *Order) PaidAt() *time.Time { return o.paidAt }
func (o *Order) IsCancelled() bool { return o.status == OrderCancelled }
