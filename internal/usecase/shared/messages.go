package shared

import (
	"encoding/json"
	"time"

	"gin-seckill/internal/domain/seckill"
	"gin-seckill/internal/pkg/errs"

	"github.com/google/uuid"
)

// SettlementPayload asks the settlement consumer to make a reservation durable.
type SettlementPayload struct {
	ItemID        uuid.UUID `json:"itemId"`
	TransactionID string    `json:"transactionId"`
	WindowStart   int64     `json:"windowStart"`
}

func (p SettlementPayload) Sale() seckill.SaleKey {
	return seckill.SaleKey{ItemID: p.ItemID, WindowStart: p.WindowStart}
}

// CancellationPayload releases an order that is still unpaid at ScheduledAt.
type CancellationPayload struct {
	TransactionID string    `json:"transactionId"`
	ScheduledAt   time.Time `json:"scheduledAt"`
}

func DecodeSettlement(body []byte) (SettlementPayload, error) {
	var p SettlementPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return p, errs.Mark(errs.Wrap(err, "malformed settlement payload"), errs.ErrInvalidMessage)
	}
	if p.ItemID == uuid.Nil || p.TransactionID == "" {
		return p, errs.Mark(errs.New("settlement payload missing fields"), errs.ErrInvalidMessage)
	}
	return p, nil
}

func DecodeCancellation(body []byte) (CancellationPayload, error) {
	var p CancellationPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return p, errs.Mark(errs.Wrap(err, "malformed cancellation payload"), errs.ErrInvalidMessage)
	}
	if p.TransactionID == "" {
		return p, errs.Mark(errs.New("cancellation payload missing transaction id"), errs.ErrInvalidMessage)
	}
	return p, nil
}
