package response

import (
	"time"

	domain "gin-seckill/internal/domain/seckill"

	"github.com/google/uuid"
)

type ReservationResponse struct {
	ItemID        uuid.UUID `json:"itemId"`
	TransactionID string    `json:"transactionId"`
	Status        string    `json:"status"`
	ReservedAt    time.Time `json:"reservedAt"`
}

type ResultResponse struct {
	Status  string `json:"status"`
	OrderNo string `json:"orderNo,omitempty"`
}

func FromReservation(r *domain.Reservation) *ReservationResponse {
	return &ReservationResponse{
		ItemID:        r.ItemID,
		TransactionID: r.TransactionID,
		Status:        string(domain.ResultPending),
		ReservedAt:    r.ReservedAt,
	}
}

func FromResult(r domain.Result) *ResultResponse {
	return &ResultResponse{
		Status:  string(r.Status),
		OrderNo: r.OrderNo,
	}
}
