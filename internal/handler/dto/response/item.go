package response

import (
	"time"

	"gin-seckill/internal/usecase/seckill"

	"github.com/google/uuid"
)

type ItemResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	PriceCents    int64     `json:"priceCents"`
	TotalStock    int       `json:"totalStock"`
	StockCount    int       `json:"stockCount"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	Status        string    `json:"status"`
	RemainSeconds int       `json:"remainSeconds"`
}

func FromItemView(v *seckill.ItemView) *ItemResponse {
	return &ItemResponse{
		ID:            v.ID,
		Name:          v.Name,
		PriceCents:    v.PriceCents,
		TotalStock:    v.TotalStock,
		StockCount:    v.StockCount,
		StartTime:     v.StartTime,
		EndTime:       v.EndTime,
		Status:        v.Status.String(),
		RemainSeconds: v.RemainSeconds,
	}
}
