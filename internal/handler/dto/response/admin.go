package response

import (
	"gin-seckill/internal/usecase/reconcile"

	"github.com/google/uuid"
)

type DriftResponse struct {
	ItemID      uuid.UUID `json:"itemId"`
	WindowStart int64     `json:"windowStart"`
	Durable     int64     `json:"durable"`
	Available   int64     `json:"available"`
	Reserved    int64     `json:"reserved"`
	Delta       int64     `json:"delta"`
	Corrected   bool      `json:"corrected"`
}

type ReconcileResponse struct {
	Checked    int             `json:"checked"`
	Skipped    int             `json:"skipped"`
	Consistent int             `json:"consistent"`
	Failed     int             `json:"failed"`
	Drifts     []DriftResponse `json:"drifts"`
}

func FromReport(r reconcile.Report) *ReconcileResponse {
	drifts := make([]DriftResponse, len(r.Drifts))
	for i, d := range r.Drifts {
		drifts[i] = DriftResponse{
			ItemID:      d.ItemID,
			WindowStart: d.Sale.WindowStart,
			Durable:     d.Durable,
			Available:   d.Available,
			Reserved:    d.Reserved,
			Delta:       d.Delta(),
			Corrected:   d.Corrected,
		}
	}
	return &ReconcileResponse{
		Checked:    r.Checked,
		Skipped:    r.Skipped,
		Consistent: r.Consistent,
		Failed:     r.Failed,
		Drifts:     drifts,
	}
}
