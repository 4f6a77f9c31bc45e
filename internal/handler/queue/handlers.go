package queue

import (
	"context"

	"gin-seckill/internal/pkg/clock"
	"gin-seckill/internal/pkg/errs"
	"gin-seckill/internal/usecase/compensation"
	"gin-seckill/internal/usecase/shared"
)

type SettlementConsumer interface {
	Handle(ctx context.Context, p shared.SettlementPayload) (bool, error)
}

type CancellationConsumer interface {
	Handle(ctx context.Context, p shared.CancellationPayload) (compensation.Outcome, error)
}

type SettlementHandler struct {
	consumer SettlementConsumer
}

func NewSettlementHandler(consumer SettlementConsumer) *SettlementHandler {
	return &SettlementHandler{consumer: consumer}
}

func (h *SettlementHandler) Name() string { return string(shared.TopicSettlement) }

func (h *SettlementHandler) Handle(ctx context.Context, body []byte) error {
	p, err := shared.DecodeSettlement(body)
	if err != nil {
		return err
	}
	// a false outcome is final and already recorded
	_, err = h.consumer.Handle(ctx, p)
	return err
}

type CancellationHandler struct {
	consumer CancellationConsumer
	clock    clock.Clock
}

func NewCancellationHandler(consumer CancellationConsumer, clk clock.Clock) *CancellationHandler {
	return &CancellationHandler{consumer: consumer, clock: clk}
}

func (h *CancellationHandler) Name() string { return string(shared.TopicCancellation) }

func (h *CancellationHandler) Handle(ctx context.Context, body []byte) error {
	p, err := shared.DecodeCancellation(body)
	if err != nil {
		return err
	}
	_, err = h.consumer.Handle(ctx, p)
	if errs.Is(err, errs.ErrNotYetDue) {
		return &Deferral{After: p.ScheduledAt.Sub(h.clock.Now())}
	}
	return err
}
