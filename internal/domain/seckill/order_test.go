//go:build unit

package seckill_test

import (
	"regexp"
	"testing"
	"time"

	"gin-seckill/internal/domain/seckill"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	now := time.Date(2026, 10, 1, 10, 0, 5, 0, time.UTC)
	item := newItem(t, now.Add(-time.Minute), now.Add(time.Hour))

	t.Run("success: unpaid order tagged with the transaction id", func(t *testing.T) {
		buyer := uuid.New()
		order, err := seckill.NewOrder(buyer, item, "tx-1", now)
		require.NoError(t, err)

		assert.Equal(t, buyer, order.BuyerID())
		assert.Equal(t, item.ID(), order.ItemID())
		assert.Equal(t, item.PriceCents(), order.PriceCents())
		assert.Equal(t, seckill.OrderUnpaid, order.Status())
		assert.Equal(t, "tx-1", order.TransactionID())
		assert.Equal(t, now, order.CreatedAt())
		assert.Nil(t, order.PaidAt())
		assert.Regexp(t, regexp.MustCompile(`^20261001100005[0-9A-F]{8}$`), order.OrderNo())
	})

	t.Run("error: missing buyer", func(t *testing.T) {
		_, err := seckill.NewOrder(uuid.Nil, item, "tx-1", now)
		assert.ErrorIs(t, err, seckill.ErrInvalidBuyer)
	})

	t.Run("error: blank transaction id", func(t *testing.T) {
		_, err := seckill.NewOrder(uuid.New(), item, "  ", now)
		assert.ErrorIs(t, err, seckill.ErrEmptyTransactionID)
	})
}

func TestOrderNoIsUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		no := seckill.NewOrderNo(now)
		_, dup := seen[no]
		require.False(t, dup, "duplicate order number %s", no)
		seen[no] = struct{}{}
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to seckill.OrderStatus
		legal    bool
	}{
		{seckill.OrderUnpaid, seckill.OrderCancelled, true},
		{seckill.OrderUnpaid, seckill.OrderPaid, true},
		{seckill.OrderPaid, seckill.OrderCancelled, false},
		{seckill.OrderCancelled, seckill.OrderPaid, false},
		{seckill.OrderCancelled, seckill.OrderUnpaid, false},
	}
	for _, tc := range tests {
		t.Run(tc.from.String()+"->"+tc.to.String(), func(t *testing.T) {
			assert.Equal(t, tc.legal, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestReconstructOrder(t *testing.T) {
	_, err := seckill.ReconstructOrder(uuid.New(), "no", uuid.New(), uuid.New(), 100, "refunded", "tx", time.Now(), nil)
	assert.ErrorIs(t, err, seckill.ErrInvalidOrderStatus)

	order, err := seckill.ReconstructOrder(uuid.New(), "no", uuid.New(), uuid.New(), 100, seckill.OrderCancelled, "tx", time.Now(), nil)
	require.NoError(t, err)
	assert.True(t, order.IsCancelled())
}
