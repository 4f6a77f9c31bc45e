//go:build unit

package seckill_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domain "gin-seckill/internal/domain/seckill"
	"gin-seckill/internal/pkg/errs"
	"gin-seckill/internal/usecase/outbox"
	"gin-seckill/internal/usecase/seckill"
	"gin-seckill/internal/usecase/shared"
	"gin-seckill/tests/common/fakestore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_NoOversellUnderContention(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	item := e.addItem(t, 10)

	const buyers = 1000
	var (
		wg       sync.WaitGroup
		admitted atomic.Int64
		soldOut  atomic.Int64
	)
	for range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.coordinator.Reserve(ctx, uuid.New(), item.ID())
			switch {
			case err == nil:
				admitted.Add(1)
			case errs.Is(err, errs.ErrSoldOut):
				soldOut.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), admitted.Load())
	assert.Equal(t, int64(buyers-10), soldOut.Load())
	assert.Len(t, e.store.Orders(), 10)
	assert.Equal(t, shared.StockPair{Available: 0, Reserved: 10, Present: true}, e.pair(t, item))
	assert.Equal(t, 10, e.publisher.count())

	flagged, err := e.stock.IsSoldOut(ctx, item.SaleKey())
	require.NoError(t, err)
	assert.True(t, flagged)

	// durable stock only moves at settlement
	assert.Equal(t, int64(10), e.store.Stock(item.ID()))
}

func TestCoordinator_Reserve(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	item := e.addItem(t, 5)
	buyer := uuid.New()

	res, err := e.coordinator.Reserve(ctx, buyer, item.ID())
	require.NoError(t, err)
	assert.Equal(t, buyer, res.BuyerID)
	assert.Equal(t, item.ID(), res.ItemID)
	assert.NotEmpty(t, res.TransactionID)
	assert.Equal(t, e.clock.Now(), res.ReservedAt)

	order, ok := e.store.Order(res.TransactionID)
	require.True(t, ok)
	assert.Equal(t, domain.OrderUnpaid, order.Status())
	assert.Equal(t, item.PriceCents(), order.PriceCents())

	settlement, ok := e.store.OutboxByTx(res.TransactionID, shared.TopicSettlement)
	require.True(t, ok)
	assert.Equal(t, shared.OutboxSent, settlement.Status)
	payload, err := shared.DecodeSettlement(settlement.Body)
	require.NoError(t, err)
	assert.Equal(t, item.SaleKey(), payload.Sale())

	cancellation, ok := e.store.OutboxByTx(res.TransactionID, shared.TopicCancellation)
	require.True(t, ok)
	assert.Equal(t, shared.OutboxCommitted, cancellation.Status)
	assert.Equal(t, e.clock.Now().Add(30*time.Minute), cancellation.DeliverAt)

	assert.Equal(t, shared.StockPair{Available: 4, Reserved: 1, Present: true}, e.pair(t, item))
}

func TestCoordinator_RejectsBeforeTouchingStock(t *testing.T) {
	testCases := []struct {
		name        string
		setup       func(t *testing.T, e *env, item *domain.Item) uuid.UUID
		expectedErr error
	}{
		{
			name: "error: unknown item",
			setup: func(*testing.T, *env, *domain.Item) uuid.UUID {
				return uuid.New()
			},
			expectedErr: errs.ErrItemNotFound,
		},
		{
			name: "error: sale not started",
			setup: func(_ *testing.T, e *env, item *domain.Item) uuid.UUID {
				e.clock.Set(saleStart.Add(-time.Minute))
				return item.ID()
			},
			expectedErr: errs.ErrSaleNotStarted,
		},
		{
			name: "error: sale ended",
			setup: func(_ *testing.T, e *env, item *domain.Item) uuid.UUID {
				e.clock.Set(saleStart.Add(2 * time.Hour))
				return item.ID()
			},
			expectedErr: errs.ErrSaleEnded,
		},
		{
			name: "error: sold-out flag set",
			setup: func(t *testing.T, e *env, item *domain.Item) uuid.UUID {
				require.NoError(t, e.stock.MarkSoldOut(context.Background(), item.SaleKey()))
				return item.ID()
			},
			expectedErr: errs.ErrSoldOut,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t)
			item := e.addItem(t, 3)
			itemID := tc.setup(t, e, item)

			_, err := e.coordinator.Reserve(context.Background(), uuid.New(), itemID)

			assert.True(t, errs.Is(err, tc.expectedErr), "expected %v, got %v", tc.expectedErr, err)
			assert.False(t, e.pair(t, item).Present, "counters must not be loaded")
			assert.Empty(t, e.store.Orders())
		})
	}
}

func TestCoordinator_RepeatPurchase(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	item := e.addItem(t, 5)
	buyer := uuid.New()

	_, err := e.coordinator.Reserve(ctx, buyer, item.ID())
	require.NoError(t, err)

	_, err = e.coordinator.Reserve(ctx, buyer, item.ID())
	assert.True(t, errs.Is(err, errs.ErrRepeatPurchase), "got %v", err)
	assert.Equal(t, shared.StockPair{Available: 4, Reserved: 1, Present: true}, e.pair(t, item))
}

func TestCoordinator_FailedOrderWriteRestoresCache(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	item := e.addItem(t, 1)
	e.store.FailNext(fakestore.OpOrderInsert, errors.New("connection reset"))

	res, err := e.coordinator.Reserve(ctx, uuid.New(), item.ID())

	assert.Nil(t, res)
	assert.True(t, errs.Is(err, errs.ErrEmissionFailure), "got %v", err)
	assert.Equal(t, shared.StockPair{Available: 1, Reserved: 0, Present: true}, e.pair(t, item))

	flagged, err := e.stock.IsSoldOut(ctx, item.SaleKey())
	require.NoError(t, err)
	assert.False(t, flagged, "a failed emission must not mark the item sold out")
	assert.Equal(t, 0, e.publisher.count())

	// the unit is still sellable
	_, err = e.coordinator.Reserve(ctx, uuid.New(), item.ID())
	assert.NoError(t, err)
}

func TestCoordinator_HalfMessageStoreFailure(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	item := e.addItem(t, 2)
	e.store.FailNext(fakestore.OpOutboxInsert, errors.New("connection reset"))

	_, err := e.coordinator.Reserve(ctx, uuid.New(), item.ID())

	assert.True(t, errs.Is(err, errs.ErrEmissionFailure), "got %v", err)
	assert.Equal(t, shared.StockPair{Available: 2, Reserved: 0, Present: true}, e.pair(t, item))
	assert.Empty(t, e.store.Orders())
}

func TestCoordinator_Result(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	item := e.addItem(t, 1)
	winner, loser := uuid.New(), uuid.New()

	result, err := e.coordinator.Result(ctx, loser, item.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.ResultPending, result.Status)

	_, err = e.coordinator.Reserve(ctx, winner, item.ID())
	require.NoError(t, err)
	_, err = e.coordinator.Reserve(ctx, loser, item.ID())
	require.True(t, errs.Is(err, errs.ErrSoldOut), "got %v", err)

	result, err = e.coordinator.Result(ctx, winner, item.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.ResultWon, result.Status)
	assert.Len(t, result.OrderNo, 22)

	result, err = e.coordinator.Result(ctx, loser, item.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.Lost(), result)

	_, err = e.coordinator.Result(ctx, winner, uuid.New())
	assert.True(t, errs.Is(err, errs.ErrItemNotFound))
}

func TestCoordinator_ResultAfterCancellation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	item := e.addItem(t, 5)
	buyer := uuid.New()

	res, err := e.coordinator.Reserve(ctx, buyer, item.ID())
	require.NoError(t, err)
	require.NoError(t, e.store.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		_, err := tx.Orders().CancelUnpaid(ctx, res.TransactionID)
		return err
	}))

	result, err := e.coordinator.Result(ctx, buyer, item.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.Lost(), result, "a cancelled order is a lost attempt even while stock remains")

	_, err = e.coordinator.Reserve(ctx, buyer, item.ID())
	require.NoError(t, err, "a cancelled order does not block a new attempt")

	result, err = e.coordinator.Result(ctx, buyer, item.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.ResultWon, result.Status)
}

func TestCoordinator_Preload(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	active := e.addItem(t, 7)
	upcoming, err := domain.NewItem(uuid.New(), "later", 100, 3, 3, 0, saleStart.Add(24*time.Hour), saleStart.Add(25*time.Hour))
	require.NoError(t, err)
	e.store.AddItem(upcoming)

	warmed, err := e.coordinator.Preload(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, warmed)

	assert.Equal(t, shared.StockPair{Available: 7, Reserved: 0, Present: true}, e.pair(t, active))
	assert.False(t, e.pair(t, upcoming).Present)
}

func TestCoordinator_ResetSoldOut(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	item := e.addItem(t, 1)
	require.NoError(t, e.stock.MarkSoldOut(ctx, item.SaleKey()))

	require.NoError(t, e.coordinator.ResetSoldOut(ctx, item.ID()))

	flagged, err := e.stock.IsSoldOut(ctx, item.SaleKey())
	require.NoError(t, err)
	assert.False(t, flagged)

	err = e.coordinator.ResetSoldOut(ctx, uuid.New())
	assert.True(t, errs.Is(err, errs.ErrItemNotFound))
}

// disconnectingProducer cancels the caller's request mid-emission and, like a
// database driver, refuses to work on a cancelled context.
type disconnectingProducer struct {
	cancel context.CancelFunc
	next   seckill.MessageProducer
}

func (p *disconnectingProducer) SendInTransaction(ctx context.Context, msg outbox.Message, arg any) (outbox.State, error) {
	p.cancel()
	if err := ctx.Err(); err != nil {
		return outbox.StateRollback, err
	}
	return p.next.SendInTransaction(ctx, msg, arg)
}

func TestCoordinator_ClientDisconnectAfterPreDeduction(t *testing.T) {
	e := newEnv(t)
	item := e.addItem(t, 3)
	buyer := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coordinator := e.withProducer(&disconnectingProducer{cancel: cancel, next: e.producer})

	res, err := coordinator.Reserve(ctx, buyer, item.ID())

	require.NoError(t, err)
	order, ok := e.store.Order(res.TransactionID)
	require.True(t, ok, "the order must be written after the caller went away")
	assert.Equal(t, buyer, order.BuyerID())
	assert.Equal(t, shared.StockPair{Available: 2, Reserved: 1, Present: true}, e.pair(t, item))
	assert.Equal(t, 1, e.publisher.count())
}

func TestCoordinator_RolledBackWriteWithStuckHalfMessage(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	item := e.addItem(t, 5)
	buyer := uuid.New()
	e.store.FailNext(fakestore.OpOrderInsert, errors.New("connection reset"))
	e.store.FailNext(fakestore.OpOutboxTransition, errors.New("connection reset"))

	res, err := e.coordinator.Reserve(ctx, buyer, item.ID())

	assert.Nil(t, res)
	assert.True(t, errs.Is(err, errs.ErrEmissionFailure), "got %v", err)
	assert.Empty(t, e.store.Orders())
	// the relay's rollback returns the unit, not the request path
	assert.Equal(t, shared.StockPair{Available: 4, Reserved: 1, Present: true}, e.pair(t, item))

	relay := outbox.NewRelay(e.store, e.publisher, e.listener, e.listener, outbox.RelayConfig{
		CheckDelay:   10 * time.Second,
		PublishGrace: 5 * time.Second,
		MaxChecks:    15,
		BatchSize:    10,
	}, e.clock, e.logger)
	e.clock.Add(time.Minute)

	stats, err := relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.RolledBack)
	assert.Equal(t, shared.StockPair{Available: 5, Reserved: 0, Present: true}, e.pair(t, item))
	assert.Equal(t, 0, e.publisher.count())

	// a second run has nothing left to compensate
	_, err = relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, shared.StockPair{Available: 5, Reserved: 0, Present: true}, e.pair(t, item))
}
