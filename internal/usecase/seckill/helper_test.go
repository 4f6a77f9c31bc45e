//go:build unit

package seckill_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	domain "gin-seckill/internal/domain/seckill"
	"gin-seckill/internal/infra/cache"
	"gin-seckill/internal/pkg/clock"
	"gin-seckill/internal/pkg/config"
	"gin-seckill/internal/usecase/outbox"
	"gin-seckill/internal/usecase/seckill"
	"gin-seckill/internal/usecase/shared"
	"gin-seckill/tests/common/fakestore"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var saleStart = time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu   sync.Mutex
	sent []shared.OutboxMessage
}

func (p *recordingPublisher) Publish(_ context.Context, msg shared.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

type env struct {
	mr          *miniredis.Miniredis
	store       *fakestore.Store
	stock       *cache.StockCache
	clock       *clock.MockClock
	publisher   *recordingPublisher
	listener    *seckill.OrderListener
	producer    *outbox.Producer
	coordinator seckill.Coordinator
	cfg         config.SeckillConfig
	logger      *slog.Logger
}

func newEnv(t *testing.T) *env {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), PoolSize: 64})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.NewTestConfig().Seckill
	cfg.LockRetryInterval = 5 * time.Millisecond

	e := &env{
		mr:        mr,
		store:     fakestore.New(),
		clock:     clock.NewMockClock(saleStart.Add(5 * time.Second)),
		publisher: &recordingPublisher{},
		cfg:       cfg,
		logger:    logger,
	}
	e.store.SetNow(e.clock.Now)
	e.stock = cache.NewStockCache(client, cache.NewLocker(client, cfg.LockRetryInterval), cfg, logger)
	e.listener = seckill.NewOrderListener(e.store, e.stock, cfg, e.clock, logger)
	e.producer = outbox.NewProducer(e.store, e.publisher, e.listener, e.clock, logger)
	e.coordinator = e.withProducer(e.producer)
	return e
}

// withProducer builds a coordinator over the same store and cache with a different producer.
func (e *env) withProducer(producer seckill.MessageProducer) seckill.Coordinator {
	return seckill.NewCoordinator(e.store, e.stock, producer, e.cfg, e.clock, e.logger)
}

func (e *env) addItem(t *testing.T, stock int) *domain.Item {
	t.Helper()
	item, err := domain.NewItem(uuid.New(), "limited sneaker", 19900, stock, stock, 0, saleStart, saleStart.Add(time.Hour))
	require.NoError(t, err)
	e.store.AddItem(item)
	return item
}

func (e *env) pair(t *testing.T, item *domain.Item) shared.StockPair {
	t.Helper()
	pair, err := e.stock.ReadPair(context.Background(), item.SaleKey())
	require.NoError(t, err)
	return pair
}
