//go:build unit

// Package fakestore is an in-memory shared.UnitOfWork. Transactions are
// serialized by one mutex and a failed transaction restores the snapshot
// taken when it began.
package fakestore

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"sync"
	"time"

	"gin-seckill/internal/domain/seckill"
	"gin-seckill/internal/infra"
	"gin-seckill/internal/usecase/shared"

	"github.com/google/uuid"
)

// Operation names accepted by FailNext.
const (
	OpItemFind          = "items.find"
	OpItemGetStock      = "items.get_stock"
	OpItemDecrement     = "items.decrement"
	OpItemIncrement     = "items.increment"
	OpOrderInsert       = "orders.insert"
	OpOrderFind         = "orders.find"
	OpOrderCancel       = "orders.cancel"
	OpIdempotenceInsert = "idempotence.insert"
	OpIdempotenceFind   = "idempotence.find"
	OpOutboxInsert      = "outbox.insert"
	OpOutboxTransition  = "outbox.transition"
	OpOutboxList        = "outbox.list"
)

type itemRow struct {
	name       string
	priceCents int64
	totalStock int
	stockCount int
	version    int
	startTime  time.Time
	endTime    time.Time
}

type outboxRow struct {
	msg       shared.OutboxMessage
	updatedAt time.Time
	sentAt    *time.Time
}

type state struct {
	items       map[uuid.UUID]itemRow
	orders      map[string]*seckill.Order
	idempotence map[string]seckill.IdempotenceRecord
	outbox      map[uuid.UUID]outboxRow
}

func (s state) clone() state {
	c := state{
		items:       maps.Clone(s.items),
		orders:      maps.Clone(s.orders),
		idempotence: maps.Clone(s.idempotence),
		outbox:      maps.Clone(s.outbox),
	}
	return c
}

type Store struct {
	mu       sync.Mutex
	st       state
	failures map[string]error
	logger   *slog.Logger
	now      func() time.Time
}

func New() *Store {
	return &Store{
		st: state{
			items:       map[uuid.UUID]itemRow{},
			orders:      map[string]*seckill.Order{},
			idempotence: map[string]seckill.IdempotenceRecord{},
			outbox:      map[uuid.UUID]outboxRow{},
		},
		failures: map[string]error{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
}

// SetNow overrides the clock used for created_at/updated_at columns.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailNext makes the next call of op return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(ctx, &tx{store: s}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) Reads() shared.Tx {
	return &tx{store: s, autoLock: true}
}

// AddItem seeds an item.
func (s *Store) AddItem(item *seckill.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.items[item.ID()] = itemRow{
		name:       item.Name(),
		priceCents: item.PriceCents(),
		totalStock: item.TotalStock(),
		stockCount: item.StockCount(),
		version:    item.Version(),
		startTime:  item.StartTime(),
		endTime:    item.EndTime(),
	}
}

// AddOrder seeds an order directly.
func (s *Store) AddOrder(order *seckill.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.orders[order.TransactionID()] = order
}

// AddOutbox seeds an outbox row with the given update time.
func (s *Store) AddOutbox(msg shared.OutboxMessage, updatedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.outbox[msg.ID] = outboxRow{msg: msg, updatedAt: updatedAt}
}

func (s *Store) Stock(itemID uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(s.st.items[itemID].stockCount)
}

func (s *Store) Orders() []*seckill.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*seckill.Order, 0, len(s.st.orders))
	for _, o := range s.st.orders {
		out = append(out, o)
	}
	return out
}

func (s *Store) Order(txID string) (*seckill.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.st.orders[txID]
	return o, ok
}

func (s *Store) Record(txID string) (seckill.IdempotenceRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.st.idempotence[txID]
	return r, ok
}

func (s *Store) OutboxMessages() []shared.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shared.OutboxMessage, 0, len(s.st.outbox))
	for _, r := range s.st.outbox {
		out = append(out, r.msg)
	}
	return out
}

func (s *Store) OutboxByTx(txID string, topic shared.Topic) (shared.OutboxMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.st.outbox {
		if r.msg.TransactionID == txID && r.msg.Topic == topic {
			return r.msg, true
		}
	}
	return shared.OutboxMessage{}, false
}

func (s *Store) fail(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

func (s *Store) notFound(msg string) error {
	return infra.WrapRepoErr(s.logger, infra.KindNotFound, msg, nil)
}

func (s *Store) duplicate(msg string) error {
	return infra.WrapRepoErr(s.logger, infra.KindDuplicateKey, msg, nil)
}

type tx struct {
	store    *Store
	autoLock bool
}

func (t *tx) lock() func() {
	if !t.autoLock {
		return func() {}
	}
	t.store.mu.Lock()
	return t.store.mu.Unlock
}

func (t *tx) Items() shared.ItemRepository { return itemRepo{t} }
func (t *tx) Orders() shared.OrderRepository { return orderRepo{t} }
func (t *tx) Idempotence() shared.IdempotenceRepository { return idempotenceRepo{t} }
func (t *tx) Outbox() shared.OutboxRepository { return outboxRepo{t} }
