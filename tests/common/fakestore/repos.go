//go:build unit

package fakestore

import (
	"context"
	"slices"
	"sort"
	"time"

	"gin-seckill/internal/domain/seckill"
	"gin-seckill/internal/usecase/shared"

	"github.com/google/uuid"
)

type itemRepo struct{ t *tx }

func (r itemRepo) FindByID(_ context.Context, itemID uuid.UUID) (*seckill.Item, error) {
	defer r.t.lock()()
	s := r.t.store
	if err := s.fail(OpItemFind); err != nil {
		return nil, err
	}
	row, ok := s.st.items[itemID]
	if !ok {
		return nil, s.notFound("item not found")
	}
	return toItem(itemID, row)
}

func (r itemRepo) List(_ context.Context) ([]*seckill.Item, error) {
	defer r.t.lock()()
	return r.t.store.listItems(func(itemRow) bool { return true })
}

func (r itemRepo) ListActive(_ context.Context, now time.Time) ([]*seckill.Item, error) {
	defer r.t.lock()()
	return r.t.store.listItems(func(row itemRow) bool {
		return !now.Before(row.startTime) && !now.After(row.endTime)
	})
}

func (r itemRepo) GetStock(_ context.Context, itemID uuid.UUID) (shared.ItemStock, error) {
	defer r.t.lock()()
	s := r.t.store
	if err := s.fail(OpItemGetStock); err != nil {
		return shared.ItemStock{}, err
	}
	row, ok := s.st.items[itemID]
	if !ok {
		return shared.ItemStock{}, s.notFound("item not found")
	}
	return shared.ItemStock{StockCount: int64(row.stockCount), Version: row.version}, nil
}

func (r itemRepo) DecrementStockIfPositive(_ context.Context, itemID uuid.UUID) (int64, error) {
	defer r.t.lock()()
	s := r.t.store
	if err := s.fail(OpItemDecrement); err != nil {
		return 0, err
	}
	row, ok := s.st.items[itemID]
	if !ok || row.stockCount <= 0 {
		return 0, nil
	}
	row.stockCount--
	row.version++
	s.st.items[itemID] = row
	return 1, nil
}

func (r itemRepo) IncrementStock(_ context.Context, itemID uuid.UUID) (int64, error) {
	defer r.t.lock()()
	s := r.t.store
	if err := s.fail(OpItemIncrement); err != nil {
		return 0, err
	}
	row, ok := s.st.items[itemID]
	if !ok || row.stockCount >= row.totalStock {
		return 0, nil
	}
	row.stockCount++
	row.version++
	s.st.items[itemID] = row
	return 1, nil
}

func (s *Store) listItems(keep func(itemRow) bool) ([]*seckill.Item, error) {
	var items []*seckill.Item
	for id, row := range s.st.items {
		if !keep(row) {
			continue
		}
		item, err := toItem(id, row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ID().String() < items[j].ID().String()
	})
	return items, nil
}

func toItem(id uuid.UUID, row itemRow) (*seckill.Item, error) {
	return seckill.NewItem(id, row.name, row.priceCents, row.totalStock, row.stockCount, row.version, row.startTime, row.endTime)
}

type orderRepo struct{ t *tx }

func (r orderRepo) Insert(_ context.Context, order *seckill.Order) error {
	defer r.t.lock()()
	s := r.t.store
	if err := s.fail(OpOrderInsert); err != nil {
		return err
	}
	if _, exists := s.st.orders[order.TransactionID()]; exists {
		return s.duplicate("transaction id already used")
	}
	for _, o := range s.st.orders {
		if o.BuyerID() == order.BuyerID() && o.ItemID() == order.ItemID() && !o.IsCancelled() {
			return s.duplicate("buyer already holds a live order")
		}
	}
	s.st.orders[order.TransactionID()] = order
	return nil
}

func (r orderRepo) FindByTransactionID(_ context.Context, txID string) (*seckill.Order, error) {
	defer r.t.lock()()
	s := r.t.store
	if err := s.fail(OpOrderFind); err != nil {
		return nil, err
	}
	o, ok := s.st.orders[txID]
	if !ok {
		return nil, s.notFound("order not found")
	}
	return o, nil
}

func (r orderRepo) FindByBuyerAndItem(_ context.Context, buyerID, itemID uuid.UUID) (*seckill.Order, error) {
	defer r.t.lock()()
	s := r.t.store
	if err := s.fail(OpOrderFind); err != nil {
		return nil, err
	}
	var matches []*seckill.Order
	for _, o := range s.st.orders {
		if o.BuyerID() == buyerID && o.ItemID() == itemID {
			matches = append(matches, o)
		}
	}
	if len(matches) == 0 {
		return nil, s.notFound("order not found")
	}
	// live orders first, then newest
	slices.SortFunc(matches, func(a, b *seckill.Order) int {
		if a.IsCancelled() != b.IsCancelled() {
			if a.IsCancelled() {
				return 1
			}
			return -1
		}
		return b.CreatedAt().Compare(a.CreatedAt())
	})
	return matches[0], nil
}

func (r orderRepo) CancelUnpaid(_ context.Context, txID string) (int64, error) {
	defer r.t.lock()()
	s := r.t.store
	if err := s.fail(OpOrderCancel); err != nil {
		return 0, err
	}
	o, ok := s.st.orders[txID]
	if !ok || o.Status() != seckill.OrderUnpaid {
		return 0, nil
	}
	cancelled, err := seckill.ReconstructOrder(o.ID(), o.OrderNo(), o.BuyerID(), o.ItemID(), o.PriceCents(),
		seckill.OrderCancelled, o.TransactionID(), o.CreatedAt(), o.PaidAt())
	if err != nil {
		return 0, err
	}
	s.st.orders[txID] = cancelled
	return 1, nil
}

type idempotenceRepo struct{ t *tx }

func (r idempotenceRepo) Insert(_ context.Context, txID string, succeeded bool) error {
	defer r.t.lock()()
	s := r.t.store
	if err := s.fail(OpIdempotenceInsert); err != nil {
		return err
	}
	if _, exists := s.st.idempotence[txID]; exists {
		return s.duplicate("idempotence record already exists")
	}
	s.st.idempotence[txID] = seckill.IdempotenceRecord{TransactionID: txID, Succeeded: succeeded, CreatedAt: s.now()}
	return nil
}

func (r idempotenceRepo) Find(_ context.Context, txID string) (*seckill.IdempotenceRecord, error) {
	defer r.t.lock()()
	s := r.t.store
	if err := s.fail(OpIdempotenceFind); err != nil {
		return nil, err
	}
	rec, ok := s.st.idempotence[txID]
	if !ok {
		return nil, s.notFound("idempotence record not found")
	}
	return &rec, nil
}

func (r idempotenceRepo) DeleteCreatedBefore(_ context.Context, before time.Time) (int64, error) {
	defer r.t.lock()()
	s := r.t.store
	var n int64
	for id, rec := range s.st.idempotence {
		if rec.CreatedAt.Before(before) {
			delete(s.st.idempotence, id)
			n++
		}
	}
	return n, nil
}

type outboxRepo struct{ t *tx }

func (r outboxRepo) InsertPrepared(_ context.Context, msg shared.OutboxMessage) error {
	return r.insert(msg, shared.OutboxPrepared)
}

func (r outboxRepo) InsertCommitted(_ context.Context, msg shared.OutboxMessage) error {
	return r.insert(msg, shared.OutboxCommitted)
}

func (r outboxRepo) insert(msg shared.OutboxMessage, status shared.OutboxStatus) error {
	defer r.t.lock()()
	s := r.t.store
	if err := s.fail(OpOutboxInsert); err != nil {
		return err
	}
	if _, exists := s.st.outbox[msg.ID]; exists {
		return s.duplicate("outbox message already exists")
	}
	now := s.now()
	msg.Status = status
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	if msg.DeliverAt.IsZero() {
		msg.DeliverAt = now
	}
	s.st.outbox[msg.ID] = outboxRow{msg: msg, updatedAt: msg.CreatedAt}
	return nil
}

func (r outboxRepo) Transition(_ context.Context, id uuid.UUID, from, to shared.OutboxStatus) (bool, error) {
	defer r.t.lock()()
	s := r.t.store
	if err := s.fail(OpOutboxTransition); err != nil {
		return false, err
	}
	row, ok := s.st.outbox[id]
	if !ok || row.msg.Status != from {
		return false, nil
	}
	row.msg.Status = to
	row.updatedAt = s.now()
	s.st.outbox[id] = row
	return true, nil
}

func (r outboxRepo) MarkSent(_ context.Context, id uuid.UUID) error {
	defer r.t.lock()()
	s := r.t.store
	row, ok := s.st.outbox[id]
	if !ok || row.msg.Status != shared.OutboxCommitted {
		return nil
	}
	now := s.now()
	row.msg.Status = shared.OutboxSent
	row.updatedAt = now
	row.sentAt = &now
	s.st.outbox[id] = row
	return nil
}

func (r outboxRepo) ListByStatus(_ context.Context, status shared.OutboxStatus, updatedBefore time.Time, limit int) ([]shared.OutboxMessage, error) {
	defer r.t.lock()()
	s := r.t.store
	if err := s.fail(OpOutboxList); err != nil {
		return nil, err
	}
	var rows []outboxRow
	for _, row := range s.st.outbox {
		if row.msg.Status == status && row.updatedAt.Before(updatedBefore) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].updatedAt.Before(rows[j].updatedAt) })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	msgs := make([]shared.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.msg)
	}
	return msgs, nil
}

func (r outboxRepo) TouchCheck(_ context.Context, id uuid.UUID) (int, error) {
	defer r.t.lock()()
	s := r.t.store
	row, ok := s.st.outbox[id]
	if !ok {
		return 0, s.notFound("outbox message not found")
	}
	row.msg.CheckCount++
	row.updatedAt = s.now()
	s.st.outbox[id] = row
	return row.msg.CheckCount, nil
}
