package outbox

import (
	"context"
	"log/slog"
	"time"

	"gin-seckill/internal/pkg/clock"
	"gin-seckill/internal/pkg/errs"
	"gin-seckill/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrLocalTransactionRolledBack = errs.New("local transaction rolled back")
	// ErrLocalTransactionDeferred means the local transaction rolled back but the
	// half message could not be discarded. The relay will roll it back and call
	// the RollbackHandler, so the caller must not compensate again.
	ErrLocalTransactionDeferred = errs.New("local transaction rolled back, discard deferred to relay")
)

// Message is what a caller asks to emit; the producer assigns identity and status.
type Message struct {
	Topic         shared.Topic
	TransactionID string
	Body          []byte
	DeliverAt     time.Time
}

type Producer struct {
	uow       shared.UnitOfWork
	publisher Publisher
	listener  Listener
	clock     clock.Clock
	logger    *slog.Logger
}

func NewProducer(uow shared.UnitOfWork, publisher Publisher, listener Listener, clk clock.Clock, logger *slog.Logger) *Producer {
	return &Producer{
		uow:       uow,
		publisher: publisher,
		listener:  listener,
		clock:     clk,
		logger:    logger,
	}
}

// SendInTransaction stores msg as a half message, runs the listener's local
// transaction and then commits or discards the message accordingly.
//
// An error means nothing will ever be delivered. The caller owns compensation
// except for ErrLocalTransactionDeferred, which the relay compensates.
// StateUnknown with a nil error means the row was left prepared and the relay
// owns the outcome, including calling the RollbackHandler.
func (p *Producer) SendInTransaction(ctx context.Context, m Message, arg any) (State, error) {
	now := p.clock.Now()
	msg := shared.OutboxMessage{
		ID:            uuid.New(),
		Topic:         m.Topic,
		TransactionID: m.TransactionID,
		Body:          m.Body,
		Status:        shared.OutboxPrepared,
		DeliverAt:     m.DeliverAt,
		CreatedAt:     now,
	}
	if msg.DeliverAt.IsZero() {
		msg.DeliverAt = now
	}

	outbox := p.uow.Reads().Outbox()
	if err := outbox.InsertPrepared(ctx, msg); err != nil {
		return StateRollback, errs.Wrap(err, "failed to store half message")
	}

	state := p.listener.ExecuteLocalTransaction(ctx, msg, arg)
	logger := p.logger.With("transaction_id", msg.TransactionID, "topic", string(msg.Topic))

	switch state {
	case StateCommit:
		moved, err := outbox.Transition(ctx, msg.ID, shared.OutboxPrepared, shared.OutboxCommitted)
		if err != nil || !moved {
			// the relay will find the order and commit
			logger.Warn("half message left prepared after commit", "error", errString(err))
			return StateCommit, nil
		}
		msg.Status = shared.OutboxCommitted
		deliver(ctx, p.publisher, outbox, msg, logger)
		return StateCommit, nil

	case StateRollback:
		moved, err := outbox.Transition(ctx, msg.ID, shared.OutboxPrepared, shared.OutboxRolledBack)
		if err != nil || !moved {
			logger.Warn("half message left prepared after rollback", "error", errString(err))
			return StateUnknown, ErrLocalTransactionDeferred
		}
		return StateRollback, ErrLocalTransactionRolledBack

	default:
		logger.Warn("local transaction state unknown, deferring to relay")
		return StateUnknown, nil
	}
}

// deliver publishes a committed row. A failed publish leaves the row committed
// for the relay.
func deliver(ctx context.Context, publisher Publisher, outbox shared.OutboxRepository, msg shared.OutboxMessage, logger *slog.Logger) bool {
	if err := publisher.Publish(ctx, msg); err != nil {
		logger.Warn("publish failed, relay will retry", "error", err.Error())
		return false
	}
	if err := outbox.MarkSent(ctx, msg.ID); err != nil {
		// redelivery is harmless, consumers are idempotent
		logger.Warn("failed to mark message sent", "error", err.Error())
	}
	return true
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
