package outbox

import (
	"context"
	"log/slog"
	"time"

	"gin-seckill/internal/pkg/clock"
	"gin-seckill/internal/pkg/errs"
	"gin-seckill/internal/usecase/shared"
)

type RelayConfig struct {
	CheckDelay   time.Duration
	PublishGrace time.Duration
	MaxChecks    int
	BatchSize    int
}

type RelayStats struct {
	Published  int
	Committed  int
	RolledBack int
	Unresolved int
}

// Relay finishes what a Producer could not: it republishes committed rows and
// resolves prepared rows by asking the listener.
type Relay struct {
	uow        shared.UnitOfWork
	publisher  Publisher
	listener   Listener
	onRollback RollbackHandler
	cfg        RelayConfig
	clock      clock.Clock
	logger     *slog.Logger
}

func NewRelay(uow shared.UnitOfWork, publisher Publisher, listener Listener, onRollback RollbackHandler, cfg RelayConfig, clk clock.Clock, logger *slog.Logger) *Relay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Relay{
		uow:        uow,
		publisher:  publisher,
		listener:   listener,
		onRollback: onRollback,
		cfg:        cfg,
		clock:      clk,
		logger:     logger,
	}
}

func (r *Relay) RunOnce(ctx context.Context) (RelayStats, error) {
	var stats RelayStats
	outbox := r.uow.Reads().Outbox()
	now := r.clock.Now()

	committed, err := outbox.ListByStatus(ctx, shared.OutboxCommitted, now.Add(-r.cfg.PublishGrace), r.cfg.BatchSize)
	if err != nil {
		return stats, errs.Wrap(err, "failed to list committed messages")
	}
	for _, msg := range committed {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if deliver(ctx, r.publisher, outbox, msg, r.msgLogger(msg)) {
			stats.Published++
		}
	}

	prepared, err := outbox.ListByStatus(ctx, shared.OutboxPrepared, now.Add(-r.cfg.CheckDelay), r.cfg.BatchSize)
	if err != nil {
		return stats, errs.Wrap(err, "failed to list prepared messages")
	}
	for _, msg := range prepared {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		r.resolve(ctx, outbox, msg, &stats)
	}

	return stats, nil
}

func (r *Relay) resolve(ctx context.Context, outbox shared.OutboxRepository, msg shared.OutboxMessage, stats *RelayStats) {
	logger := r.msgLogger(msg)

	switch r.listener.CheckLocalTransaction(ctx, msg) {
	case StateCommit:
		moved, err := outbox.Transition(ctx, msg.ID, shared.OutboxPrepared, shared.OutboxCommitted)
		if err != nil {
			logger.Warn("failed to commit half message", "error", err.Error())
			return
		}
		if !moved {
			return
		}
		stats.Committed++
		msg.Status = shared.OutboxCommitted
		if deliver(ctx, r.publisher, outbox, msg, logger) {
			stats.Published++
		}

	case StateRollback:
		moved, err := outbox.Transition(ctx, msg.ID, shared.OutboxPrepared, shared.OutboxRolledBack)
		if err != nil {
			logger.Warn("failed to roll back half message", "error", err.Error())
			return
		}
		// only the actor that wins the transition compensates
		if !moved {
			return
		}
		stats.RolledBack++
		if r.onRollback != nil {
			if err := r.onRollback.OnRollback(ctx, msg); err != nil {
				logger.Error("rollback handler failed", "error", err.Error())
			}
		}

	default:
		stats.Unresolved++
		checks, err := outbox.TouchCheck(ctx, msg.ID)
		if err != nil {
			logger.Warn("failed to record check", "error", err.Error())
			return
		}
		if checks > r.cfg.MaxChecks {
			logger.Error("half message unresolved after max checks", "checks", checks)
		}
	}
}

func (r *Relay) msgLogger(msg shared.OutboxMessage) *slog.Logger {
	return r.logger.With("outbox_id", msg.ID.String(), "transaction_id", msg.TransactionID, "topic", string(msg.Topic))
}
