package repository

import (
	"context"
	"log/slog"
	"time"

	"gin-seckill/internal/infra"
	"gin-seckill/internal/infra/db"
	"gin-seckill/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OutboxRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewOutboxRepository(dbtx db.DBTX, logger *slog.Logger) *OutboxRepository {
	return &OutboxRepository{
		db:     dbtx,
		logger: logger,
	}
}

func (r *OutboxRepository) InsertPrepared(ctx context.Context, msg shared.OutboxMessage) error {
	return r.insert(ctx, msg, shared.OutboxPrepared)
}

func (r *OutboxRepository) InsertCommitted(ctx context.Context, msg shared.OutboxMessage) error {
	return r.insert(ctx, msg, shared.OutboxCommitted)
}

func (r *OutboxRepository) insert(ctx context.Context, msg shared.OutboxMessage, status shared.OutboxStatus) error {
	deliverAt := msg.DeliverAt
	if deliverAt.IsZero() {
		deliverAt = time.Now()
	}
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO outbox_messages (id, topic, transaction_id, body, status, deliver_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		msg.ID, string(msg.Topic), msg.TransactionID, msg.Body, string(status), deliverAt, createdAt)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), "failed to insert outbox message", err)
	}
	return nil
}

// Transition is a compare-and-set on status; false means another actor moved the row first.
func (r *OutboxRepository) Transition(ctx context.Context, id uuid.UUID, from, to shared.OutboxStatus) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE outbox_messages
		   SET status = $3, updated_at = now()
		 WHERE id = $1 AND status = $2`, id, string(from), string(to))
	if err != nil {
		return false, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to transition outbox message", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE outbox_messages
		   SET status = 'sent', sent_at = now(), updated_at = now()
		 WHERE id = $1 AND status = 'committed'`, id)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to mark outbox message sent", err)
	}
	return nil
}

func (r *OutboxRepository) ListByStatus(ctx context.Context, status shared.OutboxStatus, updatedBefore time.Time, limit int) ([]shared.OutboxMessage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, topic, transaction_id, body, status, deliver_at, check_count, created_at
		  FROM outbox_messages
		 WHERE status = $1 AND updated_at < $2
		 ORDER BY updated_at
		 LIMIT $3`, string(status), updatedBefore, limit)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to list outbox messages", err)
	}

	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (shared.OutboxMessage, error) {
		var (
			m         shared.OutboxMessage
			topic, st string
		)
		err := row.Scan(&m.ID, &topic, &m.TransactionID, &m.Body, &st, &m.DeliverAt, &m.CheckCount, &m.CreatedAt)
		m.Topic = shared.Topic(topic)
		m.Status = shared.OutboxStatus(st)
		return m, err
	})
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to scan outbox messages", err)
	}
	return msgs, nil
}

// TouchCheck bumps the check counter and pushes the row to the back of the relay queue.
func (r *OutboxRepository) TouchCheck(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		UPDATE outbox_messages
		   SET check_count = check_count + 1, updated_at = now()
		 WHERE id = $1
		RETURNING check_count`, id).Scan(&count)
	if err != nil {
		return 0, infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), "failed to record outbox check", err)
	}
	return count, nil
}
