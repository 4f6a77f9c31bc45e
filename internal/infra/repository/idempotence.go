package repository

import (
	"context"
	"log/slog"
	"time"

	"gin-seckill/internal/domain/seckill"
	"gin-seckill/internal/infra"
	"gin-seckill/internal/infra/db"
)

type IdempotenceRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewIdempotenceRepository(dbtx db.DBTX, logger *slog.Logger) *IdempotenceRepository {
	return &IdempotenceRepository{
		db:     dbtx,
		logger: logger,
	}
}

// Insert reports a duplicate as KindDuplicateKey without raising a SQL error,
// so the enclosing transaction stays usable for the caller's next step.
func (r *IdempotenceRepository) Insert(ctx context.Context, txID string, succeeded bool) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO idempotence_records (transaction_id, processed)
		VALUES ($1, $2)
		ON CONFLICT (transaction_id) DO NOTHING`, txID, succeeded)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), "failed to insert idempotence record", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(r.logger, infra.KindDuplicateKey, "idempotence record already exists", nil)
	}
	return nil
}

func (r *IdempotenceRepository) Find(ctx context.Context, txID string) (*seckill.IdempotenceRecord, error) {
	rec := &seckill.IdempotenceRecord{TransactionID: txID}
	err := r.db.QueryRow(ctx,
		`SELECT processed, created_at FROM idempotence_records WHERE transaction_id = $1`, txID).
		Scan(&rec.Succeeded, &rec.CreatedAt)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), "failed to find idempotence record", err)
	}
	return rec, nil
}

func (r *IdempotenceRepository) DeleteCreatedBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM idempotence_records WHERE created_at < $1`, before)
	if err != nil {
		return 0, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to purge idempotence records", err)
	}
	return tag.RowsAffected(), nil
}
