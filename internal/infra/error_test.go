//go:build unit

package infra_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"gin-seckill/internal/infra"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPgError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want infra.RepositoryErrorKind
	}{
		{name: "no rows", err: pgx.ErrNoRows, want: infra.KindNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: infra.KindDuplicateKey},
		{name: "foreign key violation", err: &pgconn.PgError{Code: "23503"}, want: infra.KindForeignKeyViolated},
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, want: infra.KindDBFailure},
		{name: "plain error", err: errors.New("boom"), want: infra.KindDBFailure},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, infra.ClassifyPgError(tc.err))
		})
	}
}

func TestWrapRepoErr(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cause := &pgconn.PgError{Code: "23505"}

	err := infra.WrapRepoErr(logger, infra.KindDuplicateKey, "failed to insert idempotence record", cause)

	assert.True(t, infra.IsKind(err, infra.KindDuplicateKey))
	assert.False(t, infra.IsKind(err, infra.KindNotFound))
	assert.Contains(t, err.Error(), "DUPLICATE_KEY: failed to insert idempotence record")

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr), "driver error must stay reachable")
	assert.False(t, infra.IsKind(errors.New("other"), infra.KindDuplicateKey))
}
