//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// DBLike is satisfied by a pool and by a transaction, so fixtures can join a test's tx.
type DBLike interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ItemFixture struct {
	Name       string
	PriceCents int64
	Stock      int
	StartTime  time.Time
	EndTime    time.Time
}

// OnSaleItem is open for an hour either side of now.
func OnSaleItem(stock int) ItemFixture {
	now := time.Now()
	return ItemFixture{
		Name:       "limited sneaker",
		PriceCents: 19900,
		Stock:      stock,
		StartTime:  now.Add(-time.Hour),
		EndTime:    now.Add(time.Hour),
	}
}

func CreateTestItem(t *testing.T, db DBLike, f ItemFixture) uuid.UUID {
	t.Helper()

	itemID := uuid.New()
	_, err := db.Exec(context.Background(),
		`INSERT INTO seckill_items (id, name, price_cents, total_stock, stock_count, start_time, end_time)
		 VALUES ($1, $2, $3, $4, $4, $5, $6)`,
		itemID, f.Name, f.PriceCents, f.Stock, f.StartTime, f.EndTime)
	require.NoError(t, err)

	return itemID
}

func StockCount(t *testing.T, db DBLike, itemID uuid.UUID) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(), "SELECT stock_count FROM seckill_items WHERE id = $1", itemID).Scan(&n)
	require.NoError(t, err)
	return n
}

func CountRows(t *testing.T, db DBLike, table, where string, args ...any) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(), "SELECT count(*) FROM "+table+" WHERE "+where, args...).Scan(&n)
	require.NoError(t, err)
	return n
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	_, err := pool.Exec(ctx, sqlAny.(string))
	return err
}
