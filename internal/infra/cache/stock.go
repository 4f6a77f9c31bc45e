package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"gin-seckill/internal/domain/seckill"
	"gin-seckill/internal/pkg/config"
	"gin-seckill/internal/pkg/errs"
	"gin-seckill/internal/usecase/shared"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

var _ shared.StockCache = (*StockCache)(nil)

type StockCache struct {
	client  redis.UniversalClient
	locker  *Locker
	soldOut *expirable.LRU[string, bool]
	logger  *slog.Logger

	lockLease    time.Duration
	lockTimeout  time.Duration
	lockLostWait time.Duration
	releasedTTL  time.Duration
}

func NewStockCache(client redis.UniversalClient, locker *Locker, cfg config.SeckillConfig, logger *slog.Logger) *StockCache {
	return &StockCache{
		client:       client,
		locker:       locker,
		soldOut:      expirable.NewLRU[string, bool](cfg.SoldOutCacheSize, nil, cfg.SoldOutCacheTTL),
		logger:       logger,
		lockLease:    cfg.LockLease,
		lockTimeout:  cfg.LockTimeout,
		lockLostWait: cfg.LockLostWait,
		releasedTTL:  cfg.IdempotenceTTL,
	}
}

// PreDeduct moves one unit from available to reserved.
func (c *StockCache) PreDeduct(ctx context.Context, sale seckill.SaleKey) (int64, error) {
	res, err := decrAndReserveScript.Run(ctx, c.client, []string{availableKey(sale), reservedKey(sale)}).Int64()
	if err != nil {
		return 0, errs.Wrap(err, "pre-deduct script failed")
	}

	switch res {
	case -1:
		return 0, errs.ErrStockExhausted
	case -2:
		return 0, errs.ErrStockNotLoaded
	}
	return res, nil
}

// Rollback reverses the PreDeduct of txID. It reports false when the unit was
// already rolled back or released.
func (c *StockCache) Rollback(ctx context.Context, sale seckill.SaleKey, txID string) (bool, error) {
	res, err := rollbackScript.Run(ctx, c.client,
		[]string{availableKey(sale), reservedKey(sale), releasedKey(txID)},
		c.releasedTTLSeconds(),
	).Int64()
	if err != nil {
		return false, errs.Wrap(err, "rollback script failed")
	}
	return res == 1, nil
}

// ReleaseReserved drops the reserved unit of txID once settlement has decided.
// Repeated calls for the same txID are no-ops, so redelivery can finish the step.
func (c *StockCache) ReleaseReserved(ctx context.Context, sale seckill.SaleKey, txID string) (bool, error) {
	res, err := releaseReservedScript.Run(ctx, c.client,
		[]string{reservedKey(sale), releasedKey(txID)},
		c.releasedTTLSeconds(),
	).Int64()
	if err != nil {
		return false, errs.Wrap(err, "release reserved script failed")
	}
	return res == 1, nil
}

func (c *StockCache) releasedTTLSeconds() int64 {
	return max(int64(c.releasedTTL/time.Second), 1)
}

func (c *StockCache) Restock(ctx context.Context, sale seckill.SaleKey) error {
	if err := restockScript.Run(ctx, c.client, []string{availableKey(sale)}).Err(); err != nil {
		return errs.Wrap(err, "restock script failed")
	}
	return nil
}

func (c *StockCache) ReadPair(ctx context.Context, sale seckill.SaleKey) (shared.StockPair, error) {
	vals, err := readPairScript.Run(ctx, c.client, []string{availableKey(sale), reservedKey(sale)}).Slice()
	if err != nil {
		return shared.StockPair{}, errs.Wrap(err, "read pair script failed")
	}

	var pair shared.StockPair
	if len(vals) > 0 && vals[0] != nil {
		pair.Present = true
		if pair.Available, err = toInt64(vals[0]); err != nil {
			return shared.StockPair{}, err
		}
	}
	if len(vals) > 1 && vals[1] != nil {
		if pair.Reserved, err = toInt64(vals[1]); err != nil {
			return shared.StockPair{}, err
		}
	}
	return pair, nil
}

// SetAvailable overwrites the available counter. Reconciler correction only.
func (c *StockCache) SetAvailable(ctx context.Context, sale seckill.SaleKey, n int64) error {
	if err := c.client.Set(ctx, availableKey(sale), n, 0).Err(); err != nil {
		return errs.Wrap(err, "failed to set available stock")
	}
	return nil
}

func (c *StockCache) MarkSoldOut(ctx context.Context, sale seckill.SaleKey) error {
	key := soldOutKey(sale)
	if err := c.client.Set(ctx, key, "1", 0).Err(); err != nil {
		return errs.Wrap(err, "failed to mark sold out")
	}
	c.soldOut.Add(key, true)
	return nil
}

// IsSoldOut consults the local shadow first. Only positive answers are
// shadowed, the flag never goes back to false in the normal flow.
func (c *StockCache) IsSoldOut(ctx context.Context, sale seckill.SaleKey) (bool, error) {
	key := soldOutKey(sale)
	if _, ok := c.soldOut.Get(key); ok {
		return true, nil
	}

	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, errs.Wrap(err, "failed to read sold-out flag")
	}
	if n == 0 {
		return false, nil
	}
	c.soldOut.Add(key, true)
	return true, nil
}

// ClearSoldOut is an operator action. Other instances keep their local
// shadow until it expires.
func (c *StockCache) ClearSoldOut(ctx context.Context, sale seckill.SaleKey) error {
	key := soldOutKey(sale)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return errs.Wrap(err, "failed to clear sold-out flag")
	}
	c.soldOut.Remove(key)
	return nil
}

// WarmUpIfAbsent loads the counters once per sale. Callers that lose the
// race for the lock wait briefly and return; the winner fills the counters.
func (c *StockCache) WarmUpIfAbsent(ctx context.Context, sale seckill.SaleKey, loader func(ctx context.Context) (int64, error)) error {
	loaded, err := c.isLoaded(ctx, sale)
	if err != nil || loaded {
		return err
	}

	lockKey := warmUpLockKey(sale)
	token, err := c.locker.TryLock(ctx, lockKey, c.lockLease, c.lockTimeout)
	if err != nil {
		if errors.Is(err, errs.ErrLockTimeout) {
			c.logger.Warn("warm-up lock not acquired", "sale", sale.String())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.lockLostWait):
			}
			return nil
		}
		return err
	}
	defer func() {
		if _, err := c.locker.Unlock(context.WithoutCancel(ctx), lockKey, token); err != nil {
			c.logger.Warn("failed to release warm-up lock", "sale", sale.String(), "error", err.Error())
		}
	}()

	if loaded, err = c.isLoaded(ctx, sale); err != nil || loaded {
		return err
	}

	stock, err := loader(ctx)
	if err != nil {
		return errs.Wrap(err, "failed to load stock")
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, availableKey(sale), stock, 0)
		pipe.SetNX(ctx, reservedKey(sale), 0, 0)
		return nil
	})
	if err != nil {
		return errs.Wrap(err, "failed to store warmed stock")
	}

	c.logger.Info("stock warmed up", "sale", sale.String(), "stock", stock)
	return nil
}

func (c *StockCache) isLoaded(ctx context.Context, sale seckill.SaleKey) (bool, error) {
	n, err := c.client.Exists(ctx, availableKey(sale)).Result()
	if err != nil {
		return false, errs.Wrap(err, "failed to check cached stock")
	}
	return n == 1, nil
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, errs.Wrapf(err, "malformed counter %q", t)
		}
		return n, nil
	default:
		return 0, errs.New("unexpected counter type")
	}
}
