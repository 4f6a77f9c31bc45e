package cache

import (
	"context"
	"time"

	"gin-seckill/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker is a lease-based mutual exclusion over SET NX PX.
type Locker struct {
	client        redis.UniversalClient
	retryInterval time.Duration
}

func NewLocker(client redis.UniversalClient, retryInterval time.Duration) *Locker {
	if retryInterval <= 0 {
		retryInterval = 50 * time.Millisecond
	}
	return &Locker{
		client:        client,
		retryInterval: retryInterval,
	}
}

// TryLock polls until the lock is taken or timeout elapses. The returned
// token must be passed to Unlock.
func (l *Locker) TryLock(ctx context.Context, key string, lease, timeout time.Duration) (string, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(timeout)

	for {
		ok, err := l.client.SetNX(ctx, key, token, lease).Result()
		if err != nil {
			return "", errs.Wrap(err, "failed to acquire lock")
		}
		if ok {
			return token, nil
		}

		if !time.Now().Before(deadline) {
			return "", errs.ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(l.retryInterval):
		}
	}
}

// Unlock releases the lock only if token still owns it.
func (l *Locker) Unlock(ctx context.Context, key, token string) (bool, error) {
	n, err := unlockScript.Run(ctx, l.client, []string{key}, token).Int64()
	if err != nil {
		return false, errs.Wrap(err, "failed to release lock")
	}
	return n == 1, nil
}
