package shared

import "context"

// WithinResult runs fn in a unit-of-work transaction and returns its value once committed.
func WithinResult[T any](ctx context.Context, uow UnitOfWork, fn func(ctx context.Context, tx Tx) (T, error)) (T, error) {
	var (
		zero   T
		result T
	)

	err := uow.Within(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		result, err = fn(ctx, tx)
		return err
	})
	if err != nil {
		return zero, err
	}

	return result, nil
}
