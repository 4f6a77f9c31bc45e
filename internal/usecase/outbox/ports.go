package outbox

import (
	"context"

	"gin-seckill/internal/usecase/shared"
)

// State is the outcome of a local transaction bound to a half message.
type State string

const (
	StateCommit   State = "commit"
	StateRollback State = "rollback"
	StateUnknown  State = "unknown"
)

// Listener owns the local transaction behind a half message.
type Listener interface {
	ExecuteLocalTransaction(ctx context.Context, msg shared.OutboxMessage, arg any) State
	// CheckLocalTransaction resolves a message whose outcome was never recorded.
	CheckLocalTransaction(ctx context.Context, msg shared.OutboxMessage) State
}

// RollbackHandler undoes side effects taken before the half message was sent.
type RollbackHandler interface {
	OnRollback(ctx context.Context, msg shared.OutboxMessage) error
}

// Publisher hands a committed message to the broker.
type Publisher interface {
	Publish(ctx context.Context, msg shared.OutboxMessage) error
}
