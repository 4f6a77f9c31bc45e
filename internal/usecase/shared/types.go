package shared

import (
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxPrepared   OutboxStatus = "prepared"
	OutboxCommitted  OutboxStatus = "committed"
	OutboxRolledBack OutboxStatus = "rolled_back"
	OutboxSent       OutboxStatus = "sent"
)

type Topic string

const (
	TopicSettlement   Topic = "settlement"
	TopicCancellation Topic = "cancellation"
)

// OutboxMessage is the durable half of a message: the row that exists before
// (and independently of) broker delivery.
type OutboxMessage struct {
	ID            uuid.UUID
	Topic         Topic
	TransactionID string
	Body          []byte
	Status        OutboxStatus
	DeliverAt     time.Time
	CheckCount    int
	CreatedAt     time.Time
}
