package messaging

import (
	"context"
	"math"
	"time"

	"gin-seckill/internal/pkg/clock"
	"gin-seckill/internal/pkg/config"
	"gin-seckill/internal/pkg/errs"
	"gin-seckill/internal/usecase/outbox"
	"gin-seckill/internal/usecase/shared"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// MaxDelay is the longest DelaySeconds SQS accepts. Later deliveries arrive
// early and are hidden again by the consumer.
const MaxDelay = 15 * time.Minute

const (
	AttrTransactionID = "transactionId"
	AttrTopic         = "topic"
)

type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

var _ outbox.Publisher = (*Publisher)(nil)

// Publisher delivers outbox rows to the queue bound to their topic.
type Publisher struct {
	client SQSSender
	queues map[shared.Topic]string
	clock  clock.Clock
}

func NewPublisher(client SQSSender, cfg config.AWSConfig, clk clock.Clock) *Publisher {
	return &Publisher{
		client: client,
		queues: map[shared.Topic]string{
			shared.TopicSettlement:   cfg.SettlementQueueURL,
			shared.TopicCancellation: cfg.CancellationQueueURL,
		},
		clock: clk,
	}
}

func (p *Publisher) Publish(ctx context.Context, msg shared.OutboxMessage) error {
	queueURL, ok := p.queues[msg.Topic]
	if !ok || queueURL == "" {
		return errs.Newf("no queue configured for topic %q", msg.Topic)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:     aws.String(queueURL),
		MessageBody:  aws.String(string(msg.Body)),
		DelaySeconds: DelaySeconds(msg.DeliverAt, p.clock.Now()),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			AttrTransactionID: {DataType: aws.String("String"), StringValue: aws.String(msg.TransactionID)},
			AttrTopic:         {DataType: aws.String("String"), StringValue: aws.String(string(msg.Topic))},
		},
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return errs.Wrapf(err, "failed to send %s message", msg.Topic)
	}
	return nil
}

// DelaySeconds rounds the remaining time up to whole seconds, capped at MaxDelay.
func DelaySeconds(deliverAt, now time.Time) int32 {
	remaining := deliverAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	remaining = min(remaining, MaxDelay)
	return int32(math.Ceil(remaining.Seconds()))
}
