package queue

import (
	"context"
	"log/slog"
	"time"

	"gin-seckill/internal/pkg/config"
	"gin-seckill/internal/pkg/errs"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"
	"golang.org/x/sync/errgroup"
)

const (
	maxVisibility     = 12 * time.Hour
	defaultDeferral   = time.Minute
	receiveErrBackoff = 2 * time.Second
)

type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

// Handler processes one message body. Returning nil acknowledges it.
type Handler interface {
	Name() string
	Handle(ctx context.Context, body []byte) error
}

// Deferral asks the poller to hide a message for After before redelivery.
type Deferral struct {
	After time.Duration
}

func (d *Deferral) Error() string {
	return "message deferred for " + d.After.String()
}

func (d *Deferral) Is(target error) bool {
	return target == errs.ErrNotYetDue
}

type Poller struct {
	client   SQSAPI
	queueURL string
	handler  Handler
	cfg      config.WorkerConfig
	logger   *slog.Logger
}

func NewPoller(client SQSAPI, queueURL string, handler Handler, cfg config.WorkerConfig, logger *slog.Logger) *Poller {
	return &Poller{
		client:   client,
		queueURL: queueURL,
		handler:  handler,
		cfg:      cfg,
		logger:   logger.With("queue", handler.Name()),
	}
}

// Run long-polls until ctx is cancelled. It only returns early when the queue
// itself is unusable.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("queue poller started")
	defer p.logger.Info("queue poller stopped")

	for ctx.Err() == nil {
		if err := p.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if fatalQueueError(err) {
				p.logger.Error("queue unavailable, poller exiting", "error", err.Error())
				return err
			}
			p.logger.Warn("receive failed", "error", err.Error())
			select {
			case <-ctx.Done():
			case <-time.After(receiveErrBackoff):
			}
		}
	}
	return nil
}

// PollOnce receives one batch and waits until every message is settled.
func (p *Poller) PollOnce(ctx context.Context) error {
	out, err := p.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:              aws.String(p.queueURL),
		MaxNumberOfMessages:   p.cfg.MaxMessages,
		WaitTimeSeconds:       int32(p.cfg.WaitTime / time.Second),
		MessageAttributeNames: []string{"All"},
	})
	if err != nil {
		return errs.Wrap(err, "failed to receive messages")
	}

	g := new(errgroup.Group)
	g.SetLimit(max(p.cfg.Concurrency, 1))
	for _, msg := range out.Messages {
		g.Go(func() error {
			p.dispatch(ctx, msg)
			return nil
		})
	}
	return g.Wait()
}

func (p *Poller) dispatch(ctx context.Context, msg sqstypes.Message) {
	logger := p.logger.With("message_id", aws.ToString(msg.MessageId))
	if attr, ok := msg.MessageAttributes["transactionId"]; ok {
		logger = logger.With("transaction_id", aws.ToString(attr.StringValue))
	}

	// a message already taken off the wire is finished even during shutdown
	ctx = context.WithoutCancel(ctx)

	err := p.handler.Handle(ctx, []byte(aws.ToString(msg.Body)))
	switch {
	case err == nil:
		p.delete(ctx, logger, msg)
	case errs.Is(err, errs.ErrInvalidMessage):
		logger.Error("dropping malformed message", "error", err.Error())
		p.delete(ctx, logger, msg)
	case errs.Is(err, errs.ErrNotYetDue):
		after := defaultDeferral
		var d *Deferral
		if errs.As(err, &d) {
			after = d.After
		}
		p.hide(ctx, logger, msg, after)
	default:
		// left in flight; SQS redelivers after the visibility timeout
		logger.Error("message handling failed", "error", err.Error())
	}
}

func (p *Poller) delete(ctx context.Context, logger *slog.Logger, msg sqstypes.Message) {
	_, err := p.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(p.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		logger.Warn("failed to delete message", "error", err.Error())
	}
}

func (p *Poller) hide(ctx context.Context, logger *slog.Logger, msg sqstypes.Message, after time.Duration) {
	after = min(max(after, time.Second), maxVisibility)
	_, err := p.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(p.queueURL),
		ReceiptHandle:     msg.ReceiptHandle,
		VisibilityTimeout: int32((after + time.Second - 1) / time.Second),
	})
	if err != nil {
		logger.Warn("failed to defer message", "error", err.Error())
		return
	}
	logger.Debug("message deferred", "after", after.String())
}

func fatalQueueError(err error) bool {
	var apiErr smithy.APIError
	if !errs.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "AWS.SimpleQueueService.NonExistentQueue", "QueueDoesNotExist", "AccessDenied", "AccessDeniedException":
		return true
	}
	return false
}
