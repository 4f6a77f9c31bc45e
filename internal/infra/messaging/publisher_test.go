//go:build unit

package messaging_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gin-seckill/internal/infra/messaging"
	"gin-seckill/internal/pkg/clock"
	"gin-seckill/internal/pkg/config"
	"gin-seckill/internal/usecase/shared"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSender) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sqs.SendMessageOutput{MessageId: aws.String(uuid.NewString())}, nil
}

func TestPublisher_Publish(t *testing.T) {
	now := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	cfg := config.NewTestConfig().AWS

	testCases := []struct {
		name      string
		topic     shared.Topic
		deliverAt time.Time
		wantQueue string
		wantDelay int32
	}{
		{
			name:      "success: settlement goes out immediately",
			topic:     shared.TopicSettlement,
			deliverAt: now,
			wantQueue: cfg.SettlementQueueURL,
			wantDelay: 0,
		},
		{
			name:      "success: short delay rounds up",
			topic:     shared.TopicCancellation,
			deliverAt: now.Add(90*time.Second + 100*time.Millisecond),
			wantQueue: cfg.CancellationQueueURL,
			wantDelay: 91,
		},
		{
			name:      "success: long delay is capped",
			topic:     shared.TopicCancellation,
			deliverAt: now.Add(30 * time.Minute),
			wantQueue: cfg.CancellationQueueURL,
			wantDelay: 900,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &fakeSender{}
			p := messaging.NewPublisher(sender, cfg, clock.NewMockClock(now))

			err := p.Publish(context.Background(), shared.OutboxMessage{
				ID:            uuid.New(),
				Topic:         tc.topic,
				TransactionID: "tx-1",
				Body:          []byte(`{"transactionId":"tx-1"}`),
				DeliverAt:     tc.deliverAt,
			})
			require.NoError(t, err)

			require.Len(t, sender.inputs, 1)
			in := sender.inputs[0]
			assert.Equal(t, tc.wantQueue, aws.ToString(in.QueueUrl))
			assert.Equal(t, tc.wantDelay, in.DelaySeconds)
			assert.Equal(t, `{"transactionId":"tx-1"}`, aws.ToString(in.MessageBody))
			assert.Equal(t, "tx-1", aws.ToString(in.MessageAttributes[messaging.AttrTransactionID].StringValue))
			assert.Equal(t, string(tc.topic), aws.ToString(in.MessageAttributes[messaging.AttrTopic].StringValue))
		})
	}
}

func TestPublisher_Errors(t *testing.T) {
	now := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)

	t.Run("error: unknown topic", func(t *testing.T) {
		p := messaging.NewPublisher(&fakeSender{}, config.NewTestConfig().AWS, clock.NewMockClock(now))
		err := p.Publish(context.Background(), shared.OutboxMessage{Topic: "refunds"})
		assert.Error(t, err)
	})

	t.Run("error: send fails", func(t *testing.T) {
		sendErr := errors.New("throttled")
		p := messaging.NewPublisher(&fakeSender{err: sendErr}, config.NewTestConfig().AWS, clock.NewMockClock(now))
		err := p.Publish(context.Background(), shared.OutboxMessage{Topic: shared.TopicSettlement})
		require.Error(t, err)
		assert.ErrorIs(t, err, sendErr)
	})
}

func TestDelaySeconds(t *testing.T) {
	now := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, int32(0), messaging.DelaySeconds(now.Add(-time.Minute), now))
	assert.Equal(t, int32(1), messaging.DelaySeconds(now.Add(time.Millisecond), now))
	assert.Equal(t, int32(900), messaging.DelaySeconds(now.Add(time.Hour), now))
}
