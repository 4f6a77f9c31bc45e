package alert

import (
	"context"
	"log/slog"
	"math"
	"time"

	"gin-seckill/internal/pkg/clock"
	"gin-seckill/internal/pkg/errs"
	"gin-seckill/internal/usecase/reconcile"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const MetricStockDrift = "StockDrift"

type MetricsAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

var _ reconcile.AlertSink = (*CloudWatchSink)(nil)

// CloudWatchSink publishes the absolute drift per item so an alarm can fire
// on any non-zero datapoint.
type CloudWatchSink struct {
	client    MetricsAPI
	namespace string
	clock     clock.Clock
	logger    *slog.Logger
}

func NewCloudWatchSink(client MetricsAPI, namespace string, clk clock.Clock, logger *slog.Logger) *CloudWatchSink {
	return &CloudWatchSink{
		client:    client,
		namespace: namespace,
		clock:     clk,
		logger:    logger,
	}
}

func (s *CloudWatchSink) Alert(ctx context.Context, d reconcile.Drift) error {
	s.logger.Error("stock drift alert",
		"item_id", d.ItemID.String(),
		"window_start", d.Sale.WindowStart,
		"delta", d.Delta(),
		"corrected", d.Corrected,
	)

	_, err := s.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(s.namespace),
		MetricData: []cwtypes.MetricDatum{{
			MetricName: aws.String(MetricStockDrift),
			Timestamp:  aws.Time(s.clock.Now()),
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(math.Abs(float64(d.Delta()))),
			Dimensions: []cwtypes.Dimension{
				{Name: aws.String("ItemId"), Value: aws.String(d.ItemID.String())},
				{Name: aws.String("WindowStart"), Value: aws.String(time.Unix(d.Sale.WindowStart, 0).UTC().Format(time.RFC3339))},
			},
		}},
	})
	if err != nil {
		return errs.Wrap(err, "failed to put drift metric")
	}
	return nil
}

// LogSink only logs. Used when no metrics namespace is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Alert(_ context.Context, d reconcile.Drift) error {
	s.logger.Error("stock drift alert",
		"item_id", d.ItemID.String(),
		"window_start", d.Sale.WindowStart,
		"delta", d.Delta(),
		"corrected", d.Corrected,
	)
	return nil
}
