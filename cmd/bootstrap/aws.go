package bootstrap

import (
	"context"

	"gin-seckill/internal/infra/messaging"
	"gin-seckill/internal/pkg/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/fx"
)

var AWSModule = fx.Module("aws",
	fx.Provide(
		NewAWSConfig,
		NewSQSClient,
		NewCloudWatchClient,
	),
)

func NewAWSConfig(cfg config.Config) (aws.Config, error) {
	return messaging.LoadAWSConfig(context.Background(), cfg.AWS)
}

func NewSQSClient(awsCfg aws.Config) *sqs.Client {
	return sqs.NewFromConfig(awsCfg)
}

func NewCloudWatchClient(awsCfg aws.Config) *cloudwatch.Client {
	return cloudwatch.NewFromConfig(awsCfg)
}
