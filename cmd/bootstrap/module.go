package bootstrap

import (
	"gin-seckill/cmd/bootstrap/components"
	"gin-seckill/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
	),
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	CacheModule,
	AWSModule,
	JWTModule,
	components.PersistenceModule,
	components.UseCaseModule,
	components.WorkerModule,
	components.HandlerModule,
)
