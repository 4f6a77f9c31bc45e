package components

import (
	"gin-seckill/internal/infra/uow"
	"gin-seckill/internal/pkg/clock"

	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		clock.NewRealClock,
		uow.NewPostgresUoW,
	),
)
