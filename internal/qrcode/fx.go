package qrcode

import (
	"github.com/smallbiznis/breakeven/internal/qrcode/repository"
	"github.com/smallbiznis/breakeven/internal/qrcode/service"
	"go.uber.org/fx"
)

var Module = fx.Module("qrcode.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(service.NewBinder),
)
