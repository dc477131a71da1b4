package website

import (
	"github.com/smallbiznis/breakeven/internal/website/repository"
	"github.com/smallbiznis/breakeven/internal/website/service"
	"go.uber.org/fx"
)

var Module = fx.Module("website.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
