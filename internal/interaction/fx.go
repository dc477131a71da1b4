package interaction

import (
	"github.com/smallbiznis/breakeven/internal/cache"
	"github.com/smallbiznis/breakeven/internal/interaction/liveevents"
	"github.com/smallbiznis/breakeven/internal/interaction/repository"
	"github.com/smallbiznis/breakeven/internal/interaction/service"
	"go.uber.org/fx"
)

var Module = fx.Module("interaction.service",
	fx.Provide(liveevents.NewHub),
	fx.Provide(cache.NewSiteResolverCache),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
