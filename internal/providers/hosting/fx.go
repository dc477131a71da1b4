package hosting

import (
	"github.com/smallbiznis/breakeven/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.hosting",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if cfg.Hosting.APIKey == "" {
		log.Warn("HOSTING_API_KEY not set, publishing is disabled")
		return NoOpProvider{}
	}
	return NewNetlifyClient(Config{APIKey: cfg.Hosting.APIKey, BaseURL: cfg.Hosting.BaseURL}, nil)
}
