package aitext

import (
	"github.com/smallbiznis/breakeven/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.aitext",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if cfg.AI.APIKey == "" {
		log.Warn("AI_TEXT_API_KEY not set, content generation will use fallback copy")
		return NoOpProvider{}
	}
	return NewGenerativeClient(Config{APIKey: cfg.AI.APIKey, BaseURL: cfg.AI.BaseURL}, nil)
}
