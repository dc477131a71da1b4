package ratelimit

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/breakeven/internal/clock"
	"github.com/smallbiznis/breakeven/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rate.limit",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, log *zap.Logger) Limiter {
	limits := cfg.RateLimit
	if !limits.Enabled() {
		log.Info("site callback rate limiting disabled")
		return Unlimited{}
	}
	if !cfg.Redis.Enabled() {
		return NewMemoryLimiter(limits.PerSecond, limits.Burst, clk)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewRedisLimiter(client, limits.PerSecond, limits.Burst)
}
