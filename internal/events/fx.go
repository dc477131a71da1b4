package events

import (
	"context"

	"github.com/smallbiznis/breakeven/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("events",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Sink {
	if !cfg.Kafka.Enabled() {
		return NoOpSink{}
	}
	sink := NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	log.Info("interaction events enabled",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return sink.Close()
		},
	})
	return sink
}
