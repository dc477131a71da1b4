package archive

import (
	"context"

	"github.com/smallbiznis/breakeven/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.archive",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Provider, error) {
	if !cfg.Archive.Enabled() {
		return NoOpProvider{}, nil
	}
	store, err := NewMinio(Config{
		Endpoint:  cfg.Archive.Endpoint,
		Bucket:    cfg.Archive.Bucket,
		AccessKey: cfg.Archive.AccessKey,
		SecretKey: cfg.Archive.SecretKey,
		UseSSL:    cfg.Archive.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.EnsureBucket(ctx); err != nil {
				log.Warn("bundle archive bucket unavailable", zap.String("bucket", cfg.Archive.Bucket), zap.Error(err))
			}
			return nil
		},
	})
	return store, nil
}
