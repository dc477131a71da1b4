package migration

import (
	"context"

	"github.com/smallbiznis/breakeven/internal/clock"
	"github.com/smallbiznis/breakeven/internal/config"
	"github.com/smallbiznis/breakeven/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, clk clock.Clock, log *zap.Logger) error {
		if err := Run(conn); err != nil {
			return err
		}

		if !cfg.Bootstrap.Enabled() {
			return nil
		}
		created, err := seed.EnsureOwner(context.Background(), conn, clk, cfg.Bootstrap.OwnerEmail, cfg.Bootstrap.OwnerPassword)
		if err != nil {
			return err
		}
		if created {
			log.Info("bootstrap owner created", zap.String("email", cfg.Bootstrap.OwnerEmail))
		}
		return nil
	}),
)
