package main

import (
	"github.com/smallbiznis/breakeven/internal/bundle"
	"github.com/smallbiznis/breakeven/internal/clock"
	"github.com/smallbiznis/breakeven/internal/config"
	"github.com/smallbiznis/breakeven/internal/content"
	"github.com/smallbiznis/breakeven/internal/events"
	"github.com/smallbiznis/breakeven/internal/locker"
	"github.com/smallbiznis/breakeven/internal/migration"
	"github.com/smallbiznis/breakeven/internal/observability"
	"github.com/smallbiznis/breakeven/internal/owner"
	"github.com/smallbiznis/breakeven/internal/providers"
	"github.com/smallbiznis/breakeven/internal/ratelimit"
	"github.com/smallbiznis/breakeven/internal/scheduler"
	"github.com/smallbiznis/breakeven/internal/server"
	"github.com/smallbiznis/breakeven/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		db.Module,
		clock.Module,
		migration.Module,

		// Adapters
		providers.Module,
		locker.Module,
		events.Module,
		ratelimit.Module,

		// Publishing pipeline
		owner.Module,
		content.Module,
		bundle.Module,

		// HTTP surface and the website, qrcode and interaction services
		server.Module,

		scheduler.Module,
	)
	app.Run()
}
