package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	interactiondomain "github.com/smallbiznis/breakeven/internal/interaction/domain"
	ownerdomain "github.com/smallbiznis/breakeven/internal/owner/domain"
	qrdomain "github.com/smallbiznis/breakeven/internal/qrcode/domain"
	websitedomain "github.com/smallbiznis/breakeven/internal/website/domain"
	"gorm.io/gorm"
)

const migrationsDir = "sql"

//go:embed sql/*.sql
var embeddedMigrations embed.FS

// Models lists every persisted entity. Non-postgres databases are created
// from these directly.
func Models() []any {
	return []any{
		&ownerdomain.Owner{},
		&websitedomain.ContentRecord{},
		&websitedomain.PublishedSite{},
		&websitedomain.DeployAttempt{},
		&qrdomain.Binding{},
		&qrdomain.Scan{},
		&interactiondomain.Visit{},
		&interactiondomain.InboundMessage{},
		&interactiondomain.SubscribedCustomer{},
		&interactiondomain.Feedback{},
		&interactiondomain.Product{},
		&interactiondomain.ProductInteraction{},
	}
}

// Run brings the schema up to date. Postgres uses the versioned SQL files;
// sqlite and mysql fall back to AutoMigrate.
func Run(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if conn.Dialector.Name() != "postgres" {
		return conn.AutoMigrate(Models()...)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}
