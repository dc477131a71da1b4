// Command devtoken creates or signs in an owner and prints an access token
// for calling the owner API locally.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/smallbiznis/breakeven/internal/auth/token"
	"github.com/smallbiznis/breakeven/internal/clock"
	"github.com/smallbiznis/breakeven/internal/config"
	"github.com/smallbiznis/breakeven/internal/migration"
	"github.com/smallbiznis/breakeven/internal/observability"
	"github.com/smallbiznis/breakeven/internal/owner"
	ownerdomain "github.com/smallbiznis/breakeven/internal/owner/domain"
	"github.com/smallbiznis/breakeven/pkg/db"
	"go.uber.org/fx"
)

type options struct {
	email        string
	password     string
	businessName string
	create       bool
}

func main() {
	var opts options
	flag.StringVar(&opts.email, "email", "", "owner email")
	flag.StringVar(&opts.password, "password", "", "owner password")
	flag.StringVar(&opts.businessName, "business", "", "business name used when creating the owner")
	flag.BoolVar(&opts.create, "create", false, "create the owner when it does not exist")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.email == "" || opts.password == "" {
		return errors.New("-email and -password are required")
	}

	var (
		owners ownerdomain.Service
		tokens *token.Manager
	)
	app := fx.New(
		fx.NopLogger,
		config.Module,
		observability.Module,
		db.Module,
		clock.Module,
		migration.Module,
		owner.Module,
		token.Module,
		fx.Populate(&owners, &tokens),
	)
	if err := app.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = app.Stop(context.Background()) }()

	o, err := owners.Authenticate(ctx, opts.email, opts.password)
	if errors.Is(err, ownerdomain.ErrInvalidCredentials) && opts.create {
		o, err = owners.Create(ctx, ownerdomain.CreateRequest{
			Email:        opts.email,
			Password:     opts.password,
			BusinessName: opts.businessName,
		})
	}
	if err != nil {
		return err
	}

	raw, claims, err := tokens.Issue(o.ID)
	if err != nil {
		return err
	}
	fmt.Printf("owner_id=%s\nexpires_at=%s\naccess_token=%s\n", o.ID, claims.ExpiresAt.UTC().Format(time.RFC3339), raw)
	return nil
}
