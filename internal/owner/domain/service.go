package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/breakeven/pkg/oid"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Owner, error)
	Get(ctx context.Context, id oid.ID) (*Owner, error)
	// Active returns the owner only when it exists and is active.
	Active(ctx context.Context, id oid.ID) (*Owner, error)
	Authenticate(ctx context.Context, email, password string) (*Owner, error)
}

type CreateRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	DisplayName  string `json:"display_name"`
	BusinessName string `json:"business_name"`
	Phone        string `json:"phone"`
}

var (
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidPassword    = errors.New("invalid_password")
	ErrEmailTaken         = errors.New("email_taken")
	ErrNotFound           = errors.New("owner_not_found")
	ErrInactive           = errors.New("owner_inactive")
	ErrInvalidCredentials = errors.New("invalid_credentials")
)
