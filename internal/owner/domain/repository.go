package domain

import (
	"context"

	"github.com/smallbiznis/breakeven/pkg/oid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, owner *Owner) error
	FindByID(ctx context.Context, db *gorm.DB, id oid.ID) (*Owner, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Owner, error)
}
