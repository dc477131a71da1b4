package domain

import (
	"context"

	"github.com/smallbiznis/breakeven/pkg/oid"
	"gorm.io/gorm"
)

type Repository interface {
	FindByOwner(ctx context.Context, db *gorm.DB, ownerID oid.ID) (*PublishedSite, error)
	FindByID(ctx context.Context, db *gorm.DB, id oid.ID) (*PublishedSite, error)
	ListPending(ctx context.Context, db *gorm.DB, limit int) ([]PublishedSite, error)
	ListByOwner(ctx context.Context, db *gorm.DB, ownerID oid.ID) ([]PublishedSite, error)
	InsertSite(ctx context.Context, db *gorm.DB, site *PublishedSite) error
	UpdateSite(ctx context.Context, db *gorm.DB, ownerID, id oid.ID, fields map[string]any) error

	InsertContent(ctx context.Context, db *gorm.DB, record *ContentRecord) error
	FindContent(ctx context.Context, db *gorm.DB, ownerID, id oid.ID) (*ContentRecord, error)

	InsertAttempt(ctx context.Context, db *gorm.DB, attempt *DeployAttempt) error
	ListAttempts(ctx context.Context, db *gorm.DB, ownerID oid.ID, limit int) ([]DeployAttempt, error)
}
