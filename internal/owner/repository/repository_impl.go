package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/breakeven/internal/owner/domain"
	"github.com/smallbiznis/breakeven/pkg/oid"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, owner *domain.Owner) error {
	return db.WithContext(ctx).Create(owner).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id oid.ID) (*domain.Owner, error) {
	return r.first(ctx, db, "id = ?", id)
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Owner, error) {
	return r.first(ctx, db, "email = ?", email)
}

func (r *repo) first(ctx context.Context, db *gorm.DB, query string, args ...any) (*domain.Owner, error) {
	var owner domain.Owner
	err := db.WithContext(ctx).Where(query, args...).First(&owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &owner, nil
}
