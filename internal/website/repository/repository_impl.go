package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/breakeven/internal/website/domain"
	"github.com/smallbiznis/breakeven/pkg/oid"
	"gorm.io/gorm"
)

const maxAttemptPage = 100

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByOwner(ctx context.Context, db *gorm.DB, ownerID oid.ID) (*domain.PublishedSite, error) {
	return r.firstSite(ctx, db, "owner_id = ?", ownerID)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id oid.ID) (*domain.PublishedSite, error) {
	return r.firstSite(ctx, db, "id = ?", id)
}

func (r *repo) firstSite(ctx context.Context, db *gorm.DB, query string, args ...any) (*domain.PublishedSite, error) {
	var site domain.PublishedSite
	err := db.WithContext(ctx).Where(query, args...).First(&site).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &site, nil
}

func (r *repo) ListPending(ctx context.Context, db *gorm.DB, limit int) ([]domain.PublishedSite, error) {
	if limit <= 0 {
		limit = 50
	}
	var sites []domain.PublishedSite
	err := db.WithContext(ctx).
		Where("deploy_state = ? AND is_active = ?", domain.DeployPending, true).
		Order("updated_at ASC").
		Limit(limit).
		Find(&sites).Error
	return sites, err
}

func (r *repo) ListByOwner(ctx context.Context, db *gorm.DB, ownerID oid.ID) ([]domain.PublishedSite, error) {
	var sites []domain.PublishedSite
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&sites).Error
	return sites, err
}

func (r *repo) InsertSite(ctx context.Context, db *gorm.DB, site *domain.PublishedSite) error {
	return db.WithContext(ctx).Create(site).Error
}

func (r *repo) UpdateSite(ctx context.Context, db *gorm.DB, ownerID, id oid.ID, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.PublishedSite{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repo) InsertContent(ctx context.Context, db *gorm.DB, record *domain.ContentRecord) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *repo) FindContent(ctx context.Context, db *gorm.DB, ownerID, id oid.ID) (*domain.ContentRecord, error) {
	var record domain.ContentRecord
	err := db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repo) InsertAttempt(ctx context.Context, db *gorm.DB, attempt *domain.DeployAttempt) error {
	return db.WithContext(ctx).Create(attempt).Error
}

func (r *repo) ListAttempts(ctx context.Context, db *gorm.DB, ownerID oid.ID, limit int) ([]domain.DeployAttempt, error) {
	if limit <= 0 || limit > maxAttemptPage {
		limit = maxAttemptPage
	}
	var attempts []domain.DeployAttempt
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("started_at DESC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}
