package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/breakeven/internal/qrcode/domain"
	"github.com/smallbiznis/breakeven/pkg/oid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, ownerID oid.ID) (*domain.Binding, error) {
	var binding domain.Binding
	err := db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&binding).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &binding, nil
}

func (r *repo) Ensure(ctx context.Context, db *gorm.DB, ownerID oid.ID, now time.Time) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "owner_id"}}, DoNothing: true}).
		Create(&domain.Binding{
			ID:        oid.New(),
			OwnerID:   ownerID,
			CreatedAt: now,
			UpdatedAt: now,
		}).Error
}

func (r *repo) BindTarget(ctx context.Context, db *gorm.DB, ownerID oid.ID, url string, now time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Binding{}).
		Where("owner_id = ? AND override = ?", ownerID, false).
		Updates(map[string]any{"target_url": url, "updated_at": now}).Error
}

func (r *repo) SetTarget(ctx context.Context, db *gorm.DB, ownerID oid.ID, url string, override bool, now time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Binding{}).
		Where("owner_id = ?", ownerID).
		Updates(map[string]any{"target_url": url, "override": override, "updated_at": now}).Error
}

func (r *repo) ResetCounters(ctx context.Context, db *gorm.DB, ownerID oid.ID, now time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Binding{}).
		Where("owner_id = ?", ownerID).
		Updates(map[string]any{"total_scans": 0, "scans_today": 0, "updated_at": now}).Error
}

// recordScanQuery assigns scans_today first: MySQL evaluates SET left to
// right, so the CASE must read last_scan_date before it is overwritten.
const recordScanQuery = `UPDATE qr_bindings SET
	scans_today = CASE WHEN last_scan_date = ? THEN scans_today + 1 ELSE 1 END,
	total_scans = total_scans + 1,
	last_scan_at = ?,
	last_scan_date = ?,
	updated_at = ?
WHERE owner_id = ?`

// RecordScan is a single UPDATE so concurrent scans never lose increments.
func (r *repo) RecordScan(ctx context.Context, db *gorm.DB, ownerID oid.ID, now time.Time) (int64, error) {
	today := now.UTC().Format(domain.DateLayout)
	res := db.WithContext(ctx).Exec(recordScanQuery, today, now, today, now, ownerID)
	return res.RowsAffected, res.Error
}

func (r *repo) IncrementGenerations(ctx context.Context, db *gorm.DB, ownerID oid.ID, now time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Binding{}).
		Where("owner_id = ?", ownerID).
		Updates(map[string]any{
			"generation_count": gorm.Expr("generation_count + 1"),
			"updated_at":       now,
		}).Error
}

func (r *repo) InsertScan(ctx context.Context, db *gorm.DB, scan *domain.Scan) error {
	return db.WithContext(ctx).Create(scan).Error
}
