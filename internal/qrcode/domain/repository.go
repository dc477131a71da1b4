package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/breakeven/pkg/oid"
	"gorm.io/gorm"
)

type Repository interface {
	Find(ctx context.Context, db *gorm.DB, ownerID oid.ID) (*Binding, error)
	// Ensure inserts an empty binding for the owner unless one exists.
	Ensure(ctx context.Context, db *gorm.DB, ownerID oid.ID, now time.Time) error
	// BindTarget points a non-overridden binding at url.
	BindTarget(ctx context.Context, db *gorm.DB, ownerID oid.ID, url string, now time.Time) error
	SetTarget(ctx context.Context, db *gorm.DB, ownerID oid.ID, url string, override bool, now time.Time) error
	ResetCounters(ctx context.Context, db *gorm.DB, ownerID oid.ID, now time.Time) error
	// RecordScan applies one scan atomically and reports the affected rows.
	RecordScan(ctx context.Context, db *gorm.DB, ownerID oid.ID, now time.Time) (int64, error)
	IncrementGenerations(ctx context.Context, db *gorm.DB, ownerID oid.ID, now time.Time) error
	InsertScan(ctx context.Context, db *gorm.DB, scan *Scan) error
}
