package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/breakeven/pkg/db/pagination"
	"github.com/smallbiznis/breakeven/pkg/oid"
	"gorm.io/gorm"
)

type Repository interface {
	InsertVisit(ctx context.Context, db *gorm.DB, visit *Visit) error
	InsertMessage(ctx context.Context, db *gorm.DB, msg *InboundMessage) error
	InsertFeedback(ctx context.Context, db *gorm.DB, fb *Feedback) error
	InsertProductInteraction(ctx context.Context, db *gorm.DB, pi *ProductInteraction) error

	// UpsertCustomer inserts the customer or, when (owner, email) exists,
	// applies updates to the existing row. With no updates an existing row is
	// left alone and zero rows are reported.
	UpsertCustomer(ctx context.Context, db *gorm.DB, customer *SubscribedCustomer, updates map[string]any) (int64, error)
	FindCustomer(ctx context.Context, db *gorm.DB, ownerID oid.ID, email string) (*SubscribedCustomer, error)
	TouchCustomer(ctx context.Context, db *gorm.DB, ownerID oid.ID, email string, at time.Time) (int64, error)

	ListActiveProducts(ctx context.Context, db *gorm.DB, ownerID oid.ID) ([]Product, error)
	FindProduct(ctx context.Context, db *gorm.DB, ownerID, productID oid.ID) (*Product, error)
	ListRecentFeedback(ctx context.Context, db *gorm.DB, ownerID oid.ID, limit int) ([]Feedback, error)

	VisitStats(ctx context.Context, db *gorm.DB, ownerID oid.ID) (VisitStats, error)

	// List calls return up to page.Size()+1 rows so the caller can tell
	// whether another page follows.
	ListMessages(ctx context.Context, db *gorm.DB, ownerID oid.ID, page pagination.Pagination) ([]InboundMessage, error)
	MarkMessageRead(ctx context.Context, db *gorm.DB, ownerID, messageID oid.ID) (int64, error)
	CountUnread(ctx context.Context, db *gorm.DB, ownerID oid.ID) (int64, error)
	ListCustomers(ctx context.Context, db *gorm.DB, ownerID oid.ID, search string, page pagination.Pagination) ([]SubscribedCustomer, error)
}

type VisitStats struct {
	TotalVisits    int64      `json:"total_visits"`
	UniqueVisitors int64      `json:"unique_visitors"`
	LastVisit      *time.Time `json:"last_visit"`
}
