package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/smallbiznis/breakeven/internal/interaction/domain"
	"github.com/smallbiznis/breakeven/pkg/db/pagination"
	"github.com/smallbiznis/breakeven/pkg/oid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxProducts = 100

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertVisit(ctx context.Context, db *gorm.DB, visit *domain.Visit) error {
	return db.WithContext(ctx).Create(visit).Error
}

func (r *repo) InsertMessage(ctx context.Context, db *gorm.DB, msg *domain.InboundMessage) error {
	return db.WithContext(ctx).Create(msg).Error
}

func (r *repo) InsertFeedback(ctx context.Context, db *gorm.DB, fb *domain.Feedback) error {
	return db.WithContext(ctx).Create(fb).Error
}

func (r *repo) InsertProductInteraction(ctx context.Context, db *gorm.DB, pi *domain.ProductInteraction) error {
	return db.WithContext(ctx).Create(pi).Error
}

func (r *repo) UpsertCustomer(ctx context.Context, db *gorm.DB, customer *domain.SubscribedCustomer, updates map[string]any) (int64, error) {
	conflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "email"}},
	}
	if len(updates) == 0 {
		conflict.DoNothing = true
	} else {
		conflict.DoUpdates = clause.Assignments(updates)
	}
	res := db.WithContext(ctx).Clauses(conflict).Create(customer)
	return res.RowsAffected, res.Error
}

func (r *repo) FindCustomer(ctx context.Context, db *gorm.DB, ownerID oid.ID, email string) (*domain.SubscribedCustomer, error) {
	var customer domain.SubscribedCustomer
	err := db.WithContext(ctx).
		Where("owner_id = ? AND email = ?", ownerID, email).
		First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repo) TouchCustomer(ctx context.Context, db *gorm.DB, ownerID oid.ID, email string, at time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.SubscribedCustomer{}).
		Where("owner_id = ? AND email = ?", ownerID, email).
		Update("last_interaction", at)
	return res.RowsAffected, res.Error
}

func (r *repo) ListActiveProducts(ctx context.Context, db *gorm.DB, ownerID oid.ID) ([]domain.Product, error) {
	var products []domain.Product
	err := db.WithContext(ctx).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Order("created_at DESC").
		Limit(maxProducts).
		Find(&products).Error
	return products, err
}

func (r *repo) FindProduct(ctx context.Context, db *gorm.DB, ownerID, productID oid.ID) (*domain.Product, error) {
	var product domain.Product
	err := db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", productID, ownerID).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repo) ListRecentFeedback(ctx context.Context, db *gorm.DB, ownerID oid.ID, limit int) ([]domain.Feedback, error) {
	var items []domain.Feedback
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// VisitStats counts with one aggregate query and reads the latest visit
// through the model so timestamps decode with the column type.
func (r *repo) VisitStats(ctx context.Context, db *gorm.DB, ownerID oid.ID) (domain.VisitStats, error) {
	query, args, err := sq.
		Select("COUNT(*) AS total_visits", "COUNT(DISTINCT visitor_ip) AS unique_visitors").
		From(domain.Visit{}.TableName()).
		Where("owner_id = ?", ownerID).
		ToSql()
	if err != nil {
		return domain.VisitStats{}, err
	}

	var stats domain.VisitStats
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&stats).Error; err != nil {
		return domain.VisitStats{}, err
	}
	if stats.TotalVisits == 0 {
		return stats, nil
	}

	var last domain.Visit
	err = db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("visited_at DESC").
		Limit(1).
		Find(&last).Error
	if err != nil {
		return domain.VisitStats{}, err
	}
	if !last.VisitedAt.IsZero() {
		at := last.VisitedAt
		stats.LastVisit = &at
	}
	return stats, nil
}

func (r *repo) ListMessages(ctx context.Context, db *gorm.DB, ownerID oid.ID, page pagination.Pagination) ([]domain.InboundMessage, error) {
	stmt, err := pagination.Apply(db.WithContext(ctx).Where("owner_id = ?", ownerID), page)
	if err != nil {
		return nil, err
	}
	var items []domain.InboundMessage
	err = stmt.Find(&items).Error
	return items, err
}

func (r *repo) MarkMessageRead(ctx context.Context, db *gorm.DB, ownerID, messageID oid.ID) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.InboundMessage{}).
		Where("id = ? AND owner_id = ?", messageID, ownerID).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *repo) CountUnread(ctx context.Context, db *gorm.DB, ownerID oid.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.InboundMessage{}).
		Where("owner_id = ? AND is_read = ?", ownerID, false).
		Count(&count).Error
	return count, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *repo) ListCustomers(ctx context.Context, db *gorm.DB, ownerID oid.ID, search string, page pagination.Pagination) ([]domain.SubscribedCustomer, error) {
	base := db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if search = strings.ToLower(strings.TrimSpace(search)); search != "" {
		pattern := "%" + likeEscaper.Replace(search) + "%"
		base = base.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	stmt, err := pagination.Apply(base, page)
	if err != nil {
		return nil, err
	}
	var items []domain.SubscribedCustomer
	err = stmt.Find(&items).Error
	return items, err
}
