package domain

import (
	"time"

	"github.com/smallbiznis/breakeven/pkg/oid"
)

const (
	MessageTypeContact = "contact_form"
	MessageStatusNew   = "new"

	SourceContactForm = "contact_form"
	SourceNewsletter  = "newsletter"
	SourceFeedback    = "feedback"

	InteractionView    = "view"
	InteractionInquiry = "inquiry"
	InteractionClick   = "click"

	AnonymousCustomer = "Anonymous"
)

type Visit struct {
	ID        oid.ID    `gorm:"primaryKey" json:"id"`
	SiteID    oid.ID    `gorm:"not null;index" json:"site_id"`
	OwnerID   oid.ID    `gorm:"not null;index" json:"-"`
	VisitorIP string    `gorm:"type:text" json:"-"`
	UserAgent string    `gorm:"type:text" json:"-"`
	Page      string    `gorm:"type:text;not null" json:"page"`
	Referrer  string    `gorm:"type:text" json:"referrer,omitempty"`
	VisitedAt time.Time `gorm:"not null;index" json:"visited_at"`
}

func (Visit) TableName() string { return "visits" }

type InboundMessage struct {
	ID            oid.ID    `gorm:"primaryKey" json:"id"`
	OwnerID       oid.ID    `gorm:"not null;index" json:"-"`
	SiteID        oid.ID    `gorm:"not null" json:"site_id"`
	CustomerName  string    `gorm:"type:text;not null" json:"customer_name"`
	CustomerEmail string    `gorm:"type:text;not null" json:"customer_email"`
	CustomerPhone string    `gorm:"type:text" json:"customer_phone,omitempty"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	MessageType   string    `gorm:"type:text;not null" json:"message_type"`
	Status        string    `gorm:"type:text;not null" json:"status"`
	IsRead        bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

func (InboundMessage) TableName() string { return "inbound_messages" }

// SubscribedCustomer is unique per owner and email.
type SubscribedCustomer struct {
	ID                 oid.ID    `gorm:"primaryKey" json:"id"`
	OwnerID            oid.ID    `gorm:"not null;uniqueIndex:ux_subscribed_customers_owner_email,priority:1" json:"-"`
	SiteID             oid.ID    `gorm:"not null" json:"site_id"`
	Name               string    `gorm:"type:text" json:"name,omitempty"`
	Email              string    `gorm:"type:text;not null;uniqueIndex:ux_subscribed_customers_owner_email,priority:2" json:"email"`
	Phone              string    `gorm:"type:text" json:"phone,omitempty"`
	RegistrationSource string    `gorm:"type:text;not null" json:"registration_source"`
	IsSubscribed       bool      `gorm:"not null" json:"is_subscribed"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
	LastInteraction    time.Time `gorm:"not null" json:"last_interaction"`
}

func (SubscribedCustomer) TableName() string { return "subscribed_customers" }

type Feedback struct {
	ID            oid.ID    `gorm:"primaryKey" json:"id"`
	OwnerID       oid.ID    `gorm:"not null;index" json:"-"`
	SiteID        oid.ID    `gorm:"not null" json:"-"`
	CustomerName  string    `gorm:"type:text;not null" json:"customer_name"`
	CustomerEmail string    `gorm:"type:text" json:"-"`
	Rating        int       `gorm:"not null" json:"rating"`
	Body          string    `gorm:"column:body;type:text" json:"feedback"`
	CreatedAt     time.Time `gorm:"not null;index" json:"created_at"`
}

func (Feedback) TableName() string { return "feedback" }

type ProductInteraction struct {
	ID              oid.ID    `gorm:"primaryKey"`
	OwnerID         oid.ID    `gorm:"not null;index"`
	SiteID          oid.ID    `gorm:"not null"`
	ProductID       *oid.ID   `gorm:"index"`
	InteractionType string    `gorm:"type:text;not null"`
	VisitorIP       string    `gorm:"type:text"`
	UserAgent       string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"not null"`
}

func (ProductInteraction) TableName() string { return "product_interactions" }

// Product is maintained elsewhere and only read here.
type Product struct {
	ID          oid.ID    `gorm:"primaryKey" json:"id"`
	OwnerID     oid.ID    `gorm:"not null;index" json:"-"`
	Name        string    `gorm:"type:text;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	PriceCents  int64     `gorm:"not null;default:0" json:"price_cents"`
	Currency    string    `gorm:"type:text" json:"currency,omitempty"`
	ImageURL    string    `gorm:"type:text" json:"image_url,omitempty"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (Product) TableName() string { return "products" }
