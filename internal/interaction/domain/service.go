package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/breakeven/pkg/db/pagination"
	"github.com/smallbiznis/breakeven/pkg/oid"
)

// Service accepts callbacks from deployed sites. The owner is always derived
// from the site id; nothing the visitor sends can choose it.
type Service interface {
	ResolveSite(ctx context.Context, siteID oid.ID) (oid.ID, error)
	RecordVisit(ctx context.Context, siteID oid.ID, req VisitRequest) error
	SubmitContact(ctx context.Context, siteID oid.ID, req ContactRequest) (*ContactResult, error)
	Subscribe(ctx context.Context, siteID oid.ID, req NewsletterRequest) (*SubscribedCustomer, error)
	CustomerLogin(ctx context.Context, siteID oid.ID, req LoginRequest) (*LoginResult, error)
	SubmitFeedback(ctx context.Context, siteID oid.ID, req FeedbackRequest) (*Feedback, error)
	TrackInteraction(ctx context.Context, siteID oid.ID, req InteractionRequest) error
	ListProducts(ctx context.Context, siteID oid.ID) ([]Product, error)
	RecentFeedback(ctx context.Context, siteID oid.ID, limit int) ([]Feedback, error)

	// Analytics summarizes visits for the authenticated owner.
	Analytics(ctx context.Context) (*VisitStats, error)

	// Owner inbox, newest first.
	ListMessages(ctx context.Context, page pagination.Pagination) (*MessagePage, error)
	MarkMessageRead(ctx context.Context, messageID oid.ID) error
	UnreadCount(ctx context.Context) (int64, error)
	ListCustomers(ctx context.Context, req CustomerQuery) (*CustomerPage, error)
}

// Visitor is filled in by the transport from the request itself.
type Visitor struct {
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

type VisitRequest struct {
	Visitor
	Page     string `json:"page"`
	Referrer string `json:"referrer"`
}

type ContactRequest struct {
	Visitor
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type ContactResult struct {
	MessageID     oid.ID `json:"message_id"`
	NewSubscriber bool   `json:"new_subscriber"`
}

type NewsletterRequest struct {
	Visitor
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type LoginRequest struct {
	Email string `json:"email"`
}

type LoginResult struct {
	Registered bool   `json:"registered"`
	Name       string `json:"name,omitempty"`
}

type FeedbackRequest struct {
	Visitor
	Rating   *int   `json:"rating"`
	Feedback string `json:"feedback"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

type InteractionRequest struct {
	Visitor
	Type      string `json:"type"`
	ProductID string `json:"product_id"`
}

type MessagePage struct {
	Items    []InboundMessage    `json:"items"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

type CustomerQuery struct {
	pagination.Pagination
	Search string `form:"search"`
}

type CustomerPage struct {
	Items    []SubscribedCustomer `json:"items"`
	PageInfo pagination.PageInfo  `json:"page_info"`
}

var (
	ErrSiteNotFound           = errors.New("site_not_found")
	ErrInvalidName            = errors.New("invalid_name")
	ErrInvalidEmail           = errors.New("invalid_email")
	ErrInvalidMessage         = errors.New("invalid_message")
	ErrInvalidFeedback        = errors.New("invalid_feedback")
	ErrInvalidInteractionType = errors.New("invalid_interaction_type")
	ErrInvalidProduct         = errors.New("invalid_product_id")
	ErrInvalidOwner           = errors.New("invalid_owner")
	ErrMessageNotFound        = errors.New("message_not_found")
)
