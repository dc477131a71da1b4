package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
	"time"

	"github.com/smallbiznis/breakeven/internal/cache"
	"github.com/smallbiznis/breakeven/internal/clock"
	"github.com/smallbiznis/breakeven/internal/events"
	"github.com/smallbiznis/breakeven/internal/interaction/domain"
	"github.com/smallbiznis/breakeven/internal/interaction/liveevents"
	"github.com/smallbiznis/breakeven/internal/observability/metrics"
	ownerdomain "github.com/smallbiznis/breakeven/internal/owner/domain"
	"github.com/smallbiznis/breakeven/internal/ownercontext"
	"github.com/smallbiznis/breakeven/internal/providers/email"
	websitedomain "github.com/smallbiznis/breakeven/internal/website/domain"
	"github.com/smallbiznis/breakeven/pkg/db/pagination"
	"github.com/smallbiznis/breakeven/pkg/oid"
	"github.com/smallbiznis/breakeven/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultRating       = 5
	defaultFeedbackPage = 5
	maxFeedbackPage     = 20
	maxTextLen          = 2000
	maxFieldLen         = 255
	notifyTimeout       = 15 * time.Second
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    domain.Repository
	Sites   websitedomain.Repository
	Cache   cache.SiteResolverCache
	Owners  ownerdomain.Service
	Email   email.Provider   `optional:"true"`
	Events  events.Sink      `optional:"true"`
	Hub     *liveevents.Hub  `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    domain.Repository
	sites   websitedomain.Repository
	cache   cache.SiteResolverCache
	owners  ownerdomain.Service
	email   email.Provider
	events  events.Sink
	hub     *liveevents.Hub
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	mail := p.Email
	if mail == nil {
		mail = &email.NoOpProvider{}
	}
	sink := p.Events
	if sink == nil {
		sink = events.NoOpSink{}
	}
	resolver := p.Cache
	if resolver == nil {
		resolver = cache.NewSiteResolverCache()
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("interaction.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		sites:   p.Sites,
		cache:   resolver,
		owners:  p.Owners,
		email:   mail,
		events:  sink,
		hub:     p.Hub,
		metrics: p.Metrics,
	}
}

// ResolveSite returns the owner of an active site.
func (s *Service) ResolveSite(ctx context.Context, siteID oid.ID) (oid.ID, error) {
	if siteID.IsZero() {
		return oid.Nil, domain.ErrSiteNotFound
	}
	if cached, ok := s.cache.Get(siteID); ok {
		if !cached.Active {
			return oid.Nil, domain.ErrSiteNotFound
		}
		return cached.OwnerID, nil
	}

	site, err := s.sites.FindByID(ctx, s.db, siteID)
	if err != nil {
		return oid.Nil, err
	}
	if site == nil {
		return oid.Nil, domain.ErrSiteNotFound
	}
	s.cache.Set(cache.SiteOwner{SiteID: site.ID, OwnerID: site.OwnerID, Active: site.IsActive})
	if !site.IsActive {
		return oid.Nil, domain.ErrSiteNotFound
	}
	return site.OwnerID, nil
}

func (s *Service) RecordVisit(ctx context.Context, siteID oid.ID, req domain.VisitRequest) error {
	ownerID, err := s.ResolveSite(ctx, siteID)
	if err != nil {
		return err
	}
	page := clip(req.Page, maxFieldLen)
	if page == "" {
		page = "/"
	}
	visit := &domain.Visit{
		ID:        oid.New(),
		SiteID:    siteID,
		OwnerID:   ownerID,
		VisitorIP: req.IP,
		UserAgent: clip(req.UserAgent, 512),
		Page:      page,
		Referrer:  clip(req.Referrer, 512),
		VisitedAt: s.clock.Now(),
	}
	if err := s.repo.InsertVisit(ctx, s.db, visit); err != nil {
		return err
	}
	s.publish(ctx, ownerID, siteID, events.TypeVisit, "Someone visited "+page, map[string]any{
		"page":     page,
		"referrer": visit.Referrer,
	})
	return nil
}

func (s *Service) SubmitContact(ctx context.Context, siteID oid.ID, req domain.ContactRequest) (*domain.ContactResult, error) {
	name := clip(req.Name, maxFieldLen)
	addr := normalizeEmail(req.Email)
	message := clip(req.Message, maxTextLen)
	phone := clip(req.Phone, 64)

	var errs []error
	if name == "" {
		errs = append(errs, domain.ErrInvalidName)
	}
	if !validEmail(addr) {
		errs = append(errs, domain.ErrInvalidEmail)
	}
	if message == "" {
		errs = append(errs, domain.ErrInvalidMessage)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	ownerID, err := s.ResolveSite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	msg := &domain.InboundMessage{
		ID:            oid.New(),
		OwnerID:       ownerID,
		SiteID:        siteID,
		CustomerName:  name,
		CustomerEmail: addr,
		CustomerPhone: phone,
		Content:       message,
		MessageType:   domain.MessageTypeContact,
		Status:        domain.MessageStatusNew,
		CreatedAt:     now,
	}
	var inserted int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertMessage(ctx, tx, msg); err != nil {
			return err
		}
		n, err := s.repo.UpsertCustomer(ctx, tx, &domain.SubscribedCustomer{
			ID:                 oid.New(),
			OwnerID:            ownerID,
			SiteID:             siteID,
			Name:               name,
			Email:              addr,
			Phone:              phone,
			RegistrationSource: domain.SourceContactForm,
			IsSubscribed:       true,
			CreatedAt:          now,
			LastInteraction:    now,
		}, nil)
		if err != nil {
			return err
		}
		inserted = n
		if n == 0 {
			_, err = s.repo.TouchCustomer(ctx, tx, ownerID, addr, now)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, ownerID, siteID, events.TypeContact, fmt.Sprintf("New message from %s", name), map[string]any{
		"message_id": msg.ID.String(),
		"name":       name,
	})
	s.notifyOwner(ctx, ownerID, msg)

	return &domain.ContactResult{MessageID: msg.ID, NewSubscriber: inserted > 0}, nil
}

func (s *Service) Subscribe(ctx context.Context, siteID oid.ID, req domain.NewsletterRequest) (*domain.SubscribedCustomer, error) {
	addr := normalizeEmail(req.Email)
	if !validEmail(addr) {
		return nil, domain.ErrInvalidEmail
	}
	ownerID, err := s.ResolveSite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	_, err = s.repo.UpsertCustomer(ctx, s.db, &domain.SubscribedCustomer{
		ID:                 oid.New(),
		OwnerID:            ownerID,
		SiteID:             siteID,
		Name:               clip(req.Name, maxFieldLen),
		Email:              addr,
		Phone:              clip(req.Phone, 64),
		RegistrationSource: domain.SourceNewsletter,
		IsSubscribed:       true,
		CreatedAt:          now,
		LastInteraction:    now,
	}, map[string]any{
		"is_subscribed":    true,
		"last_interaction": now,
	})
	if err != nil {
		return nil, err
	}
	customer, err := s.repo.FindCustomer(ctx, s.db, ownerID, addr)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, fmt.Errorf("customer %s missing after upsert", addr)
	}

	s.publish(ctx, ownerID, siteID, events.TypeNewsletter, "New newsletter subscriber", map[string]any{
		"customer_id": customer.ID.String(),
	})
	return customer, nil
}

func (s *Service) CustomerLogin(ctx context.Context, siteID oid.ID, req domain.LoginRequest) (*domain.LoginResult, error) {
	addr := normalizeEmail(req.Email)
	if !validEmail(addr) {
		return nil, domain.ErrInvalidEmail
	}
	ownerID, err := s.ResolveSite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	customer, err := s.repo.FindCustomer(ctx, s.db, ownerID, addr)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return &domain.LoginResult{Registered: false}, nil
	}
	if _, err := s.repo.TouchCustomer(ctx, s.db, ownerID, addr, s.clock.Now()); err != nil {
		return nil, err
	}
	return &domain.LoginResult{Registered: true, Name: customer.Name}, nil
}

func (s *Service) SubmitFeedback(ctx context.Context, siteID oid.ID, req domain.FeedbackRequest) (*domain.Feedback, error) {
	body := clip(req.Feedback, maxTextLen)
	if body == "" {
		return nil, domain.ErrInvalidFeedback
	}
	addr := normalizeEmail(req.Email)
	if addr != "" && !validEmail(addr) {
		return nil, domain.ErrInvalidEmail
	}
	ownerID, err := s.ResolveSite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	name := clip(req.Name, maxFieldLen)
	if name == "" {
		name = domain.AnonymousCustomer
	}
	now := s.clock.Now()
	fb := &domain.Feedback{
		ID:            oid.New(),
		OwnerID:       ownerID,
		SiteID:        siteID,
		CustomerName:  name,
		CustomerEmail: addr,
		Rating:        clampRating(req.Rating),
		Body:          body,
		CreatedAt:     now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertFeedback(ctx, tx, fb); err != nil {
			return err
		}
		if addr == "" {
			return nil
		}
		_, err := s.repo.UpsertCustomer(ctx, tx, &domain.SubscribedCustomer{
			ID:                 oid.New(),
			OwnerID:            ownerID,
			SiteID:             siteID,
			Name:               clip(req.Name, maxFieldLen),
			Email:              addr,
			RegistrationSource: domain.SourceFeedback,
			IsSubscribed:       false,
			CreatedAt:          now,
			LastInteraction:    now,
		}, map[string]any{"last_interaction": now})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, ownerID, siteID, events.TypeFeedback, fmt.Sprintf("%s left %d star feedback", name, fb.Rating), map[string]any{
		"feedback_id": fb.ID.String(),
		"rating":      fb.Rating,
	})
	return fb, nil
}

func (s *Service) TrackInteraction(ctx context.Context, siteID oid.ID, req domain.InteractionRequest) error {
	kind := strings.ToLower(strings.TrimSpace(req.Type))
	switch kind {
	case "":
		kind = domain.InteractionView
	case domain.InteractionView, domain.InteractionInquiry, domain.InteractionClick:
	default:
		return domain.ErrInvalidInteractionType
	}

	var productID *oid.ID
	if raw := strings.TrimSpace(req.ProductID); raw != "" {
		id, err := oid.Parse(raw)
		if err != nil {
			return domain.ErrInvalidProduct
		}
		productID = &id
	}

	ownerID, err := s.ResolveSite(ctx, siteID)
	if err != nil {
		return err
	}
	if productID != nil {
		product, err := s.repo.FindProduct(ctx, s.db, ownerID, *productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrInvalidProduct
		}
	}

	if err := s.repo.InsertProductInteraction(ctx, s.db, &domain.ProductInteraction{
		ID:              oid.New(),
		OwnerID:         ownerID,
		SiteID:          siteID,
		ProductID:       productID,
		InteractionType: kind,
		VisitorIP:       req.IP,
		UserAgent:       clip(req.UserAgent, 512),
		CreatedAt:       s.clock.Now(),
	}); err != nil {
		return err
	}

	data := map[string]any{"type": kind}
	if productID != nil {
		data["product_id"] = productID.String()
	}
	s.publish(ctx, ownerID, siteID, events.TypeInteraction, "Product "+kind, data)
	return nil
}

func (s *Service) ListProducts(ctx context.Context, siteID oid.ID) ([]domain.Product, error) {
	ownerID, err := s.ResolveSite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListActiveProducts(ctx, s.db, ownerID)
}

func (s *Service) RecentFeedback(ctx context.Context, siteID oid.ID, limit int) ([]domain.Feedback, error) {
	ownerID, err := s.ResolveSite(ctx, siteID)
	if err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = defaultFeedbackPage
	case limit > maxFeedbackPage:
		limit = maxFeedbackPage
	}
	return s.repo.ListRecentFeedback(ctx, s.db, ownerID, limit)
}

func (s *Service) Analytics(ctx context.Context) (*domain.VisitStats, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	stats, err := s.repo.VisitStats(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *Service) ListMessages(ctx context.Context, page pagination.Pagination) (*domain.MessagePage, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	items, err := s.repo.ListMessages(ctx, s.db, ownerID, page)
	if err != nil {
		return nil, err
	}
	items, info := pagination.Trim(items, page, func(m domain.InboundMessage) pagination.Cursor {
		return pagination.Cursor{ID: m.ID.Bytes(), CreatedAt: m.CreatedAt}
	})
	if items == nil {
		items = []domain.InboundMessage{}
	}
	return &domain.MessagePage{Items: items, PageInfo: info}, nil
}

func (s *Service) MarkMessageRead(ctx context.Context, messageID oid.ID) error {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidOwner
	}
	n, err := s.repo.MarkMessageRead(ctx, s.db, ownerID, messageID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (s *Service) UnreadCount(ctx context.Context) (int64, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return 0, domain.ErrInvalidOwner
	}
	return s.repo.CountUnread(ctx, s.db, ownerID)
}

func (s *Service) ListCustomers(ctx context.Context, req domain.CustomerQuery) (*domain.CustomerPage, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	items, err := s.repo.ListCustomers(ctx, s.db, ownerID, clip(req.Search, maxFieldLen), req.Pagination)
	if err != nil {
		return nil, err
	}
	items, info := pagination.Trim(items, req.Pagination, func(c domain.SubscribedCustomer) pagination.Cursor {
		return pagination.Cursor{ID: c.ID.Bytes(), CreatedAt: c.CreatedAt}
	})
	if items == nil {
		items = []domain.SubscribedCustomer{}
	}
	return &domain.CustomerPage{Items: items, PageInfo: info}, nil
}

// publish fans an accepted interaction out to the live feed and the event
// sink. Failures are logged only.
func (s *Service) publish(ctx context.Context, ownerID, siteID oid.ID, kind, summary string, data map[string]any) {
	ctx, correlationID := correlation.EnsureCorrelationID(ctx)
	now := s.clock.Now()

	s.metrics.RecordInteraction(ctx, kind)
	s.hub.Publish(ownerID.String(), liveevents.Event{
		ID:            oid.New().String(),
		Kind:          kind,
		SiteID:        siteID.String(),
		Summary:       summary,
		CorrelationID: correlationID,
		OccurredAt:    now.Format(time.RFC3339),
	})
	if err := s.events.Emit(ctx, events.Event{
		Type:          kind,
		OwnerID:       ownerID.String(),
		SiteID:        siteID.String(),
		CorrelationID: correlationID,
		OccurredAt:    now,
		Data:          data,
	}); err != nil {
		s.log.Warn("emit interaction event failed",
			zap.String("owner_id", ownerID.String()),
			zap.String("type", kind),
			zap.Error(err),
		)
	}
}

func (s *Service) notifyOwner(ctx context.Context, ownerID oid.ID, msg *domain.InboundMessage) {
	if s.owners == nil {
		return
	}
	owner, err := s.owners.Get(ctx, ownerID)
	if err != nil || owner.Email == "" {
		return
	}
	siteName := owner.BusinessName
	if site, err := s.sites.FindByID(ctx, s.db, msg.SiteID); err == nil && site != nil {
		siteName = site.Profile.WebsiteName
	}
	data := map[string]any{
		"site_name":      siteName,
		"customer_name":  msg.CustomerName,
		"customer_email": msg.CustomerEmail,
		"customer_phone": msg.CustomerPhone,
		"message":        msg.Content,
	}
	go func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()
		if err := s.email.SendTemplate(ctx, []string{owner.Email}, email.TemplateNewMessage, data); err != nil {
			s.log.Warn("message notification failed", zap.String("owner_id", ownerID.String()), zap.Error(err))
		}
	}(context.WithoutCancel(ctx))
}

func clampRating(r *int) int {
	if r == nil {
		return defaultRating
	}
	switch {
	case *r < 1:
		return 1
	case *r > 5:
		return 5
	}
	return *r
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validEmail(s string) bool {
	at := strings.LastIndex(s, "@")
	return at > 0 && at < len(s)-1 && len(s) <= maxFieldLen && !strings.ContainsAny(s, " \t\r\n")
}

// clip trims s and cuts it to at most n bytes without splitting a rune.
func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
