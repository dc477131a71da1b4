package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
	"time"

	"github.com/smallbiznis/breakeven/internal/bundle"
	"github.com/smallbiznis/breakeven/internal/clock"
	"github.com/smallbiznis/breakeven/internal/config"
	contentdomain "github.com/smallbiznis/breakeven/internal/content/domain"
	"github.com/smallbiznis/breakeven/internal/events"
	"github.com/smallbiznis/breakeven/internal/interaction/liveevents"
	"github.com/smallbiznis/breakeven/internal/locker"
	"github.com/smallbiznis/breakeven/internal/observability/metrics"
	ownerdomain "github.com/smallbiznis/breakeven/internal/owner/domain"
	"github.com/smallbiznis/breakeven/internal/ownercontext"
	"github.com/smallbiznis/breakeven/internal/providers/archive"
	"github.com/smallbiznis/breakeven/internal/providers/email"
	"github.com/smallbiznis/breakeven/internal/providers/hosting"
	qrdomain "github.com/smallbiznis/breakeven/internal/qrcode/domain"
	"github.com/smallbiznis/breakeven/internal/theme"
	"github.com/smallbiznis/breakeven/internal/website/domain"
	"github.com/smallbiznis/breakeven/pkg/oid"
	"github.com/smallbiznis/breakeven/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	maxNameAttempts    = 3
	maxWebsiteNameLen  = 100
	defaultPublishTTL  = 3 * time.Minute
	notifyTimeout      = 15 * time.Second
	defaultDeployLimit = 20
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	Config      config.Config
	Repo        domain.Repository
	Synthesizer contentdomain.Synthesizer
	Assembler   *bundle.Assembler
	Hosting     hosting.Provider
	Archive     archive.Provider
	Locker      locker.Locker
	QR          qrdomain.Binder
	Owners      ownerdomain.Service
	Email       email.Provider
	Events      events.Sink
	Hub         *liveevents.Hub           `optional:"true"`
	Metrics     *metrics.Metrics          `optional:"true"`
	Publisher   *metrics.PublisherMetrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	repo      domain.Repository
	synth     contentdomain.Synthesizer
	assembler *bundle.Assembler
	hosting   hosting.Provider
	archive   archive.Provider
	locker    locker.Locker
	qr        qrdomain.Binder
	owners    ownerdomain.Service
	email     email.Provider
	events    events.Sink
	hub       *liveevents.Hub
	metrics   *metrics.Metrics
	publisher *metrics.PublisherMetrics

	backendURL string
	lockTTL    time.Duration
	suffix     func(n int) string
}

func New(p Params) domain.Service {
	ttl := p.Config.PublishLockTTL
	if ttl <= 0 {
		ttl = defaultPublishTTL
	}
	arch := p.Archive
	if arch == nil {
		arch = archive.NoOpProvider{}
	}
	sink := p.Events
	if sink == nil {
		sink = events.NoOpSink{}
	}
	mail := p.Email
	if mail == nil {
		mail = &email.NoOpProvider{}
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("website.service"),
		clock:      p.Clock,
		repo:       p.Repo,
		synth:      p.Synthesizer,
		assembler:  p.Assembler,
		hosting:    p.Hosting,
		archive:    arch,
		locker:     p.Locker,
		qr:         p.QR,
		owners:     p.Owners,
		email:      mail,
		events:     sink,
		hub:        p.Hub,
		metrics:    p.Metrics,
		publisher:  p.Publisher,
		backendURL: p.Config.WebsiteBaseURL,
		lockTTL:    ttl,
		suffix:     domain.RandomSuffix,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.PublishResult, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}

	profile, err := normalizeProfile(domain.BusinessProfile{
		WebsiteName:  req.WebsiteName,
		BusinessType: req.BusinessType,
		Area:         req.Area,
		Description:  req.Description,
		ColorTheme:   req.ColorTheme,
		ContactInfo:  req.ContactInfo,
		LogoURL:      req.LogoURL,
		CustomCSS:    req.CustomCSS,
		CustomDomain: req.CustomDomain,
	})
	if err != nil {
		return nil, err
	}

	if err := s.ensureNoSite(ctx, ownerID); err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	defer release()

	// A concurrent publish may have finished between the check and the lock.
	if err := s.ensureNoSite(ctx, ownerID); err != nil {
		return nil, err
	}

	doc := s.synth.Generate(ctx, contentInput(profile))

	providerSite, err := s.createProviderSite(ctx, profile)
	if err != nil {
		return nil, err
	}

	siteID := oid.New()
	outcome, err := s.deploy(ctx, deployInput{
		ownerID:        ownerID,
		siteID:         siteID,
		providerSiteID: providerSite.ID,
		siteName:       providerSite.Name,
		profile:        profile,
		document:       doc,
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	content := &domain.ContentRecord{
		ID:               oid.New(),
		OwnerID:          ownerID,
		Document:         datatypes.NewJSONType(doc),
		GenerationMethod: string(doc.GenerationMethod),
		CreatedAt:        now,
	}
	site := &domain.PublishedSite{
		ID:             siteID,
		OwnerID:        ownerID,
		SiteName:       providerSite.Name,
		ProviderSiteID: providerSite.ID,
		URL:            providerSite.CanonicalURL(),
		AdminURL:       providerSite.AdminURL,
		DeployID:       outcome.deploy.ID,
		DeployState:    deployState(outcome.deploy),
		ContentID:      content.ID,
		Status:         domain.StatusDeployed,
		IsActive:       true,
		Profile:        profile,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastDeployedAt: &now,
	}

	start := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertContent(ctx, tx, content); err != nil {
			return err
		}
		if err := s.repo.InsertSite(ctx, tx, site); err != nil {
			return err
		}
		return s.repo.InsertAttempt(ctx, tx, outcome.attempt)
	})
	s.publisher.ObserveStage(metrics.StagePersist, time.Since(start), err)
	if err != nil {
		s.log.Error("persist published site failed",
			zap.String("owner_id", ownerID.String()),
			zap.String("provider_site_id", providerSite.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.bindQR(ctx, ownerID, site.URL)
	s.announce(ctx, site)

	s.log.Info("site published",
		zap.String("owner_id", ownerID.String()),
		zap.String("site_id", site.ID.String()),
		zap.String("site_name", site.SiteName),
		zap.String("generation_method", string(doc.GenerationMethod)),
	)
	return publishResult(site, doc), nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.PublishResult, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}

	site, err := s.repo.FindByOwner(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, domain.ErrNotFound
	}

	profile, err := normalizeProfile(applyPatch(site.Profile, req))
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.repo.UpdateSite(ctx, s.db, ownerID, site.ID, map[string]any{
		"status":     domain.StatusRedeploying,
		"updated_at": s.clock.Now(),
	}); err != nil {
		return nil, err
	}

	regenerate := req.BusinessType != nil || req.Description != nil
	var doc contentdomain.Document
	if regenerate {
		doc = s.synth.Generate(ctx, contentInput(profile))
	} else {
		doc, err = s.storedDocument(ctx, ownerID, site.ContentID)
		if err != nil {
			s.restoreStatus(ctx, site)
			return nil, err
		}
	}

	outcome, err := s.deploy(ctx, deployInput{
		ownerID:        ownerID,
		siteID:         site.ID,
		providerSiteID: site.ProviderSiteID,
		siteName:       site.SiteName,
		profile:        profile,
		document:       doc,
	})
	if err != nil {
		s.restoreStatus(ctx, site)
		return nil, err
	}

	now := s.clock.Now()
	contentID := site.ContentID
	fields := profileFields(profile)
	fields["deploy_id"] = outcome.deploy.ID
	fields["deploy_state"] = deployState(outcome.deploy)
	fields["status"] = domain.StatusDeployed
	fields["updated_at"] = now
	fields["last_deployed_at"] = now

	start := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if regenerate {
			record := &domain.ContentRecord{
				ID:               oid.New(),
				OwnerID:          ownerID,
				Document:         datatypes.NewJSONType(doc),
				GenerationMethod: string(doc.GenerationMethod),
				CreatedAt:        now,
			}
			if err := s.repo.InsertContent(ctx, tx, record); err != nil {
				return err
			}
			contentID = record.ID
			fields["content_id"] = record.ID
		}
		if err := s.repo.UpdateSite(ctx, tx, ownerID, site.ID, fields); err != nil {
			return err
		}
		return s.repo.InsertAttempt(ctx, tx, outcome.attempt)
	})
	s.publisher.ObserveStage(metrics.StagePersist, time.Since(start), err)
	if err != nil {
		s.restoreStatus(ctx, site)
		return nil, err
	}

	site.Profile = profile
	site.ContentID = contentID
	site.DeployID = outcome.deploy.ID
	site.DeployState = deployState(outcome.deploy)
	site.Status = domain.StatusDeployed
	site.UpdatedAt = now
	site.LastDeployedAt = &now

	s.bindQR(ctx, ownerID, site.URL)
	s.log.Info("site redeployed",
		zap.String("owner_id", ownerID.String()),
		zap.String("site_id", site.ID.String()),
		zap.Bool("regenerated", regenerate),
	)
	return publishResult(site, doc), nil
}

func (s *Service) Rename(ctx context.Context, req domain.RenameRequest) (*domain.SiteView, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	if strings.TrimSpace(req.SiteName) == "" {
		return nil, domain.ErrInvalidSiteName
	}
	name := domain.SanitizeName(req.SiteName)

	site, err := s.repo.FindByOwner(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, domain.ErrNotFound
	}
	if name == site.SiteName {
		return s.view(ctx, site)
	}

	release, err := s.acquire(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	defer release()

	renamed, err := s.hosting.Rename(ctx, site.ProviderSiteID, name)
	if err != nil {
		s.log.Warn("rename rejected by hosting provider",
			zap.String("site_id", site.ID.String()),
			zap.String("site_name", name),
			zap.Error(err),
		)
		return nil, upstreamError(err)
	}
	if refreshed, err := s.hosting.GetSite(ctx, site.ProviderSiteID); err == nil {
		renamed = refreshed
	} else {
		s.log.Warn("refresh after rename failed", zap.String("site_id", site.ID.String()), zap.Error(err))
	}

	newName := renamed.Name
	if newName == "" {
		newName = name
	}
	newURL := renamed.CanonicalURL()
	if newURL == "" {
		newURL = site.URL
	}
	now := s.clock.Now()
	fields := map[string]any{
		"site_name":  newName,
		"url":        newURL,
		"updated_at": now,
	}
	if renamed.AdminURL != "" {
		fields["admin_url"] = renamed.AdminURL
		site.AdminURL = renamed.AdminURL
	}
	if err := s.repo.UpdateSite(ctx, s.db, ownerID, site.ID, fields); err != nil {
		return nil, err
	}
	site.SiteName = newName
	site.URL = newURL
	site.UpdatedAt = now

	s.bindQR(ctx, ownerID, site.URL)
	s.log.Info("site renamed",
		zap.String("site_id", site.ID.String()),
		zap.String("site_name", newName),
	)
	return s.view(ctx, site)
}

func (s *Service) Get(ctx context.Context) (*domain.SiteView, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	site, err := s.repo.FindByOwner(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, domain.ErrNotFound
	}
	return s.view(ctx, site)
}

func (s *Service) ListDeploys(ctx context.Context, limit int) ([]domain.DeployView, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	if limit <= 0 {
		limit = defaultDeployLimit
	}
	attempts, err := s.repo.ListAttempts(ctx, s.db, ownerID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DeployView, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, domain.DeployView{
			ID:               a.ID,
			State:            a.State,
			ErrorClass:       a.ErrorClass,
			ErrorMessage:     a.ErrorMessage,
			ProviderDeployID: a.ProviderDeployID,
			ArchiveKey:       a.ArchiveKey,
			StartedAt:        a.StartedAt,
			FinishedAt:       a.FinishedAt,
		})
	}
	return out, nil
}

func (s *Service) RenderPage(ctx context.Context, siteID oid.ID) ([]byte, *domain.PublishedSite, error) {
	if siteID.IsZero() {
		return nil, nil, domain.ErrNotFound
	}
	site, err := s.repo.FindByID(ctx, s.db, siteID)
	if err != nil {
		return nil, nil, err
	}
	if site == nil || !site.IsActive {
		return nil, nil, domain.ErrNotFound
	}
	doc, err := s.storedDocument(ctx, site.OwnerID, site.ContentID)
	if err != nil {
		return nil, nil, err
	}
	page, err := s.assembler.Page(s.bundleInput(site.OwnerID, site.ID, site.SiteName, site.Profile, doc))
	if err != nil {
		return nil, nil, err
	}
	return page, site, nil
}

func (s *Service) ensureNoSite(ctx context.Context, ownerID oid.ID) error {
	existing, err := s.repo.FindByOwner(ctx, s.db, ownerID)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.ErrSiteExists
	}
	return nil
}

func (s *Service) acquire(ctx context.Context, ownerID oid.ID) (func(), error) {
	key := locker.PublishKey(ownerID.String())
	token, ok, err := s.locker.TryLock(ctx, key, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrPublishInProgress
	}
	return func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("release publish lock failed", zap.String("owner_id", ownerID.String()), zap.Error(err))
		}
	}, nil
}

// createProviderSite retries only on name collisions, with a longer suffix
// after the first attempt.
func (s *Service) createProviderSite(ctx context.Context, profile domain.BusinessProfile) (hosting.Site, error) {
	base := domain.BaseName(profile.WebsiteName)
	start := time.Now()
	var lastErr error
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := domain.ComposeName(base, s.clock.Now(), attempt, s.suffix)
		site, err := s.hosting.CreateSite(ctx, name, profile.CustomDomain)
		if err == nil {
			if site.Name == "" {
				site.Name = name
			}
			s.publisher.ObserveStage(metrics.StageCreateSite, time.Since(start), nil)
			return site, nil
		}
		lastErr = err
		if !errors.Is(err, hosting.ErrNameTaken) {
			break
		}
		s.metrics.RecordNameRetry(ctx)
		s.log.Info("site name taken",
			zap.String("site_name", name),
			zap.Int("attempt", attempt+1),
		)
	}
	s.publisher.ObserveStage(metrics.StageCreateSite, time.Since(start), lastErr)
	s.metrics.RecordDeploy(ctx, "failed", errorClass(lastErr))
	return hosting.Site{}, upstreamError(lastErr)
}

type deployInput struct {
	ownerID        oid.ID
	siteID         oid.ID
	providerSiteID string
	siteName       string
	profile        domain.BusinessProfile
	document       contentdomain.Document
}

type deployOutcome struct {
	deploy  hosting.Deploy
	attempt *domain.DeployAttempt
}

// deploy assembles, archives and uploads the bundle. A failed upload is
// recorded as a failed attempt before the error is returned.
func (s *Service) deploy(ctx context.Context, in deployInput) (*deployOutcome, error) {
	startedAt := s.clock.Now()
	attempt := &domain.DeployAttempt{
		ID:             oid.New(),
		SiteID:         in.siteID,
		OwnerID:        in.ownerID,
		ProviderSiteID: in.providerSiteID,
		StartedAt:      startedAt,
	}

	start := time.Now()
	files, err := s.assembler.Assemble(s.bundleInput(in.ownerID, in.siteID, in.siteName, in.profile, in.document))
	var zipped []byte
	if err == nil {
		zipped, err = files.Zip()
	}
	s.publisher.ObserveStage(metrics.StageAssemble, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("assemble bundle: %w", err)
	}

	if s.archive.Enabled() {
		start = time.Now()
		key, err := s.archive.Put(ctx, archive.BundleKey(in.ownerID.String(), in.siteID.String(), startedAt), zipped)
		s.publisher.ObserveStage(metrics.StageArchive, time.Since(start), err)
		if err != nil {
			s.log.Warn("bundle archive failed", zap.String("site_id", in.siteID.String()), zap.Error(err))
		} else {
			attempt.ArchiveKey = key
		}
	}

	start = time.Now()
	dep, err := s.hosting.Deploy(ctx, in.providerSiteID, zipped)
	s.publisher.ObserveStage(metrics.StageDeploy, time.Since(start), err)
	attempt.FinishedAt = s.clock.Now()
	if err != nil {
		class := errorClass(err)
		attempt.State = domain.DeployFailed
		attempt.ErrorClass = class
		attempt.ErrorMessage = truncate(err.Error(), 500)
		if insertErr := s.repo.InsertAttempt(context.WithoutCancel(ctx), s.db, attempt); insertErr != nil {
			s.log.Error("record failed deploy attempt", zap.String("site_id", in.siteID.String()), zap.Error(insertErr))
		}
		s.metrics.RecordDeploy(ctx, "failed", class)
		s.log.Warn("deploy failed",
			zap.String("owner_id", in.ownerID.String()),
			zap.String("provider_site_id", in.providerSiteID),
			zap.String("error_class", class),
			zap.Error(err),
		)
		return nil, upstreamError(err)
	}

	attempt.State = domain.DeployReady
	attempt.ProviderDeployID = dep.ID
	s.metrics.RecordDeploy(ctx, "ready", "")
	return &deployOutcome{deploy: dep, attempt: attempt}, nil
}

func (s *Service) bundleInput(ownerID, siteID oid.ID, siteName string, p domain.BusinessProfile, doc contentdomain.Document) bundle.Input {
	bt, _ := theme.ParseBusinessType(p.BusinessType)
	return bundle.Input{
		Document: doc,
		Profile: bundle.Profile{
			WebsiteName:  p.WebsiteName,
			BusinessType: bt,
			Area:         p.Area,
			Description:  p.Description,
			ColorTheme:   p.ColorTheme,
			Phone:        p.ContactInfo.Phone,
			Email:        p.ContactInfo.Email,
			Address:      p.ContactInfo.Address,
			Hours:        p.ContactInfo.Hours,
			LogoURL:      p.LogoURL,
			CustomCSS:    p.CustomCSS,
		},
		OwnerID:    ownerID,
		SiteID:     siteID,
		SiteName:   siteName,
		BackendURL: s.backendURL,
		Year:       s.clock.Now().Year(),
	}
}

func (s *Service) storedDocument(ctx context.Context, ownerID, contentID oid.ID) (contentdomain.Document, error) {
	record, err := s.repo.FindContent(ctx, s.db, ownerID, contentID)
	if err != nil {
		return contentdomain.Document{}, err
	}
	if record == nil {
		return contentdomain.Document{}, domain.ErrNotFound
	}
	return record.Document.Data(), nil
}

func (s *Service) restoreStatus(ctx context.Context, site *domain.PublishedSite) {
	err := s.repo.UpdateSite(context.WithoutCancel(ctx), s.db, site.OwnerID, site.ID, map[string]any{
		"status":     domain.StatusDeployed,
		"updated_at": s.clock.Now(),
	})
	if err != nil {
		s.log.Error("restore site status failed", zap.String("site_id", site.ID.String()), zap.Error(err))
	}
}

func (s *Service) bindQR(ctx context.Context, ownerID oid.ID, target string) {
	if s.qr == nil {
		return
	}
	if err := s.qr.BindPublished(ctx, ownerID, target); err != nil {
		s.log.Error("bind qr target failed",
			zap.String("owner_id", ownerID.String()),
			zap.String("url", target),
			zap.Error(err),
		)
	}
}

// announce emits the publish event and mails the owner. Neither can fail the
// publish.
func (s *Service) announce(ctx context.Context, site *domain.PublishedSite) {
	ctx, correlationID := correlation.EnsureCorrelationID(ctx)
	now := s.clock.Now()

	if err := s.events.Emit(ctx, events.Event{
		Type:          events.TypePublished,
		OwnerID:       site.OwnerID.String(),
		SiteID:        site.ID.String(),
		CorrelationID: correlationID,
		OccurredAt:    now,
		Data: map[string]any{
			"site_name": site.SiteName,
			"url":       site.URL,
		},
	}); err != nil {
		s.log.Warn("emit publish event failed", zap.String("site_id", site.ID.String()), zap.Error(err))
	}

	if s.hub != nil {
		s.hub.Publish(site.OwnerID.String(), liveevents.Event{
			ID:            oid.New().String(),
			Kind:          events.TypePublished,
			SiteID:        site.ID.String(),
			Summary:       "Website published at " + site.URL,
			CorrelationID: correlationID,
			OccurredAt:    now.Format(time.RFC3339),
		})
	}

	if s.owners == nil {
		return
	}
	owner, err := s.owners.Get(ctx, site.OwnerID)
	if err != nil || owner.Email == "" {
		return
	}
	data := map[string]any{
		"site_name": site.Profile.WebsiteName,
		"url":       site.URL,
	}
	go func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()
		if err := s.email.SendTemplate(ctx, []string{owner.Email}, email.TemplateSitePublished, data); err != nil {
			s.log.Warn("publish notification failed", zap.String("owner_id", site.OwnerID.String()), zap.Error(err))
		}
	}(context.WithoutCancel(ctx))
}

func (s *Service) view(ctx context.Context, site *domain.PublishedSite) (*domain.SiteView, error) {
	doc, err := s.storedDocument(ctx, site.OwnerID, site.ContentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return &domain.SiteView{
		ID:             site.ID,
		SiteName:       site.SiteName,
		URL:            site.URL,
		AdminURL:       site.AdminURL,
		DeployID:       site.DeployID,
		DeployState:    site.DeployState,
		Status:         site.Status,
		IsActive:       site.IsActive,
		Profile:        site.Profile,
		Content:        doc,
		CreatedAt:      site.CreatedAt,
		UpdatedAt:      site.UpdatedAt,
		LastDeployedAt: site.LastDeployedAt,
	}, nil
}

func publishResult(site *domain.PublishedSite, doc contentdomain.Document) *domain.PublishResult {
	return &domain.PublishResult{
		SiteID:      site.ID,
		URL:         site.URL,
		SiteName:    site.SiteName,
		DeployID:    site.DeployID,
		DeployState: site.DeployState,
		Content:     doc.Summary(),
	}
}

func contentInput(p domain.BusinessProfile) contentdomain.Input {
	bt, _ := theme.ParseBusinessType(p.BusinessType)
	return contentdomain.Input{
		Name:         p.WebsiteName,
		BusinessType: bt,
		Area:         p.Area,
		Description:  p.Description,
		ColorTheme:   p.ColorTheme,
	}
}

func deployState(d hosting.Deploy) domain.DeployState {
	if d.Ready() {
		return domain.DeployReady
	}
	return domain.DeployPending
}

func applyPatch(p domain.BusinessProfile, req domain.UpdateRequest) domain.BusinessProfile {
	if req.WebsiteName != nil {
		p.WebsiteName = *req.WebsiteName
	}
	if req.BusinessType != nil {
		p.BusinessType = *req.BusinessType
	}
	if req.ColorTheme != nil {
		p.ColorTheme = *req.ColorTheme
	}
	if req.ContactInfo != nil {
		p.ContactInfo = *req.ContactInfo
	}
	if req.Area != nil {
		p.Area = *req.Area
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.LogoURL != nil {
		p.LogoURL = *req.LogoURL
	}
	if req.CustomCSS != nil {
		p.CustomCSS = *req.CustomCSS
	}
	if req.CustomDomain != nil {
		p.CustomDomain = *req.CustomDomain
	}
	return p
}

// normalizeProfile trims the profile and reports every invalid field at once.
func normalizeProfile(p domain.BusinessProfile) (domain.BusinessProfile, error) {
	p.WebsiteName = strings.TrimSpace(p.WebsiteName)
	p.BusinessType = strings.ToLower(strings.TrimSpace(p.BusinessType))
	p.ColorTheme = strings.ToLower(strings.TrimSpace(p.ColorTheme))
	p.Area = strings.TrimSpace(p.Area)
	p.Description = strings.TrimSpace(p.Description)
	p.LogoURL = strings.TrimSpace(p.LogoURL)
	p.CustomDomain = strings.ToLower(strings.TrimSpace(p.CustomDomain))
	p.ContactInfo = domain.ContactInfo{
		Phone:   strings.TrimSpace(p.ContactInfo.Phone),
		Email:   strings.TrimSpace(p.ContactInfo.Email),
		Address: strings.TrimSpace(p.ContactInfo.Address),
		Hours:   strings.TrimSpace(p.ContactInfo.Hours),
	}

	var errs []error
	if p.WebsiteName == "" || len(p.WebsiteName) > maxWebsiteNameLen {
		errs = append(errs, domain.ErrInvalidWebsiteName)
	}
	if _, ok := theme.ParseBusinessType(p.BusinessType); !ok {
		errs = append(errs, domain.ErrInvalidBusinessType)
	}
	if !theme.WellFormed(p.ColorTheme) {
		errs = append(errs, domain.ErrInvalidColorTheme)
	}
	if p.ContactInfo.Empty() {
		errs = append(errs, domain.ErrInvalidContactInfo)
	}
	if p.Area == "" {
		errs = append(errs, domain.ErrInvalidArea)
	}
	if p.LogoURL != "" && !absoluteHTTPURL(p.LogoURL) {
		errs = append(errs, domain.ErrInvalidLogoURL)
	}
	if len(errs) > 0 {
		return p, errors.Join(errs...)
	}
	return p, nil
}

func profileFields(p domain.BusinessProfile) map[string]any {
	return map[string]any{
		"website_name":    p.WebsiteName,
		"business_type":   p.BusinessType,
		"area":            p.Area,
		"description":     p.Description,
		"color_theme":     p.ColorTheme,
		"contact_phone":   p.ContactInfo.Phone,
		"contact_email":   p.ContactInfo.Email,
		"contact_address": p.ContactInfo.Address,
		"contact_hours":   p.ContactInfo.Hours,
		"logo_url":        p.LogoURL,
		"custom_css":      p.CustomCSS,
		"custom_domain":   p.CustomDomain,
	}
}

func absoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// upstreamError maps provider failures onto the publisher's error kinds.
func upstreamError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, hosting.ErrNameTaken) {
		return fmt.Errorf("%w: %v", domain.ErrNameTaken, err)
	}
	var herr *hosting.Error
	if errors.As(err, &herr) {
		switch {
		case herr.Timeout:
			return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
		case herr.Kind == hosting.KindAuth:
			return fmt.Errorf("%w: %v", domain.ErrUpstreamAuth, err)
		case herr.Kind == hosting.KindNotFound:
			return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		}
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
}

func errorClass(err error) string {
	var herr *hosting.Error
	if errors.As(err, &herr) {
		return herr.Class()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "upstream_timeout"
	}
	return "other"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
