package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
	"time"

	"github.com/smallbiznis/breakeven/internal/clock"
	"github.com/smallbiznis/breakeven/internal/config"
	"github.com/smallbiznis/breakeven/internal/events"
	"github.com/smallbiznis/breakeven/internal/interaction/liveevents"
	"github.com/smallbiznis/breakeven/internal/observability/metrics"
	ownerdomain "github.com/smallbiznis/breakeven/internal/owner/domain"
	"github.com/smallbiznis/breakeven/internal/ownercontext"
	"github.com/smallbiznis/breakeven/internal/providers/pdf"
	"github.com/smallbiznis/breakeven/internal/qrcode/domain"
	"github.com/smallbiznis/breakeven/internal/qrcode/render"
	websitedomain "github.com/smallbiznis/breakeven/internal/website/domain"
	"github.com/smallbiznis/breakeven/pkg/oid"
	"github.com/smallbiznis/breakeven/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const posterQRSize = 512

var logoName = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Config  config.Config
	Repo    domain.Repository
	Sites   websitedomain.Repository
	Owners  ownerdomain.Service
	PDF     pdf.Provider     `optional:"true"`
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
	owners  ownerdomain.Service
	pdf     pdf.Provider
	events  events.Sink
	hub     *liveevents.Hub
	metrics *metrics.Metrics
	logoDir string
}

func New(p Params) domain.Service {
	sink := p.Events
	if sink == nil {
		sink = events.NoOpSink{}
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("qrcode.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		sites:   p.Sites,
		owners:  p.Owners,
		pdf:     p.PDF,
		events:  sink,
		hub:     p.Hub,
		metrics: p.Metrics,
		logoDir: p.Config.QRLogoDir,
	}
}

// NewBinder exposes the service to the publisher through its narrow interface.
func NewBinder(s domain.Service) domain.Binder {
	return s
}

func (s *Service) GetBinding(ctx context.Context) (*domain.BindingView, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	return s.view(ctx, ownerID)
}

func (s *Service) SetTargetURL(ctx context.Context, target string) (*domain.BindingView, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	target = strings.TrimSpace(target)
	if !absoluteHTTPURL(target) {
		return nil, domain.ErrInvalidTargetURL
	}

	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Ensure(ctx, tx, ownerID, now); err != nil {
			return err
		}
		return s.repo.SetTarget(ctx, tx, ownerID, target, true, now)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("qr target overridden", zap.String("owner_id", ownerID.String()), zap.String("target_url", target))
	return s.view(ctx, ownerID)
}

// ClearOverride hands the binding back to the publisher and re-points it at
// the current site.
func (s *Service) ClearOverride(ctx context.Context) (*domain.BindingView, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	site, err := s.sites.FindByOwner(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	target := ""
	if site != nil {
		target = site.URL
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Ensure(ctx, tx, ownerID, now); err != nil {
			return err
		}
		return s.repo.SetTarget(ctx, tx, ownerID, target, false, now)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, ownerID)
}

func (s *Service) ResetCounters(ctx context.Context) (*domain.BindingView, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Ensure(ctx, tx, ownerID, now); err != nil {
			return err
		}
		return s.repo.ResetCounters(ctx, tx, ownerID, now)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, ownerID)
}

// BindPublished points the owner's code at a freshly published URL unless
// the owner chose a target manually.
func (s *Service) BindPublished(ctx context.Context, ownerID oid.ID, target string) error {
	if ownerID.IsZero() {
		return domain.ErrInvalidOwner
	}
	now := s.clock.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Ensure(ctx, tx, ownerID, now); err != nil {
			return err
		}
		return s.repo.BindTarget(ctx, tx, ownerID, target, now)
	})
}

func (s *Service) Scan(ctx context.Context, req domain.ScanRequest) (*domain.ScanResult, error) {
	ownerID, err := oid.Parse(req.OwnerID)
	if err != nil {
		return nil, domain.ErrInvalidOwner
	}
	if _, err := s.owners.Get(ctx, ownerID); err != nil {
		if errors.Is(err, ownerdomain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := s.repo.RecordScan(ctx, tx, ownerID, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			if err := s.repo.Ensure(ctx, tx, ownerID, now); err != nil {
				return err
			}
			if _, err := s.repo.RecordScan(ctx, tx, ownerID, now); err != nil {
				return err
			}
		}
		return s.repo.InsertScan(ctx, tx, &domain.Scan{
			ID:        oid.New(),
			OwnerID:   ownerID,
			ScannedAt: now,
			UserAgent: truncate(req.UserAgent, 512),
			IPAddress: req.IPAddress,
			Location:  truncate(strings.TrimSpace(req.Location), 255),
		})
	})
	if err != nil {
		return nil, err
	}

	binding, err := s.repo.Find(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	if binding == nil {
		return nil, domain.ErrNotFound
	}

	s.metrics.RecordQRScan(ctx)
	s.publishScan(ctx, ownerID, req.Location, now)

	return &domain.ScanResult{
		TargetURL:  binding.TargetURL,
		TotalScans: binding.TotalScans,
		ScansToday: binding.TodayScans(now),
	}, nil
}

func (s *Service) Generate(ctx context.Context, req domain.ImageRequest) (*domain.Image, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}

	style, err := render.ParseStyle(req.Type)
	if err != nil {
		return nil, domain.ErrInvalidImageType
	}
	format, err := render.ParseFormat(req.Format)
	if err != nil {
		return nil, domain.ErrInvalidFormat
	}
	col, err := render.ParseHexColor(req.Color)
	if err != nil {
		return nil, domain.ErrInvalidColor
	}

	binding, err := s.repo.Find(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	if binding == nil || binding.TargetURL == "" {
		return nil, domain.ErrNoTarget
	}

	opts := render.Options{
		Content: binding.TargetURL,
		Style:   style,
		Size:    req.Size,
		Format:  format,
		Color:   col,
		Caption: s.businessName(ctx, ownerID),
	}
	if style == render.StyleBasic && req.Logo != "" {
		opts.Logo = s.loadLogo(req.Logo)
	}

	body, err := render.Render(opts)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementGenerations(ctx, s.db, ownerID, s.clock.Now()); err != nil {
		return nil, err
	}
	s.metrics.RecordQRImage(ctx, string(style), string(format))

	return &domain.Image{
		Body:        body,
		ContentType: format.ContentType(),
		Filename:    fmt.Sprintf("qr-code-%s.%s", style, format.Extension()),
	}, nil
}

func (s *Service) Poster(ctx context.Context) ([]byte, error) {
	ownerID, ok := ownercontext.OwnerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOwner
	}
	binding, err := s.repo.Find(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	if binding == nil || binding.TargetURL == "" {
		return nil, domain.ErrNoTarget
	}

	png, err := render.Render(render.Options{Content: binding.TargetURL, Size: posterQRSize})
	if err != nil {
		return nil, err
	}
	if s.pdf == nil {
		return nil, errors.New("poster renderer not configured")
	}
	r, err := s.pdf.GeneratePoster(ctx, pdf.PosterData{
		BusinessName: s.businessName(ctx, ownerID),
		Tagline:      "Scan to visit our website",
		TargetURL:    binding.TargetURL,
		QRCodePNG:    png,
	})
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errors.New("poster renderer returned no document")
	}
	return io.ReadAll(r)
}

func (s *Service) view(ctx context.Context, ownerID oid.ID) (*domain.BindingView, error) {
	binding, err := s.repo.Find(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	sites, err := s.sites.ListByOwner(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}

	out := &domain.BindingView{Sites: make([]domain.SiteRef, 0, len(sites))}
	for _, site := range sites {
		out.Sites = append(out.Sites, domain.SiteRef{
			SiteID:      site.ID,
			SiteName:    site.SiteName,
			URL:         site.URL,
			DeployState: string(site.DeployState),
			IsActive:    site.IsActive,
		})
	}
	if binding == nil {
		return out, nil
	}
	out.TargetURL = binding.TargetURL
	out.Override = binding.Override
	out.TotalScans = binding.TotalScans
	out.ScansToday = binding.TodayScans(s.clock.Now())
	out.LastScanAt = binding.LastScanAt
	out.GenerationCount = binding.GenerationCount
	return out, nil
}

func (s *Service) businessName(ctx context.Context, ownerID oid.ID) string {
	if site, err := s.sites.FindByOwner(ctx, s.db, ownerID); err == nil && site != nil && site.Profile.WebsiteName != "" {
		return site.Profile.WebsiteName
	}
	if s.owners == nil {
		return ""
	}
	if owner, err := s.owners.Get(ctx, ownerID); err == nil {
		return owner.BusinessName
	}
	return ""
}

// loadLogo reads {dir}/{name}.png or .jpg. A missing logo renders the code
// without one.
func (s *Service) loadLogo(name string) image.Image {
	name = strings.ToLower(strings.TrimSpace(name))
	if s.logoDir == "" || !logoName.MatchString(name) {
		return nil
	}
	for _, ext := range []string{".png", ".jpg", ".jpeg"} {
		f, err := os.Open(filepath.Join(s.logoDir, name+ext))
		if err != nil {
			continue
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			s.log.Warn("decode qr logo failed", zap.String("logo", name), zap.Error(err))
			return nil
		}
		return img
	}
	s.log.Debug("qr logo not found", zap.String("logo", name))
	return nil
}

func (s *Service) publishScan(ctx context.Context, ownerID oid.ID, location string, now time.Time) {
	ctx, correlationID := correlation.EnsureCorrelationID(ctx)
	if err := s.events.Emit(ctx, events.Event{
		Type:          events.TypeQRScan,
		OwnerID:       ownerID.String(),
		CorrelationID: correlationID,
		OccurredAt:    now,
		Data:          map[string]any{"location": location},
	}); err != nil {
		s.log.Warn("emit scan event failed", zap.String("owner_id", ownerID.String()), zap.Error(err))
	}
	if s.hub != nil {
		summary := "QR code scanned"
		if location != "" {
			summary += " in " + location
		}
		s.hub.Publish(ownerID.String(), liveevents.Event{
			ID:            oid.New().String(),
			Kind:          events.TypeQRScan,
			Summary:       summary,
			CorrelationID: correlationID,
			OccurredAt:    now.Format(time.RFC3339),
		})
	}
}

func absoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
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
