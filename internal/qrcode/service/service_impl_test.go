package service

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/breakeven/internal/clock"
	"github.com/smallbiznis/breakeven/internal/config"
	"github.com/smallbiznis/breakeven/internal/interaction/liveevents"
	ownerdomain "github.com/smallbiznis/breakeven/internal/owner/domain"
	ownerrepo "github.com/smallbiznis/breakeven/internal/owner/repository"
	ownersvc "github.com/smallbiznis/breakeven/internal/owner/service"
	"github.com/smallbiznis/breakeven/internal/ownercontext"
	"github.com/smallbiznis/breakeven/internal/providers/pdf"
	"github.com/smallbiznis/breakeven/internal/qrcode/domain"
	"github.com/smallbiznis/breakeven/internal/qrcode/repository"
	websitedomain "github.com/smallbiznis/breakeven/internal/website/domain"
	websiterepo "github.com/smallbiznis/breakeven/internal/website/repository"
	"github.com/smallbiznis/breakeven/pkg/oid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc   *Service
	db    *gorm.DB
	clock *clock.FakeClock
	hub   *liveevents.Hub
	owner *ownerdomain.Owner
	ctx   context.Context
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:qrcode_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&ownerdomain.Owner{},
		&websitedomain.PublishedSite{},
		&domain.Binding{},
		&domain.Scan{},
	))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 15, 23, 50, 0, 0, time.UTC))
	owners := ownersvc.New(ownersvc.Params{DB: db, Log: zap.NewNop(), Clock: clk, Repo: ownerrepo.Provide()})
	owner, err := owners.Create(context.Background(), ownerdomain.CreateRequest{
		Email:        "owner@example.com",
		Password:     "correct horse",
		BusinessName: "Pranavi Bakery",
	})
	require.NoError(t, err)

	hub := liveevents.NewHub()
	svc := New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		Clock:  clk,
		Config: config.Config{},
		Repo:   repository.Provide(),
		Sites:  websiterepo.Provide(),
		Owners: owners,
		PDF:    pdf.New(),
		Hub:    hub,
	}).(*Service)

	return &fixture{
		svc:   svc,
		db:    db,
		clock: clk,
		hub:   hub,
		owner: owner,
		ctx:   ownercontext.WithOwnerID(context.Background(), owner.ID),
	}
}

func (f *fixture) scan(t *testing.T) *domain.ScanResult {
	t.Helper()
	res, err := f.svc.Scan(context.Background(), domain.ScanRequest{OwnerID: f.owner.ID.String(), Location: "Downtown"})
	require.NoError(t, err)
	return res
}

func TestBindPublishedRespectsOverride(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.svc.BindPublished(f.ctx, f.owner.ID, "https://first.netlify.app"))
	view, err := f.svc.GetBinding(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://first.netlify.app", view.TargetURL)
	assert.False(t, view.Override)

	_, err = f.svc.SetTargetURL(f.ctx, "https://menu.example.com")
	require.NoError(t, err)
	require.NoError(t, f.svc.BindPublished(f.ctx, f.owner.ID, "https://second.netlify.app"))

	view, err = f.svc.GetBinding(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://menu.example.com", view.TargetURL)
	assert.True(t, view.Override)
}

func TestSetTargetURLValidation(t *testing.T) {
	f := newFixture(t)
	for _, bad := range []string{"", "menu.example.com", "ftp://example.com", "https://"} {
		_, err := f.svc.SetTargetURL(f.ctx, bad)
		assert.ErrorIs(t, err, domain.ErrInvalidTargetURL, bad)
	}
}

func TestClearOverrideRepointsAtSite(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()
	require.NoError(t, f.db.Create(&websitedomain.PublishedSite{
		ID:          oid.New(),
		OwnerID:     f.owner.ID,
		SiteName:    "pranavi-bakery-03152350-ab12",
		URL:         "https://pranavi-bakery-03152350-ab12.netlify.app",
		DeployState: websitedomain.DeployReady,
		ContentID:   oid.New(),
		Status:      websitedomain.StatusDeployed,
		IsActive:    true,
		Profile:     websitedomain.BusinessProfile{WebsiteName: "Pranavi Bakery", BusinessType: "food_store", ColorTheme: "warm"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}).Error)

	_, err := f.svc.SetTargetURL(f.ctx, "https://menu.example.com")
	require.NoError(t, err)

	view, err := f.svc.ClearOverride(f.ctx)
	require.NoError(t, err)
	assert.False(t, view.Override)
	assert.Equal(t, "https://pranavi-bakery-03152350-ab12.netlify.app", view.TargetURL)
	require.Len(t, view.Sites, 1)
}

func TestScanDailyRollover(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.BindPublished(f.ctx, f.owner.ID, "https://site.netlify.app"))

	f.scan(t)
	f.scan(t)
	res := f.scan(t)
	assert.Equal(t, int64(3), res.TotalScans)
	assert.Equal(t, int64(3), res.ScansToday)
	assert.Equal(t, "https://site.netlify.app", res.TargetURL)

	f.clock.Advance(15 * time.Minute)
	view, err := f.svc.GetBinding(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), view.ScansToday, "a new UTC day reports zero before any scan")
	assert.Equal(t, int64(3), view.TotalScans)

	res = f.scan(t)
	assert.Equal(t, int64(4), res.TotalScans)
	assert.Equal(t, int64(1), res.ScansToday)

	var rows int64
	require.NoError(t, f.db.Model(&domain.Scan{}).Where("owner_id = ?", f.owner.ID).Count(&rows).Error)
	assert.Equal(t, int64(4), rows)
}

func TestScanCreatesMissingBinding(t *testing.T) {
	f := newFixture(t)
	sub, _, err := f.hub.Subscribe(f.owner.ID.String())
	require.NoError(t, err)
	defer sub.Close()

	res := f.scan(t)
	assert.Equal(t, int64(1), res.TotalScans)
	assert.Equal(t, "", res.TargetURL)

	select {
	case ev := <-sub.Events():
		assert.Equal(t, "qr.scan", ev.Kind)
		assert.Contains(t, ev.Summary, "Downtown")
	case <-time.After(time.Second):
		t.Fatal("scan was not published to the live feed")
	}
}

func TestScanUnknownOwner(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Scan(context.Background(), domain.ScanRequest{OwnerID: oid.New().String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Scan(context.Background(), domain.ScanRequest{OwnerID: "not-an-id"})
	assert.ErrorIs(t, err, domain.ErrInvalidOwner)
}

func TestScansAreNotLostUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.BindPublished(f.ctx, f.owner.ID, "https://site.netlify.app"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.Scan(context.Background(), domain.ScanRequest{OwnerID: f.owner.ID.String()})
		}()
	}
	wg.Wait()

	binding, err := f.svc.repo.Find(context.Background(), f.db, f.owner.ID)
	require.NoError(t, err)
	var rows int64
	require.NoError(t, f.db.Model(&domain.Scan{}).Count(&rows).Error)
	assert.Equal(t, rows, binding.TotalScans)
}

func TestResetCounters(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.BindPublished(f.ctx, f.owner.ID, "https://site.netlify.app"))
	f.scan(t)

	view, err := f.svc.ResetCounters(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, view.TotalScans)
	assert.Zero(t, view.ScansToday)
	assert.Equal(t, "https://site.netlify.app", view.TargetURL)
}

func TestGenerateImage(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Generate(f.ctx, domain.ImageRequest{})
	require.ErrorIs(t, err, domain.ErrNoTarget)

	require.NoError(t, f.svc.BindPublished(f.ctx, f.owner.ID, "https://site.netlify.app"))
	img, err := f.svc.Generate(f.ctx, domain.ImageRequest{Type: "branded", Size: 128})
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "qr-code-branded.png", img.Filename)
	_, err = png.Decode(bytes.NewReader(img.Body))
	require.NoError(t, err)

	_, err = f.svc.Generate(f.ctx, domain.ImageRequest{Type: "hologram"})
	require.ErrorIs(t, err, domain.ErrInvalidImageType)
	_, err = f.svc.Generate(f.ctx, domain.ImageRequest{Format: "gif"})
	require.ErrorIs(t, err, domain.ErrInvalidFormat)

	view, err := f.svc.GetBinding(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.GenerationCount)
}

func TestPoster(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.BindPublished(f.ctx, f.owner.ID, "https://site.netlify.app"))

	body, err := f.svc.Poster(f.ctx)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	got := truncate(strings.Repeat("a", 254)+"ü", 255)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 254), got)
}
