package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/breakeven/internal/bundle"
	"github.com/smallbiznis/breakeven/internal/clock"
	"github.com/smallbiznis/breakeven/internal/config"
	"github.com/smallbiznis/breakeven/internal/content"
	contentdomain "github.com/smallbiznis/breakeven/internal/content/domain"
	"github.com/smallbiznis/breakeven/internal/locker"
	"github.com/smallbiznis/breakeven/internal/ownercontext"
	"github.com/smallbiznis/breakeven/internal/providers/aitext"
	"github.com/smallbiznis/breakeven/internal/providers/hosting"
	"github.com/smallbiznis/breakeven/internal/website/domain"
	"github.com/smallbiznis/breakeven/internal/website/repository"
	"github.com/smallbiznis/breakeven/pkg/oid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const aiDocument = `Here you go:
{
  "hero": {"title": "Pranavi Bakery: fresh every morning", "subtitle": "Breads and cakes in Downtown"},
  "about": {"title": "About", "body": "A family bakery."},
  "services": [{"name": "Bread"}, {"name": "Cakes"}, {"name": "Coffee"}],
  "contact": {"title": "Visit", "description": "Drop by", "cta": "Call us"},
  "seo": {"title": "Pranavi Bakery", "description": "Bakery", "keywords": ["bakery", "bread", "cakes"]}
}`

type stubAI struct {
	text string
	err  error
}

func (s stubAI) Generate(context.Context, string, aitext.GenerationConfig) (string, error) {
	return s.text, s.err
}

type createResult struct {
	site hosting.Site
	err  error
}

type fakeHosting struct {
	mu        sync.Mutex
	creates   []createResult
	names     []string
	deployErr error
	deploys   [][]byte
	renamed   string
}

func (f *fakeHosting) CreateSite(_ context.Context, name, _ string) (hosting.Site, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
	if len(f.creates) > 0 {
		next := f.creates[0]
		f.creates = f.creates[1:]
		if next.err != nil {
			return hosting.Site{}, next.err
		}
	}
	return hosting.Site{
		ID:       "prov-" + name,
		Name:     name,
		URL:      "http://" + name + ".netlify.app",
		SSLURL:   "https://" + name + ".netlify.app",
		AdminURL: "https://app.netlify.com/sites/" + name,
	}, nil
}

func (f *fakeHosting) Deploy(_ context.Context, siteID string, archive []byte) (hosting.Deploy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deployErr != nil {
		return hosting.Deploy{}, f.deployErr
	}
	f.deploys = append(f.deploys, archive)
	return hosting.Deploy{ID: fmt.Sprintf("dep-%d", len(f.deploys)), State: hosting.StateReady}, nil
}

func (f *fakeHosting) GetSite(_ context.Context, siteID string) (hosting.Site, error) {
	name := f.renamed
	return hosting.Site{ID: siteID, Name: name, SSLURL: "https://" + name + ".netlify.app"}, nil
}

func (f *fakeHosting) Rename(_ context.Context, siteID, newName string) (hosting.Site, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renamed = newName
	return hosting.Site{ID: siteID, Name: newName}, nil
}

type fakeBinder struct {
	mu    sync.Mutex
	binds map[oid.ID]string
}

func (b *fakeBinder) BindPublished(_ context.Context, ownerID oid.ID, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.binds == nil {
		b.binds = map[oid.ID]string{}
	}
	b.binds[ownerID] = url
	return nil
}

func (b *fakeBinder) target(ownerID oid.ID) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.binds[ownerID]
}

type fixture struct {
	svc     *Service
	db      *gorm.DB
	hosting *fakeHosting
	qr      *fakeBinder
	owner   oid.ID
	ctx     context.Context
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:website_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.PublishedSite{}, &domain.ContentRecord{}, &domain.DeployAttempt{}))
	return db
}

func newFixture(t *testing.T, ai aitext.Provider) *fixture {
	t.Helper()

	db := setupTestDB(t)
	host := &fakeHosting{}
	qr := &fakeBinder{}
	synth := content.New(content.Params{
		Provider:   ai,
		Generation: config.NewStaticGenerationConfigHolder(config.GenerationConfig{Model: "m", Temperature: 0.7, MaxTokens: 2048, TopK: 40, TopP: 0.8}),
		Log:        zap.NewNop(),
	})
	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		Clock:       clock.NewFakeClock(time.Date(2026, 3, 15, 9, 7, 0, 0, time.UTC)),
		Config:      config.Config{WebsiteBaseURL: "https://api.example.com", PublishLockTTL: time.Minute},
		Repo:        repository.Provide(),
		Synthesizer: synth,
		Assembler:   bundle.New(nil),
		Hosting:     host,
		Locker:      locker.NewMemoryLocker(),
		QR:          qr,
	}).(*Service)

	owner := oid.New()
	return &fixture{
		svc:     svc,
		db:      db,
		hosting: host,
		qr:      qr,
		owner:   owner,
		ctx:     ownercontext.WithOwnerID(context.Background(), owner),
	}
}

func bakeryRequest() domain.CreateRequest {
	return domain.CreateRequest{
		WebsiteName:  "Pranavi Bakery",
		BusinessType: "food_store",
		ColorTheme:   "warm",
		ContactInfo:  domain.ContactInfo{Email: "x@y", Phone: "555"},
		Area:         "Downtown",
	}
}

func countRows(t *testing.T, db *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(where, args...).Count(&n).Error)
	return n
}

func TestCreateHappyPath(t *testing.T) {
	f := newFixture(t, stubAI{text: aiDocument})

	res, err := f.svc.Create(f.ctx, bakeryRequest())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^https://pranavi-bakery-\d{8}-[a-z0-9]{4}\.netlify\.app$`), res.URL)
	assert.Equal(t, domain.DeployReady, res.DeployState)
	assert.Contains(t, res.Content.HeroTitle, "Pranavi Bakery")
	assert.Equal(t, contentdomain.GenerationAI, res.Content.GenerationMethod)
	assert.Equal(t, res.URL, f.qr.target(f.owner))

	site, err := f.svc.repo.FindByOwner(context.Background(), f.db, f.owner)
	require.NoError(t, err)
	require.NotNil(t, site)
	assert.Equal(t, res.SiteID, site.ID)
	assert.Equal(t, domain.StatusDeployed, site.Status)
	assert.Equal(t, "Downtown", site.Profile.Area)

	attempts, err := f.svc.ListDeploys(f.ctx, 10)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, domain.DeployReady, attempts[0].State)

	require.Len(t, f.hosting.deploys, 1)
	zr, err := zip.NewReader(bytes.NewReader(f.hosting.deploys[0]), int64(len(f.hosting.deploys[0])))
	require.NoError(t, err)
	var index string
	for _, file := range zr.File {
		if file.Name == bundle.IndexFile {
			rc, err := file.Open()
			require.NoError(t, err)
			body, err := io.ReadAll(rc)
			require.NoError(t, err)
			rc.Close()
			index = string(body)
		}
	}
	assert.Contains(t, index, "Pranavi Bakery")
	assert.Contains(t, index, site.ID.String())
	assert.NotContains(t, index, "{{")
}

func TestCreateRetriesNameCollisions(t *testing.T) {
	f := newFixture(t, stubAI{text: aiDocument})
	taken := &hosting.Error{Kind: hosting.KindNameTaken, Status: 422, Op: "create_site"}
	f.hosting.creates = []createResult{{err: taken}, {err: taken}}

	res, err := f.svc.Create(f.ctx, bakeryRequest())
	require.NoError(t, err)

	require.Len(t, f.hosting.names, 3)
	assert.Regexp(t, regexp.MustCompile(`-[a-z0-9]{4}$`), f.hosting.names[0])
	assert.Regexp(t, regexp.MustCompile(`-[a-z0-9]{6}$`), f.hosting.names[1])
	assert.Len(t, f.hosting.deploys, 1)
	assert.Equal(t, f.hosting.names[2], res.SiteName)
}

func TestCreateNameCollisionsExhausted(t *testing.T) {
	f := newFixture(t, stubAI{text: aiDocument})
	taken := &hosting.Error{Kind: hosting.KindNameTaken, Status: 422, Op: "create_site"}
	f.hosting.creates = []createResult{{err: taken}, {err: taken}, {err: taken}}

	_, err := f.svc.Create(f.ctx, bakeryRequest())
	require.ErrorIs(t, err, domain.ErrNameTaken)
	assert.Len(t, f.hosting.names, 3)
	assert.Empty(t, f.hosting.deploys)
	assert.Zero(t, countRows(t, f.db, &domain.PublishedSite{}, "owner_id = ?", f.owner))
}

func TestCreateFallsBackWhenAIFails(t *testing.T) {
	f := newFixture(t, stubAI{err: &aitext.StatusError{Status: 500}})

	res, err := f.svc.Create(f.ctx, bakeryRequest())
	require.NoError(t, err)
	assert.Equal(t, contentdomain.GenerationFallback, res.Content.GenerationMethod)
	assert.Equal(t, "Welcome to Pranavi Bakery", res.Content.HeroTitle)
}

func TestCreateDeployTransportFailure(t *testing.T) {
	f := newFixture(t, stubAI{text: aiDocument})
	require.NoError(t, f.qr.BindPublished(context.Background(), f.owner, "https://old.example.com"))
	f.hosting.deployErr = &hosting.Error{Kind: hosting.KindTransport, Op: "deploy", Err: errors.New("connection reset")}

	_, err := f.svc.Create(f.ctx, bakeryRequest())
	require.ErrorIs(t, err, domain.ErrUpstream)

	assert.Zero(t, countRows(t, f.db, &domain.PublishedSite{}, "owner_id = ?", f.owner))
	assert.Zero(t, countRows(t, f.db, &domain.ContentRecord{}, "owner_id = ?", f.owner))
	var attempts []domain.DeployAttempt
	require.NoError(t, f.db.Where("owner_id = ?", f.owner).Find(&attempts).Error)
	require.Len(t, attempts, 1)
	assert.Equal(t, domain.DeployFailed, attempts[0].State)
	assert.Equal(t, "upstream_error", attempts[0].ErrorClass)
	assert.Equal(t, "https://old.example.com", f.qr.target(f.owner))
}

func TestCreateDeployTimeoutAndAuth(t *testing.T) {
	f := newFixture(t, stubAI{text: aiDocument})
	f.hosting.deployErr = &hosting.Error{Kind: hosting.KindTransport, Timeout: true, Op: "deploy"}
	_, err := f.svc.Create(f.ctx, bakeryRequest())
	require.ErrorIs(t, err, domain.ErrUpstreamTimeout)

	f.hosting.deployErr = &hosting.Error{Kind: hosting.KindAuth, Status: 401, Op: "deploy"}
	_, err = f.svc.Create(f.ctx, bakeryRequest())
	require.ErrorIs(t, err, domain.ErrUpstreamAuth)
}

func TestCreateAtMostOneSitePerOwner(t *testing.T) {
	f := newFixture(t, stubAI{text: aiDocument})

	_, err := f.svc.Create(f.ctx, bakeryRequest())
	require.NoError(t, err)

	_, err = f.svc.Create(f.ctx, bakeryRequest())
	require.ErrorIs(t, err, domain.ErrSiteExists)
	assert.Equal(t, int64(1), countRows(t, f.db, &domain.PublishedSite{}, "owner_id = ?", f.owner))
}

func TestCreateRejectsWhilePublishInProgress(t *testing.T) {
	f := newFixture(t, stubAI{text: aiDocument})
	_, ok, err := f.svc.locker.TryLock(context.Background(), locker.PublishKey(f.owner.String()), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.Create(f.ctx, bakeryRequest())
	require.ErrorIs(t, err, domain.ErrPublishInProgress)
	assert.Empty(t, f.hosting.names)
}

func TestCreateValidationReportsEveryField(t *testing.T) {
	f := newFixture(t, stubAI{text: aiDocument})

	_, err := f.svc.Create(f.ctx, domain.CreateRequest{BusinessType: "spaceship", ColorTheme: "Not A Theme!"})
	require.Error(t, err)
	for _, want := range []error{
		domain.ErrInvalidWebsiteName,
		domain.ErrInvalidBusinessType,
		domain.ErrInvalidColorTheme,
		domain.ErrInvalidContactInfo,
		domain.ErrInvalidArea,
	} {
		assert.ErrorIs(t, err, want)
	}
	assert.Empty(t, f.hosting.names)
}

func TestCreateRequiresOwner(t *testing.T) {
	f := newFixture(t, stubAI{text: aiDocument})
	_, err := f.svc.Create(context.Background(), bakeryRequest())
	require.ErrorIs(t, err, domain.ErrInvalidOwner)
}

func TestUpdateReusesStoredDocument(t *testing.T) {
	f := newFixture(t, stubAI{text: aiDocument})
	created, err := f.svc.Create(f.ctx, bakeryRequest())
	require.NoError(t, err)

	area := "Uptown"
	res, err := f.svc.Update(f.ctx, domain.UpdateRequest{Area: &area})
	require.NoError(t, err)
	assert.Equal(t, created.SiteID, res.SiteID)
	assert.Equal(t, "dep-2", res.DeployID)
	assert.Equal(t, int64(1), countRows(t, f.db, &domain.ContentRecord{}, "owner_id = ?", f.owner))

	view, err := f.svc.Get(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "Uptown", view.Profile.Area)
	assert.Equal(t, domain.StatusDeployed, view.Status)
}

func TestUpdatePatchesCustomDomain(t *testing.T) {
	f := newFixture(t, stubAI{text: aiDocument})
	_, err := f.svc.Create(f.ctx, bakeryRequest())
	require.NoError(t, err)

	domainName := "  Pranavi-Bakery.Example "
	_, err = f.svc.Update(f.ctx, domain.UpdateRequest{CustomDomain: &domainName})
	require.NoError(t, err)

	view, err := f.svc.Get(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "pranavi-bakery.example", view.Profile.CustomDomain)
	assert.Equal(t, "Downtown", view.Profile.Area)
	assert.Equal(t, int64(1), countRows(t, f.db, &domain.ContentRecord{}, "owner_id = ?", f.owner))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	got := truncate(strings.Repeat("x", 499)+"→ timeout", 500)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("x", 499), got)
	assert.Equal(t, "short", truncate("short", 500))
}

func TestUpdateRegeneratesOnDescriptionChange(t *testing.T) {
	f := newFixture(t, stubAI{text: aiDocument})
	_, err := f.svc.Create(f.ctx, bakeryRequest())
	require.NoError(t, err)

	desc := "Now with gluten free options"
	_, err = f.svc.Update(f.ctx, domain.UpdateRequest{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, int64(2), countRows(t, f.db, &domain.ContentRecord{}, "owner_id = ?", f.owner))
}

func TestUpdateDeployFailureLeavesProfile(t *testing.T) {
	f := newFixture(t, stubAI{text: aiDocument})
	_, err := f.svc.Create(f.ctx, bakeryRequest())
	require.NoError(t, err)

	f.hosting.deployErr = &hosting.Error{Kind: hosting.KindTransport, Status: 503, Op: "deploy"}
	area := "Uptown"
	_, err = f.svc.Update(f.ctx, domain.UpdateRequest{Area: &area})
	require.ErrorIs(t, err, domain.ErrUpstream)

	view, err := f.svc.Get(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "Downtown", view.Profile.Area)
	assert.Equal(t, domain.StatusDeployed, view.Status)

	attempts, err := f.svc.ListDeploys(f.ctx, 10)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
}

func TestUpdateWithoutSite(t *testing.T) {
	f := newFixture(t, stubAI{text: aiDocument})
	area := "Uptown"
	_, err := f.svc.Update(f.ctx, domain.UpdateRequest{Area: &area})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRenameRebindsQR(t *testing.T) {
	f := newFixture(t, stubAI{text: aiDocument})
	_, err := f.svc.Create(f.ctx, bakeryRequest())
	require.NoError(t, err)

	view, err := f.svc.Rename(f.ctx, domain.RenameRequest{SiteName: "Pranavi Bakery HQ"})
	require.NoError(t, err)
	assert.Equal(t, "pranavi-bakery-hq", view.SiteName)
	assert.Equal(t, "https://pranavi-bakery-hq.netlify.app", view.URL)
	assert.Equal(t, view.URL, f.qr.target(f.owner))

	_, err = f.svc.Rename(f.ctx, domain.RenameRequest{SiteName: "  "})
	require.ErrorIs(t, err, domain.ErrInvalidSiteName)
}

func TestRenderPage(t *testing.T) {
	f := newFixture(t, stubAI{err: errors.New("down")})
	res, err := f.svc.Create(f.ctx, bakeryRequest())
	require.NoError(t, err)

	page, site, err := f.svc.RenderPage(context.Background(), res.SiteID)
	require.NoError(t, err)
	assert.Equal(t, f.owner, site.OwnerID)
	assert.True(t, strings.Contains(string(page), "Welcome to Pranavi Bakery"))

	_, _, err = f.svc.RenderPage(context.Background(), oid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}
