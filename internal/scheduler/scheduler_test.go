package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/smallbiznis/breakeven/internal/clock"
	"github.com/smallbiznis/breakeven/internal/interaction/liveevents"
	"github.com/smallbiznis/breakeven/internal/locker"
	obsmetrics "github.com/smallbiznis/breakeven/internal/observability/metrics"
	"github.com/smallbiznis/breakeven/internal/providers/hosting"
	websitedomain "github.com/smallbiznis/breakeven/internal/website/domain"
	websiterepo "github.com/smallbiznis/breakeven/internal/website/repository"
	"github.com/smallbiznis/breakeven/pkg/oid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeHosting struct {
	mu    sync.Mutex
	sites map[string]hosting.Site
	errs  map[string]error
	calls int
}

func (f *fakeHosting) CreateSite(context.Context, string, string) (hosting.Site, error) {
	return hosting.Site{}, errors.New("not implemented")
}

func (f *fakeHosting) Deploy(context.Context, string, []byte) (hosting.Deploy, error) {
	return hosting.Deploy{}, errors.New("not implemented")
}

func (f *fakeHosting) GetSite(_ context.Context, siteID string) (hosting.Site, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[siteID]; err != nil {
		return hosting.Site{}, err
	}
	return f.sites[siteID], nil
}

func (f *fakeHosting) Rename(context.Context, string, string) (hosting.Site, error) {
	return hosting.Site{}, errors.New("not implemented")
}

type fakeBinder struct {
	bound map[oid.ID]string
}

func (f *fakeBinder) BindPublished(_ context.Context, ownerID oid.ID, url string) error {
	f.bound[ownerID] = url
	return nil
}

type fixture struct {
	sched    *Scheduler
	db       *gorm.DB
	host     *fakeHosting
	locks    *locker.MemoryLocker
	qr       *fakeBinder
	hub      *liveevents.Hub
	registry *prometheus.Registry
	now      time.Time
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:scheduler_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&websitedomain.PublishedSite{}))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:       setupTestDB(t),
		host:     &fakeHosting{sites: map[string]hosting.Site{}, errs: map[string]error{}},
		locks:    locker.NewMemoryLocker(),
		qr:       &fakeBinder{bound: map[oid.ID]string{}},
		hub:      liveevents.NewHub(),
		registry: prometheus.NewRegistry(),
		now:      time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
	sched, err := New(Params{
		DB:      f.db,
		Log:     zap.NewNop(),
		Clock:   clock.NewFakeClock(f.now),
		Sites:   websiterepo.Provide(),
		Hosting: f.host,
		Locker:  f.locks,
		QR:      f.qr,
		Hub:     f.hub,
		Metrics: obsmetrics.NewPublisherMetrics(f.registry, obsmetrics.Config{ServiceName: "breakeven", Environment: "test"}),
	})
	require.NoError(t, err)
	f.sched = sched
	return f
}

func (f *fixture) insertPending(t *testing.T, providerID, deployID, url string) websitedomain.PublishedSite {
	t.Helper()

	site := websitedomain.PublishedSite{
		ID:             oid.New(),
		OwnerID:        oid.New(),
		SiteName:       "pranavi-bakery-03150907-ab12",
		ProviderSiteID: providerID,
		URL:            url,
		DeployID:       deployID,
		DeployState:    websitedomain.DeployPending,
		ContentID:      oid.New(),
		Status:         websitedomain.StatusRedeploying,
		IsActive:       true,
		Profile:        websitedomain.BusinessProfile{WebsiteName: "Pranavi Bakery", BusinessType: "food_store", ColorTheme: "warm"},
		CreatedAt:      f.now.Add(-time.Hour),
		UpdatedAt:      f.now.Add(-time.Minute),
	}
	require.NoError(t, f.db.Create(&site).Error)
	return site
}

func (f *fixture) reload(t *testing.T, id oid.ID) websitedomain.PublishedSite {
	t.Helper()

	var site websitedomain.PublishedSite
	require.NoError(t, f.db.Where("id = ?", id).First(&site).Error)
	return site
}

func TestReconcilePromotesReadyDeploy(t *testing.T) {
	f := newFixture(t)
	site := f.insertPending(t, "p-1", "d-1", "http://pranavi.netlify.app")
	f.host.sites["p-1"] = hosting.Site{
		ID:              "p-1",
		SSLURL:          "https://pranavi.netlify.app",
		AdminURL:        "https://app.netlify.com/sites/pranavi",
		PublishedDeploy: &hosting.Deploy{ID: "d-1", State: hosting.StateReady},
	}

	sub, _, err := f.hub.Subscribe(site.OwnerID.String())
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, f.sched.RunOnce(context.Background()))

	got := f.reload(t, site.ID)
	assert.Equal(t, websitedomain.DeployReady, got.DeployState)
	assert.Equal(t, websitedomain.StatusDeployed, got.Status)
	assert.Equal(t, "https://pranavi.netlify.app", got.URL)
	assert.Equal(t, "https://app.netlify.com/sites/pranavi", got.AdminURL)
	require.NotNil(t, got.LastDeployedAt)
	assert.True(t, got.LastDeployedAt.Equal(f.now))

	assert.Equal(t, "https://pranavi.netlify.app", f.qr.bound[site.OwnerID])

	select {
	case ev := <-sub.Events():
		assert.Equal(t, "site.deploy_ready", ev.Kind)
		assert.Equal(t, site.ID.String(), ev.SiteID)
	case <-time.After(time.Second):
		t.Fatal("expected a live deploy event")
	}

	labels := map[string]string{"service": "breakeven", "env": "test", "job": JobReconcileDeploys}
	assert.Equal(t, float64(1), getCounterValue(t, f.registry, "breakeven_scheduler_job_processed_total", labels))
	assert.Equal(t, float64(1), getCounterValue(t, f.registry, "breakeven_scheduler_job_runs_total", labels))
}

func TestReconcileLeavesOtherDeploysPending(t *testing.T) {
	f := newFixture(t)
	stale := f.insertPending(t, "p-1", "d-2", "https://a.netlify.app")
	building := f.insertPending(t, "p-2", "d-3", "https://b.netlify.app")
	f.host.sites["p-1"] = hosting.Site{PublishedDeploy: &hosting.Deploy{ID: "d-1", State: hosting.StateReady}}
	f.host.sites["p-2"] = hosting.Site{PublishedDeploy: &hosting.Deploy{ID: "d-3", State: "building"}}

	require.NoError(t, f.sched.RunOnce(context.Background()))

	assert.Equal(t, websitedomain.DeployPending, f.reload(t, stale.ID).DeployState)
	assert.Equal(t, websitedomain.DeployPending, f.reload(t, building.ID).DeployState)
	assert.Empty(t, f.qr.bound)
}

func TestReconcileSkipsOwnersWithPublishInFlight(t *testing.T) {
	f := newFixture(t)
	site := f.insertPending(t, "p-1", "d-1", "https://a.netlify.app")
	f.host.sites["p-1"] = hosting.Site{PublishedDeploy: &hosting.Deploy{ID: "d-1", State: hosting.StateReady}}

	_, ok, err := f.locks.TryLock(context.Background(), locker.PublishKey(site.OwnerID.String()), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, f.sched.RunOnce(context.Background()))

	assert.Zero(t, f.host.calls)
	assert.Equal(t, websitedomain.DeployPending, f.reload(t, site.ID).DeployState)
}

func TestReconcileContinuesPastProviderErrors(t *testing.T) {
	f := newFixture(t)
	broken := f.insertPending(t, "p-1", "d-1", "https://a.netlify.app")
	healthy := f.insertPending(t, "p-2", "d-2", "https://b.netlify.app")
	f.host.errs["p-1"] = errors.New("connection reset")
	f.host.sites["p-2"] = hosting.Site{URL: "https://b.netlify.app", PublishedDeploy: &hosting.Deploy{ID: "d-2", State: hosting.StateReady}}

	err := f.sched.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p-1")

	assert.Equal(t, websitedomain.DeployPending, f.reload(t, broken.ID).DeployState)
	assert.Equal(t, websitedomain.DeployReady, f.reload(t, healthy.ID).DeployState)

	labels := map[string]string{"service": "breakeven", "env": "test", "job": JobReconcileDeploys, "reason": obsmetrics.ReasonUnknown}
	assert.Equal(t, float64(1), getCounterValue(t, f.registry, "breakeven_scheduler_job_errors_total", labels))
}

func TestReconcileSkipsWhenAnotherInstanceHoldsTheJob(t *testing.T) {
	f := newFixture(t)
	f.insertPending(t, "p-1", "d-1", "https://a.netlify.app")

	_, ok, err := f.locks.TryLock(context.Background(), locker.JobKey(JobReconcileDeploys), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, f.sched.RunOnce(context.Background()))
	assert.Zero(t, f.host.calls)
}

func TestRunJobTimeoutDoesNotReturnError(t *testing.T) {
	f := newFixture(t)

	err := f.sched.runJob(context.Background(), "timeout_job", 0, 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	labels := map[string]string{"service": "breakeven", "env": "test", "job": "timeout_job", "reason": obsmetrics.ReasonDeadlineExceeded}
	assert.Equal(t, float64(1), getCounterValue(t, f.registry, "breakeven_scheduler_job_errors_total", labels))
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDisabledJobsAreSkipped(t *testing.T) {
	f := newFixture(t)
	f.sched.cfg.EnabledJobs = []string{"something_else"}
	f.insertPending(t, "p-1", "d-1", "https://a.netlify.app")

	require.NoError(t, f.sched.RunOnce(context.Background()))
	assert.Zero(t, f.host.calls)
}

func getCounterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	metricFamilies, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range metricFamilies {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if !labelsMatch(metric, labels) {
				continue
			}
			require.NotNil(t, metric.Counter, "metric %s is not a counter", name)
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.Label) != len(labels) {
		return false
	}
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}
