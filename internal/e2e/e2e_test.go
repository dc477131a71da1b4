package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/breakeven/internal/auth/token"
	"github.com/smallbiznis/breakeven/internal/bundle"
	"github.com/smallbiznis/breakeven/internal/clock"
	"github.com/smallbiznis/breakeven/internal/config"
	"github.com/smallbiznis/breakeven/internal/content"
	"github.com/smallbiznis/breakeven/internal/events"
	"github.com/smallbiznis/breakeven/internal/locker"
	"github.com/smallbiznis/breakeven/internal/migration"
	"github.com/smallbiznis/breakeven/internal/observability"
	"github.com/smallbiznis/breakeven/internal/owner"
	ownerdomain "github.com/smallbiznis/breakeven/internal/owner/domain"
	"github.com/smallbiznis/breakeven/internal/providers"
	"github.com/smallbiznis/breakeven/internal/ratelimit"
	"github.com/smallbiznis/breakeven/internal/scheduler"
	"github.com/smallbiznis/breakeven/internal/server"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const (
	ownerEmail    = "owner@breakeven.test"
	ownerPassword = "correct-horse-battery"
)

type testEnv struct {
	app       *fx.App
	server    *server.Server
	db        *gorm.DB
	baseURL   string
	scheduler *scheduler.Scheduler
	owners    ownerdomain.Service
	tokens    *token.Manager
	hosting   *fakeNetlify
	httpSrv   *httptest.Server
}

var env *testEnv

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	hosting := newFakeNetlify()
	setDefaultEnv(hosting.URL())

	var err error
	env, err = startEnv(hosting)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start test environment:", err)
		hosting.Close()
		os.Exit(1)
	}

	code := m.Run()
	env.shutdown()
	os.Exit(code)
}

func TestE2E_HealthCheck(t *testing.T) {
	resp, err := http.Get(env.baseURL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestE2E_BootstrapOwner(t *testing.T) {
	if countRows(t, env.db, "owners", "email = ?", ownerEmail) != 1 {
		t.Fatalf("expected bootstrap owner to be seeded")
	}

	resp, body := doJSON(t, http.MethodGet, env.baseURL+"/api/website-builder/my-website", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d: %s", resp.StatusCode, string(body))
	}
}

func TestE2E_PublishLifecycle(t *testing.T) {
	resetDatabase(t, env.db)
	headers := ownerHeaders(t)

	createReq := map[string]any{
		"website_name":  "Pranavi Bakery",
		"business_type": "food_store",
		"color_theme":   "warm",
		"area":          "Koramangala",
		"contact_info": map[string]any{
			"phone": "+91 98450 00000",
			"email": "hello@pranavi.test",
		},
	}
	resp, body := doJSON(t, http.MethodPost, env.baseURL+"/api/website-builder/create", createReq, headers)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create website failed: %d: %s", resp.StatusCode, string(body))
	}
	var created struct {
		Data struct {
			SiteID      string `json:"site_id"`
			URL         string `json:"url"`
			SiteName    string `json:"site_name"`
			DeployID    string `json:"deploy_id"`
			DeployState string `json:"deploy_state"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if !strings.HasPrefix(created.Data.SiteName, "pranavi-bakery-") {
		t.Fatalf("unexpected site name %q", created.Data.SiteName)
	}
	if created.Data.DeployState != "pending" {
		t.Fatalf("expected pending deploy, got %q", created.Data.DeployState)
	}
	if len(env.hosting.lastArchive()) == 0 {
		t.Fatalf("expected a zip bundle to be uploaded")
	}

	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/api/website-builder/create", createReq, headers)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409 for a second site, got %d: %s", resp.StatusCode, string(body))
	}

	env.hosting.markLive(created.Data.DeployID)
	if err := env.scheduler.RunOnce(context.Background()); err != nil {
		t.Fatalf("scheduler run: %v", err)
	}

	resp, body = doJSON(t, http.MethodGet, env.baseURL+"/api/website-builder/my-website", nil, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("my website failed: %d: %s", resp.StatusCode, string(body))
	}
	var mine struct {
		Data struct {
			Website struct {
				ID          string `json:"id"`
				DeployState string `json:"deploy_state"`
				Status      string `json:"status"`
			} `json:"website"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &mine); err != nil {
		t.Fatalf("decode my website: %v", err)
	}
	if mine.Data.Website.ID != created.Data.SiteID {
		t.Fatalf("expected site %s, got %s", created.Data.SiteID, mine.Data.Website.ID)
	}
	if mine.Data.Website.DeployState != "ready" {
		t.Fatalf("expected ready deploy after reconcile, got %q", mine.Data.Website.DeployState)
	}

	resp, body = doJSON(t, http.MethodGet, env.baseURL+"/api/qr-code", nil, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get qr code failed: %d: %s", resp.StatusCode, string(body))
	}
	var qr struct {
		Data struct {
			TargetURL string `json:"target_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &qr); err != nil {
		t.Fatalf("decode qr code: %v", err)
	}
	if qr.Data.TargetURL != created.Data.URL {
		t.Fatalf("expected qr target %s, got %s", created.Data.URL, qr.Data.TargetURL)
	}

	if countRows(t, env.db, "deploy_attempts", "provider_deploy_id = ?", created.Data.DeployID) != 1 {
		t.Fatalf("expected a single recorded deploy attempt")
	}
}

func TestE2E_SiteCallbacks(t *testing.T) {
	resetDatabase(t, env.db)
	headers := ownerHeaders(t)
	siteID := publishSite(t, headers)

	resp, body := doJSON(t, http.MethodGet, env.baseURL+"/site/"+siteID, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("render site failed: %d: %s", resp.StatusCode, string(body))
	}
	if !strings.Contains(string(body), "Pranavi Bakery") {
		t.Fatalf("expected rendered page to name the business")
	}
	if !strings.Contains(string(body), "var direct = 'site' === 'site';") {
		t.Fatalf("expected the served page to call the site callbacks directly")
	}
	if got := countRows(t, env.db, "visits", "1 = 1"); got != 1 {
		t.Fatalf("expected one visit per render, got %d", got)
	}

	contact := map[string]any{
		"name":    "Asha",
		"email":   "asha@example.com",
		"message": "Do you bake eggless cakes?",
	}
	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/site/"+siteID+"/contact", contact, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit contact failed: %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/site/"+siteID+"/feedback", map[string]any{"rating": 5, "feedback": "Lovely bread"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit feedback failed: %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/site/"+siteID+"/newsletter", map[string]any{"email": "asha@example.com"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("subscribe newsletter failed: %d: %s", resp.StatusCode, string(body))
	}
	if countRows(t, env.db, "subscribed_customers", "email = ?", "asha@example.com") != 1 {
		t.Fatalf("expected the contact and newsletter to share one customer")
	}

	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/api/website/"+siteID+"/visit", map[string]any{"page": "/"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("record visit failed: %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, http.MethodGet, env.baseURL+"/api/website-builder/my-website", nil, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("my website failed: %d: %s", resp.StatusCode, string(body))
	}
	var mine struct {
		Data struct {
			Analytics struct {
				TotalVisits int64 `json:"total_visits"`
			} `json:"analytics"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &mine); err != nil {
		t.Fatalf("decode my website: %v", err)
	}
	if mine.Data.Analytics.TotalVisits != 2 {
		t.Fatalf("expected the render and the beacon to count once each, got %d", mine.Data.Analytics.TotalVisits)
	}

	resp, body = doJSON(t, http.MethodPost, env.baseURL+"/site/not-an-id/contact", contact, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404 for an unknown site, got %d: %s", resp.StatusCode, string(body))
	}
}

func startEnv(hosting *fakeNetlify) (*testEnv, error) {
	var (
		srv    *server.Server
		dbConn *gorm.DB
		sched  *scheduler.Scheduler
		owners ownerdomain.Service
		tokens *token.Manager
	)

	app := fx.New(
		fx.NopLogger,
		config.Module,
		observability.Module,
		fx.Provide(openTestDB),
		clock.Module,
		migration.Module,
		providers.Module,
		locker.Module,
		events.Module,
		ratelimit.Module,
		owner.Module,
		content.Module,
		bundle.Module,
		server.Module,
		fx.Provide(scheduler.ProvideConfig, scheduler.New),
		fx.Populate(&srv, &dbConn, &sched, &owners, &tokens),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return nil, err
	}

	httpSrv := httptest.NewServer(srv.Engine())

	return &testEnv{
		app:       app,
		server:    srv,
		db:        dbConn,
		baseURL:   httpSrv.URL,
		scheduler: sched,
		owners:    owners,
		tokens:    tokens,
		hosting:   hosting,
		httpSrv:   httpSrv,
	}, nil
}

func openTestDB(lc fx.Lifecycle) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:e2e_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return sqlDB.Close()
		},
	})
	return conn, nil
}

func (e *testEnv) shutdown() {
	if e == nil {
		return
	}
	if e.httpSrv != nil {
		e.httpSrv.Close()
	}
	if e.app != nil {
		_ = e.app.Stop(context.Background())
	}
	if e.hosting != nil {
		e.hosting.Close()
	}
}

func setDefaultEnv(hostingURL string) {
	_ = os.Setenv("HOSTING_BASE_URL", hostingURL)
	setEnvIfEmpty("HOSTING_API_KEY", "e2e-token")
	setEnvIfEmpty("ENVIRONMENT", "test")
	setEnvIfEmpty("HTTP_ADDR", "127.0.0.1:0")
	setEnvIfEmpty("LOG_LEVEL", "error")
	setEnvIfEmpty("SESSION_SIGNING_KEY", "e2e-signing-key")
	setEnvIfEmpty("BOOTSTRAP_OWNER_EMAIL", ownerEmail)
	setEnvIfEmpty("BOOTSTRAP_OWNER_PASSWORD", ownerPassword)
	setEnvIfEmpty("RATE_LIMIT_SITE_PER_SECOND", "0")
	_ = os.Unsetenv("AI_TEXT_API_KEY")
	_ = os.Unsetenv("REDIS_ADDR")
	_ = os.Unsetenv("KAFKA_BROKERS")
	_ = os.Unsetenv("ARCHIVE_ENDPOINT")
	_ = os.Unsetenv("SMTP_HOST")
}

func setEnvIfEmpty(key, value string) {
	if strings.TrimSpace(os.Getenv(key)) != "" {
		return
	}
	_ = os.Setenv(key, value)
}

// resetDatabase clears every owner-scoped table but keeps the bootstrap owner.
func resetDatabase(t *testing.T, dbConn *gorm.DB) {
	t.Helper()
	for _, model := range migration.Models() {
		if _, ok := model.(*ownerdomain.Owner); ok {
			continue
		}
		if err := dbConn.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			t.Fatalf("reset table: %v", err)
		}
	}
	env.hosting.reset()
}

func ownerHeaders(t *testing.T) map[string]string {
	t.Helper()
	o, err := env.owners.Authenticate(context.Background(), ownerEmail, ownerPassword)
	if err != nil {
		t.Fatalf("authenticate bootstrap owner: %v", err)
	}
	raw, _, err := env.tokens.Issue(o.ID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + raw}
}

func publishSite(t *testing.T, headers map[string]string) string {
	t.Helper()
	req := map[string]any{
		"website_name":  "Pranavi Bakery",
		"business_type": "food_store",
		"color_theme":   "warm",
		"contact_info":  map[string]any{"phone": "+91 98450 00000"},
	}
	resp, body := doJSON(t, http.MethodPost, env.baseURL+"/api/website-builder/create", req, headers)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create website failed: %d: %s", resp.StatusCode, string(body))
	}
	var payload struct {
		Data struct {
			SiteID string `json:"site_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return payload.Data.SiteID
}

func countRows(t *testing.T, dbConn *gorm.DB, table string, where string, args ...any) int64 {
	t.Helper()
	var count int64
	if err := dbConn.Table(table).Where(where, args...).Count(&count).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return count
}

func doJSON(t *testing.T, method, reqURL string, payload any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode json: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, reqURL, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "e2e")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}

// fakeNetlify serves the subset of the sites API the publisher calls. New
// deploys stay in "uploaded" until markLive publishes them.
type fakeNetlify struct {
	srv *httptest.Server

	mu      sync.Mutex
	sites   map[string]*netlifySite
	live    map[string]bool
	archive []byte
	seq     int
}

type netlifySite struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	SSLURL   string `json:"ssl_url"`
	AdminURL string `json:"admin_url"`
	DeployID string `json:"deploy_id"`
}

func newFakeNetlify() *fakeNetlify {
	f := &fakeNetlify{sites: map[string]*netlifySite{}, live: map[string]bool{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sites", f.createSite)
	mux.HandleFunc("GET /sites/{id}", f.getSite)
	mux.HandleFunc("POST /sites/{id}/deploys", f.deploy)
	f.srv = httptest.NewServer(mux)
	return f
}

func (f *fakeNetlify) URL() string { return f.srv.URL }

func (f *fakeNetlify) Close() { f.srv.Close() }

func (f *fakeNetlify) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sites = map[string]*netlifySite{}
	f.live = map[string]bool{}
	f.archive = nil
}

func (f *fakeNetlify) markLive(deployID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live[deployID] = true
}

func (f *fakeNetlify) lastArchive() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.archive
}

func (f *fakeNetlify) createSite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.seq++
	site := &netlifySite{
		ID:       fmt.Sprintf("site-%d", f.seq),
		Name:     req.Name,
		URL:      "http://" + req.Name + ".netlify.app",
		SSLURL:   "https://" + req.Name + ".netlify.app",
		AdminURL: "https://app.netlify.com/sites/" + req.Name,
	}
	f.sites[site.ID] = site
	out := *site
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, out)
}

func (f *fakeNetlify) getSite(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	site, ok := f.sites[r.PathValue("id")]
	var out map[string]any
	if ok {
		out = map[string]any{
			"id":        site.ID,
			"name":      site.Name,
			"url":       site.URL,
			"ssl_url":   site.SSLURL,
			"admin_url": site.AdminURL,
			"deploy_id": site.DeployID,
		}
		if f.live[site.DeployID] {
			out["published_deploy"] = map[string]any{"id": site.DeployID, "state": "ready"}
		}
	}
	f.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeNetlify) deploy(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	site, ok := f.sites[r.PathValue("id")]
	if ok {
		f.seq++
		site.DeployID = fmt.Sprintf("deploy-%d", f.seq)
		f.archive = payload
	}
	var deployID string
	if ok {
		deployID = site.DeployID
	}
	f.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": deployID, "state": "uploaded"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
