package hosting

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *NetlifyClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewNetlifyClient(Config{APIKey: "secret", BaseURL: srv.URL + "/"}, srv.Client())
}

func TestCreateSite(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sites", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"s1","name":"shop-1","url":"http://shop-1.netlify.app","ssl_url":"https://shop-1.netlify.app","admin_url":"https://app.netlify.com/sites/shop-1"}`)
	})

	site, err := c.CreateSite(context.Background(), "shop-1", "")
	require.NoError(t, err)
	assert.Equal(t, "s1", site.ID)
	assert.Equal(t, "https://shop-1.netlify.app", site.CanonicalURL())
}

func TestCreateSiteNameTaken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"code":422,"message":"Validation failed","errors":{"subdomain":["must be unique"]}}`)
	})

	_, err := c.CreateSite(context.Background(), "shop-1", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNameTaken))

	var herr *Error
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, "name_taken", herr.Class())
	assert.Equal(t, "create_site", herr.Op)
}

func TestCreateSiteOtherValidationIsNotNameTaken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"message":"bad custom domain","errors":{"custom_domain":["invalid"]}}`)
	})

	_, err := c.CreateSite(context.Background(), "shop-1", "bad")
	assert.False(t, errors.Is(err, ErrNameTaken))
}

func TestDeploySendsZip(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites/s1/deploys", r.URL.Path)
		assert.Equal(t, "application/zip", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte("PK"), body)
		_, _ = io.WriteString(w, `{"id":"d1","state":"ready","deploy_ssl_url":"https://d1--shop-1.netlify.app","created_at":"2026-03-15T12:00:00Z"}`)
	})

	d, err := c.Deploy(context.Background(), "s1", []byte("PK"))
	require.NoError(t, err)
	assert.Equal(t, "d1", d.ID)
	assert.True(t, d.Ready())
	assert.Equal(t, 2026, d.CreatedAt.Year())
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		status int
		target error
		class  string
	}{
		{http.StatusUnauthorized, ErrAuth, "auth"},
		{http.StatusForbidden, ErrAuth, "auth"},
		{http.StatusBadGateway, ErrTransport, "upstream_error"},
		{http.StatusGatewayTimeout, ErrTransport, "upstream_timeout"},
		{http.StatusNotFound, ErrNotFound, "other"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := c.GetSite(context.Background(), "s1")
			assert.ErrorIs(t, err, tt.target)
			var herr *Error
			require.ErrorAs(t, err, &herr)
			assert.Equal(t, tt.class, herr.Class())
		})
	}
}

func TestDeadlineIsTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.GetSite(ctx, "s1")

	var herr *Error
	require.ErrorAs(t, err, &herr)
	assert.True(t, herr.Timeout)
	assert.Equal(t, "upstream_timeout", herr.Class())
}

func TestRenamePatchesName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"new-name"}`, string(body))
		_, _ = io.WriteString(w, `{"id":"s1","name":"new-name","ssl_url":"https://new-name.netlify.app"}`)
	})

	site, err := c.Rename(context.Background(), "s1", "new-name")
	require.NoError(t, err)
	assert.Equal(t, "new-name", site.Name)
}
