package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/breakeven/internal/observability/tracing"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 30 * time.Second

	peerName = "hosting"
)

type Config struct {
	APIKey  string
	BaseURL string
}

// NetlifyClient speaks the Netlify sites API. It holds no per-site state.
type NetlifyClient struct {
	cfg    Config
	client *http.Client
}

func NewNetlifyClient(cfg Config, client *http.Client) *NetlifyClient {
	if client == nil {
		client = &http.Client{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &NetlifyClient{cfg: cfg, client: client}
}

type createSiteRequest struct {
	Name         string `json:"name"`
	CustomDomain string `json:"custom_domain,omitempty"`
}

func (c *NetlifyClient) CreateSite(ctx context.Context, name, customDomain string) (Site, error) {
	body, err := json.Marshal(createSiteRequest{Name: name, CustomDomain: customDomain})
	if err != nil {
		return Site{}, err
	}
	var site Site
	err = c.do(ctx, "create_site", writeTimeout, http.MethodPost, "/sites", "application/json", body, &site)
	return site, err
}

func (c *NetlifyClient) Deploy(ctx context.Context, siteID string, archive []byte) (Deploy, error) {
	var deploy Deploy
	path := "/sites/" + url.PathEscape(siteID) + "/deploys"
	err := c.do(ctx, "deploy", writeTimeout, http.MethodPost, path, "application/zip", archive, &deploy)
	return deploy, err
}

func (c *NetlifyClient) GetSite(ctx context.Context, siteID string) (Site, error) {
	var site Site
	err := c.do(ctx, "get_site", readTimeout, http.MethodGet, "/sites/"+url.PathEscape(siteID), "", nil, &site)
	return site, err
}

func (c *NetlifyClient) Rename(ctx context.Context, siteID, newName string) (Site, error) {
	body, err := json.Marshal(map[string]string{"name": newName})
	if err != nil {
		return Site{}, err
	}
	var site Site
	err = c.do(ctx, "rename", readTimeout, http.MethodPatch, "/sites/"+url.PathEscape(siteID), "application/json", body, &site)
	return site, err
}

func (c *NetlifyClient) do(ctx context.Context, op string, timeout time.Duration, method, path, contentType string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindOther, Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := tracing.Do(ctx, c.client, peerName, op, req)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Status: resp.StatusCode, Timeout: isTimeout(err), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(op, resp.StatusCode, payload)
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &Error{Kind: KindOther, Op: op, Status: resp.StatusCode, Message: "decode response", Err: err}
	}
	return nil
}

type errorBody struct {
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

func classifyStatus(op string, status int, payload []byte) error {
	var body errorBody
	_ = json.Unmarshal(payload, &body)
	msg := body.Message
	if msg == "" {
		msg = strings.TrimSpace(string(payload))
		if len(msg) > 200 {
			msg = msg[:200]
		}
	}

	e := &Error{Kind: KindOther, Op: op, Status: status, Message: msg}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindAuth
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusUnprocessableEntity && subdomainTaken(body.Errors):
		e.Kind = KindNameTaken
	case status == http.StatusGatewayTimeout || status == http.StatusRequestTimeout:
		e.Kind = KindTransport
		e.Timeout = true
	case status >= 500:
		e.Kind = KindTransport
	}
	return e
}

func subdomainTaken(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	_, ok := fields["subdomain"]
	return ok
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

var _ Provider = (*NetlifyClient)(nil)
