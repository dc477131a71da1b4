package hosting

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Site struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	URL             string  `json:"url"`
	SSLURL          string  `json:"ssl_url"`
	AdminURL        string  `json:"admin_url"`
	DeployID        string  `json:"deploy_id"`
	PublishedDeploy *Deploy `json:"published_deploy,omitempty"`
}

// CanonicalURL prefers the https address.
func (s Site) CanonicalURL() string {
	if s.SSLURL != "" {
		return s.SSLURL
	}
	return s.URL
}

type Deploy struct {
	ID           string    `json:"id"`
	State        string    `json:"state"`
	DeploySSLURL string    `json:"deploy_ssl_url"`
	CreatedAt    time.Time `json:"created_at"`
}

// Ready reports whether the provider considers the deploy live.
func (d Deploy) Ready() bool {
	return d.State == "" || d.State == StateReady
}

const StateReady = "ready"

type Provider interface {
	CreateSite(ctx context.Context, name, customDomain string) (Site, error)
	Deploy(ctx context.Context, siteID string, archive []byte) (Deploy, error)
	GetSite(ctx context.Context, siteID string) (Site, error)
	Rename(ctx context.Context, siteID, newName string) (Site, error)
}

type Kind string

const (
	KindNameTaken Kind = "name_taken"
	KindAuth      Kind = "auth"
	KindTransport Kind = "transport"
	KindNotFound  Kind = "not_found"
	KindOther     Kind = "other"
)

var (
	ErrNameTaken     = errors.New("hosting: name taken")
	ErrAuth          = errors.New("hosting: unauthorized")
	ErrTransport     = errors.New("hosting: transport failure")
	ErrNotFound      = errors.New("hosting: not found")
	ErrNotConfigured = errors.New("hosting: provider not configured")
)

// Error describes a failed provider call.
type Error struct {
	Kind    Kind
	Status  int
	Op      string
	Timeout bool
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("hosting %s: %s (status %d): %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("hosting %s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNameTaken:
		return e.Kind == KindNameTaken
	case ErrAuth:
		return e.Kind == KindAuth
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrNotFound:
		return e.Kind == KindNotFound
	}
	return false
}

// Class is the low-cardinality label used by metrics.
func (e *Error) Class() string {
	if e.Timeout {
		return "upstream_timeout"
	}
	switch e.Kind {
	case KindNameTaken, KindAuth:
		return string(e.Kind)
	case KindTransport:
		return "upstream_error"
	}
	return "other"
}

// NoOpProvider rejects every call.
type NoOpProvider struct{}

func (NoOpProvider) CreateSite(context.Context, string, string) (Site, error) {
	return Site{}, ErrNotConfigured
}

func (NoOpProvider) Deploy(context.Context, string, []byte) (Deploy, error) {
	return Deploy{}, ErrNotConfigured
}

func (NoOpProvider) GetSite(context.Context, string) (Site, error) {
	return Site{}, ErrNotConfigured
}

func (NoOpProvider) Rename(context.Context, string, string) (Site, error) {
	return Site{}, ErrNotConfigured
}
