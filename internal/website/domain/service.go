package domain

import (
	"context"
	"errors"
	"time"

	contentdomain "github.com/smallbiznis/breakeven/internal/content/domain"
	"github.com/smallbiznis/breakeven/pkg/oid"
)

// Service publishes and maintains the authenticated owner's site. The owner
// is taken from the request context.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*PublishResult, error)
	Update(ctx context.Context, req UpdateRequest) (*PublishResult, error)
	Rename(ctx context.Context, req RenameRequest) (*SiteView, error)
	Get(ctx context.Context) (*SiteView, error)
	ListDeploys(ctx context.Context, limit int) ([]DeployView, error)

	// RenderPage renders the live page for a public visitor.
	RenderPage(ctx context.Context, siteID oid.ID) ([]byte, *PublishedSite, error)
}

type CreateRequest struct {
	WebsiteName  string      `json:"website_name"`
	BusinessType string      `json:"business_type"`
	ColorTheme   string      `json:"color_theme"`
	ContactInfo  ContactInfo `json:"contact_info"`
	Area         string      `json:"area"`
	Description  string      `json:"description"`
	LogoURL      string      `json:"logo_url"`
	CustomCSS    string      `json:"custom_css"`
	CustomDomain string      `json:"custom_domain"`
}

// UpdateRequest patches the profile. Nil fields are left unchanged.
type UpdateRequest struct {
	WebsiteName  *string      `json:"website_name"`
	BusinessType *string      `json:"business_type"`
	ColorTheme   *string      `json:"color_theme"`
	ContactInfo  *ContactInfo `json:"contact_info"`
	Area         *string      `json:"area"`
	Description  *string      `json:"description"`
	LogoURL      *string      `json:"logo_url"`
	CustomCSS    *string      `json:"custom_css"`
	CustomDomain *string      `json:"custom_domain"`
}

type RenameRequest struct {
	SiteName string `json:"site_name"`
}

type PublishResult struct {
	SiteID      oid.ID                `json:"site_id"`
	URL         string                `json:"url"`
	SiteName    string                `json:"site_name"`
	DeployID    string                `json:"deploy_id"`
	DeployState DeployState           `json:"deploy_state"`
	Content     contentdomain.Summary `json:"content"`
}

type SiteView struct {
	ID             oid.ID                 `json:"id"`
	SiteName       string                 `json:"site_name"`
	URL            string                 `json:"url"`
	AdminURL       string                 `json:"admin_url,omitempty"`
	DeployID       string                 `json:"deploy_id"`
	DeployState    DeployState            `json:"deploy_state"`
	Status         SiteStatus             `json:"status"`
	IsActive       bool                   `json:"is_active"`
	Profile        BusinessProfile        `json:"profile"`
	Content        contentdomain.Document `json:"content"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	LastDeployedAt *time.Time             `json:"last_deployed_at,omitempty"`
}

type DeployView struct {
	ID               oid.ID      `json:"id"`
	State            DeployState `json:"state"`
	ErrorClass       string      `json:"error_class,omitempty"`
	ErrorMessage     string      `json:"error_message,omitempty"`
	ProviderDeployID string      `json:"provider_deploy_id,omitempty"`
	ArchiveKey       string      `json:"archive_key,omitempty"`
	StartedAt        time.Time   `json:"started_at"`
	FinishedAt       time.Time   `json:"finished_at"`
}

var (
	ErrInvalidOwner        = errors.New("invalid_owner")
	ErrInvalidWebsiteName  = errors.New("invalid_website_name")
	ErrInvalidBusinessType = errors.New("invalid_business_type")
	ErrInvalidColorTheme   = errors.New("invalid_color_theme")
	ErrInvalidContactInfo  = errors.New("invalid_contact_info")
	ErrInvalidArea         = errors.New("invalid_area")
	ErrInvalidSiteName     = errors.New("invalid_site_name")
	ErrInvalidLogoURL      = errors.New("invalid_logo_url")

	ErrSiteExists        = errors.New("site_exists")
	ErrPublishInProgress = errors.New("publish_in_progress")
	ErrNameTaken         = errors.New("name_taken")
	ErrNotFound          = errors.New("site_not_found")
	ErrSiteInactive      = errors.New("site_inactive")

	ErrUpstream        = errors.New("upstream_error")
	ErrUpstreamTimeout = errors.New("upstream_timeout")
	ErrUpstreamAuth    = errors.New("upstream_auth")
)
