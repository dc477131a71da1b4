package domain

import (
	"time"

	contentdomain "github.com/smallbiznis/breakeven/internal/content/domain"
	"github.com/smallbiznis/breakeven/pkg/oid"
	"gorm.io/datatypes"
)

type SiteStatus string

const (
	StatusProvisioned SiteStatus = "provisioned"
	StatusDeployed    SiteStatus = "deployed"
	StatusRedeploying SiteStatus = "redeploying"
)

type DeployState string

const (
	DeployPending DeployState = "pending"
	DeployReady   DeployState = "ready"
	DeployFailed  DeployState = "failed"
)

// ContactInfo is the public contact block shown on the site.
type ContactInfo struct {
	Phone   string `json:"phone,omitempty" gorm:"column:contact_phone;type:text"`
	Email   string `json:"email,omitempty" gorm:"column:contact_email;type:text"`
	Address string `json:"address,omitempty" gorm:"column:contact_address;type:text"`
	Hours   string `json:"hours,omitempty" gorm:"column:contact_hours;type:text"`
}

func (c ContactInfo) Empty() bool {
	return c.Phone == "" && c.Email == "" && c.Address == ""
}

// BusinessProfile is stored inline on the site row.
type BusinessProfile struct {
	WebsiteName  string      `json:"website_name" gorm:"column:website_name;type:text;not null"`
	BusinessType string      `json:"business_type" gorm:"column:business_type;type:text;not null"`
	Area         string      `json:"area" gorm:"column:area;type:text"`
	Description  string      `json:"description,omitempty" gorm:"column:description;type:text"`
	ColorTheme   string      `json:"color_theme" gorm:"column:color_theme;type:text;not null"`
	ContactInfo  ContactInfo `json:"contact_info" gorm:"embedded"`
	LogoURL      string      `json:"logo_url,omitempty" gorm:"column:logo_url;type:text"`
	CustomCSS    string      `json:"custom_css,omitempty" gorm:"column:custom_css;type:text"`
	CustomDomain string      `json:"custom_domain,omitempty" gorm:"column:custom_domain;type:text"`
}

// ContentRecord is an immutable generated document.
type ContentRecord struct {
	ID               oid.ID                                     `gorm:"primaryKey"`
	OwnerID          oid.ID                                     `gorm:"not null;index"`
	Document         datatypes.JSONType[contentdomain.Document] `gorm:"not null"`
	GenerationMethod string                                     `gorm:"type:text;not null"`
	CreatedAt        time.Time                                  `gorm:"not null"`
}

func (ContentRecord) TableName() string { return "content_documents" }

type PublishedSite struct {
	ID             oid.ID          `gorm:"primaryKey"`
	OwnerID        oid.ID          `gorm:"not null;uniqueIndex"`
	SiteName       string          `gorm:"type:text;not null"`
	ProviderSiteID string          `gorm:"type:text;not null"`
	URL            string          `gorm:"column:url;type:text;not null"`
	AdminURL       string          `gorm:"type:text"`
	DeployID       string          `gorm:"type:text"`
	DeployState    DeployState     `gorm:"type:text;not null"`
	ContentID      oid.ID          `gorm:"not null"`
	Status         SiteStatus      `gorm:"type:text;not null"`
	IsActive       bool            `gorm:"not null"`
	Profile        BusinessProfile `gorm:"embedded"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
	LastDeployedAt *time.Time
}

func (PublishedSite) TableName() string { return "published_sites" }

// DeployAttempt is append-only history of every deploy.
type DeployAttempt struct {
	ID               oid.ID      `gorm:"primaryKey"`
	SiteID           oid.ID      `gorm:"not null;index"`
	OwnerID          oid.ID      `gorm:"not null;index"`
	ProviderSiteID   string      `gorm:"type:text"`
	StartedAt        time.Time   `gorm:"not null"`
	FinishedAt       time.Time   `gorm:"not null"`
	State            DeployState `gorm:"type:text;not null"`
	ErrorClass       string      `gorm:"type:text"`
	ErrorMessage     string      `gorm:"type:text"`
	ProviderDeployID string      `gorm:"type:text"`
	ArchiveKey       string      `gorm:"type:text"`
}

func (DeployAttempt) TableName() string { return "deploy_attempts" }
