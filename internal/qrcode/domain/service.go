package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/breakeven/pkg/oid"
)

// Binder is the narrow view the publisher needs after a successful deploy.
type Binder interface {
	BindPublished(ctx context.Context, ownerID oid.ID, url string) error
}

// Service manages the authenticated owner's QR binding. Scan is public and
// takes the owner explicitly.
type Service interface {
	Binder

	GetBinding(ctx context.Context) (*BindingView, error)
	SetTargetURL(ctx context.Context, url string) (*BindingView, error)
	ClearOverride(ctx context.Context) (*BindingView, error)
	ResetCounters(ctx context.Context) (*BindingView, error)
	Scan(ctx context.Context, req ScanRequest) (*ScanResult, error)
	Generate(ctx context.Context, req ImageRequest) (*Image, error)
	Poster(ctx context.Context) ([]byte, error)
}

type SiteRef struct {
	SiteID      oid.ID `json:"site_id"`
	SiteName    string `json:"site_name"`
	URL         string `json:"url"`
	DeployState string `json:"deploy_state"`
	IsActive    bool   `json:"is_active"`
}

type BindingView struct {
	TargetURL       string     `json:"target_url"`
	Override        bool       `json:"override"`
	TotalScans      int64      `json:"total_scans"`
	ScansToday      int64      `json:"scans_today"`
	LastScanAt      *time.Time `json:"last_scan_at,omitempty"`
	GenerationCount int64      `json:"generation_count"`
	Sites           []SiteRef  `json:"sites"`
}

type ScanRequest struct {
	OwnerID   string `json:"user_id"`
	Location  string `json:"location"`
	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

type ScanResult struct {
	TargetURL  string `json:"target_url"`
	TotalScans int64  `json:"total_scans"`
	ScansToday int64  `json:"scans_today"`
}

type ImageRequest struct {
	Type   string `json:"type"`
	Size   int    `json:"size"`
	Format string `json:"format"`
	Color  string `json:"color"`
	Logo   string `json:"logo"`
}

type Image struct {
	Body        []byte
	ContentType string
	Filename    string
}

var (
	ErrInvalidOwner     = errors.New("invalid_owner")
	ErrInvalidTargetURL = errors.New("invalid_target_url")
	ErrInvalidImageType = errors.New("invalid_qr_type")
	ErrInvalidFormat    = errors.New("invalid_qr_format")
	ErrInvalidColor     = errors.New("invalid_qr_color")
	ErrNoTarget         = errors.New("qr_target_missing")
	ErrNotFound         = errors.New("qr_binding_not_found")
)
