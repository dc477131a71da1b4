package domain

import (
	"time"

	"github.com/smallbiznis/breakeven/pkg/oid"
)

// DateLayout is the UTC calendar day stored on the binding.
const DateLayout = "2006-01-02"

// Binding points an owner's printed QR code at a URL and counts its scans.
type Binding struct {
	ID              oid.ID     `gorm:"primaryKey" json:"-"`
	OwnerID         oid.ID     `gorm:"not null;uniqueIndex" json:"owner_id"`
	TargetURL       string     `gorm:"type:text" json:"target_url"`
	Override        bool       `gorm:"not null;default:false" json:"override"`
	TotalScans      int64      `gorm:"not null;default:0" json:"total_scans"`
	ScansToday      int64      `gorm:"not null;default:0" json:"scans_today"`
	LastScanAt      *time.Time `json:"last_scan_at,omitempty"`
	LastScanDate    string     `gorm:"type:text" json:"last_scan_date,omitempty"`
	GenerationCount int64      `gorm:"not null;default:0" json:"generation_count"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
}

func (Binding) TableName() string { return "qr_bindings" }

// TodayScans reports scans_today only when the last scan happened on today's
// UTC date.
func (b Binding) TodayScans(now time.Time) int64 {
	if b.LastScanDate != now.UTC().Format(DateLayout) {
		return 0
	}
	return b.ScansToday
}

type Scan struct {
	ID        oid.ID    `gorm:"primaryKey"`
	OwnerID   oid.ID    `gorm:"not null;index"`
	ScannedAt time.Time `gorm:"not null"`
	UserAgent string    `gorm:"type:text"`
	IPAddress string    `gorm:"type:text"`
	Location  string    `gorm:"type:text"`
}

func (Scan) TableName() string { return "qr_scans" }
