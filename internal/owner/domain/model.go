package domain

import (
	"time"

	"github.com/smallbiznis/breakeven/pkg/oid"
)

// Owner is a business account. Owners are deactivated, never deleted.
type Owner struct {
	ID           oid.ID    `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"type:text;not null;uniqueIndex"`
	DisplayName  string    `json:"display_name" gorm:"type:text"`
	BusinessName string    `json:"business_name" gorm:"type:text"`
	Phone        string    `json:"phone,omitempty" gorm:"type:text"`
	PasswordHash string    `json:"-" gorm:"type:text"`
	IsActive     bool      `json:"is_active" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null"`
}

func (Owner) TableName() string { return "owners" }
