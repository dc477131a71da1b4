package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/breakeven/internal/auth/password"
	"github.com/smallbiznis/breakeven/internal/clock"
	ownerdomain "github.com/smallbiznis/breakeven/internal/owner/domain"
	"github.com/smallbiznis/breakeven/pkg/oid"
	"gorm.io/gorm"
)

// EnsureOwner creates an active owner for email unless one exists. The
// password of an existing owner is left untouched.
func EnsureOwner(ctx context.Context, db *gorm.DB, clk clock.Clock, email, pw string) (bool, error) {
	if db == nil {
		return false, errors.New("seed database handle is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || pw == "" {
		return false, errors.New("seed owner email and password are required")
	}

	created := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner ownerdomain.Owner
		err := tx.Where("email = ?", email).First(&owner).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(pw)
		if err != nil {
			return err
		}
		now := clk.Now().UTC()
		owner = ownerdomain.Owner{
			ID:           oid.New(),
			Email:        email,
			DisplayName:  email,
			PasswordHash: hashed,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}
