package users

import (
	"time"

	"gallery-api/internal/domain/media"

	"gorm.io/gorm"
)

const (
	RoleViewer = "viewer"
	RoleArtist = "artist"
	RoleAdmin  = "admin"

	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Name         string  `gorm:"size:100;not null" json:"name"`
	Email        string  `gorm:"size:255;not null;uniqueIndex:idx_users_email" json:"email"`
	Password     *string `json:"-"`
	AuthProvider string  `gorm:"type:varchar(20);not null;default:'local'" json:"auth_provider"`
	GoogleSub    *string `gorm:"uniqueIndex:idx_users_google_sub" json:"-"`
	Role         string  `gorm:"type:varchar(20);not null;default:'viewer';index" json:"role"`

	Bio     string         `gorm:"size:500" json:"bio"`
	Picture media.ImageRef `gorm:"embedded;embeddedPrefix:picture_" json:"picture"`

	// Active=false is the soft-deleted state.
	Active bool `gorm:"not null;default:true;index" json:"-"`

	PasswordChangedAt *time.Time `gorm:"column:password_changed_at" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChangedPasswordAfter reports whether the password was changed after a
// token issued at iat, which invalidates that token.
func (u User) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > iat.Unix()
}

func (u User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}

// ActiveOnly restricts a users query to accounts that are not deactivated.
func ActiveOnly(db *gorm.DB) *gorm.DB {
	return db.Where("users.active = ?", true)
}
