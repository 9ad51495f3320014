package works

import (
	"time"

	"gallery-api/internal/domain/users"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxCommentLen = 500

type Comment struct {
	ID        string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	Text      string      `gorm:"size:500;not null" json:"text"`
	ArtworkID string      `gorm:"type:varchar(36);not null;index" json:"artwork_id"`
	Artwork   *Artwork    `gorm:"foreignKey:ArtworkID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint        `gorm:"not null;index" json:"user_id"`
	User      *users.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
