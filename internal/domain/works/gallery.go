package works

import (
	"strings"
	"time"

	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/media"
	"gallery-api/internal/domain/users"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxGalleryNameLen        = 100
	MaxGalleryDescriptionLen = 1000
)

type Gallery struct {
	ID          string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null;uniqueIndex:idx_galleries_name" json:"name"`
	Slug        string `gorm:"size:120;not null;uniqueIndex:idx_galleries_slug" json:"slug"`
	Description string `gorm:"size:1000" json:"description"`

	CuratorID *uint       `gorm:"index" json:"curator_id,omitempty"`
	Curator   *users.User `gorm:"foreignKey:CuratorID;constraint:OnDelete:SET NULL" json:"-"`

	FeaturedImage media.ImageRef `gorm:"embedded;embeddedPrefix:featured_image_" json:"featured_image"`

	// Items is the ordered artwork collection.
	Items []GalleryArtwork `gorm:"foreignKey:GalleryID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (g *Gallery) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

type GalleryArtwork struct {
	GalleryID string   `gorm:"type:varchar(36);primaryKey"`
	ArtworkID string   `gorm:"type:varchar(36);primaryKey;index"`
	Artwork   *Artwork `gorm:"foreignKey:ArtworkID;constraint:OnDelete:CASCADE"`
	Position  int      `gorm:"not null;default:0"`
}

// GalleryRef resolves an optional gallery reference from a request. A blank
// id means no gallery and resolves to nil; any other id must exist.
func GalleryRef(tx *gorm.DB, id *string) (*string, error) {
	if id == nil {
		return nil, nil
	}
	ref := strings.TrimSpace(*id)
	if ref == "" {
		return nil, nil
	}
	var n int64
	if err := tx.Model(&Gallery{}).Where("id = ?", ref).Count(&n).Error; err != nil {
		return nil, apperr.FromDB(err, "")
	}
	if n == 0 {
		return nil, apperr.New(apperr.InvalidInput, "No gallery found with that ID")
	}
	return &ref, nil
}
