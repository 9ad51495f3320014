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
	StatusAvailable   = "available"
	StatusSold        = "sold"
	StatusNotForSale  = "not_for_sale"
	UnitCentimeters   = "cm"
	UnitInches        = "in"
	UnitPixels        = "px"
	MaxTitleLen       = 100
	MaxDescriptionLen = 1000
	MaxMediumLen      = 50
	MaxTagLen         = 30
)

var (
	Statuses = []string{StatusAvailable, StatusSold, StatusNotForSale}
	Units    = []string{UnitCentimeters, UnitInches, UnitPixels}
)

type Dimensions struct {
	Height float64 `json:"height,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Depth  float64 `json:"depth,omitempty"`
	Unit   string  `gorm:"type:varchar(4);default:'cm'" json:"unit,omitempty"`
}

type Artwork struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	Title       string `gorm:"size:100;not null" json:"title"`
	Description string `gorm:"size:1000" json:"description"`

	// ArtistID is fixed at creation. The artist's owned list is derived
	// from this column, never stored on the user.
	ArtistID uint        `gorm:"not null;index" json:"artist_id"`
	Artist   *users.User `gorm:"foreignKey:ArtistID;constraint:OnDelete:CASCADE" json:"-"`

	Year   *int   `json:"year,omitempty"`
	Medium string `gorm:"size:50" json:"medium,omitempty"`

	Tags []ArtworkTag `gorm:"foreignKey:ArtworkID;constraint:OnDelete:CASCADE" json:"-"`

	Image      media.ImageRef `gorm:"embedded;embeddedPrefix:image_" json:"image"`
	PriceCents int64          `gorm:"not null;default:0;index" json:"price_cents"`
	Dimensions Dimensions     `gorm:"embedded;embeddedPrefix:dim_" json:"dimensions"`

	Status     string `gorm:"type:varchar(20);not null;default:'available';index" json:"status"`
	LikesCount int    `gorm:"not null;default:0" json:"likes_count"`

	GalleryID    *string     `gorm:"type:varchar(36);index" json:"gallery_id,omitempty"`
	Gallery      *Gallery    `gorm:"foreignKey:GalleryID;constraint:OnDelete:SET NULL" json:"-"`
	ExhibitionID *string     `gorm:"type:varchar(36);index" json:"exhibition_id,omitempty"`
	Exhibition   *Exhibition `gorm:"foreignKey:ExhibitionID;constraint:OnDelete:SET NULL" json:"-"`

	// SoldOrderID is the order whose payment sold this artwork.
	SoldOrderID *string `gorm:"type:varchar(36)" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Artwork) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

func (a Artwork) TagNames() []string {
	out := make([]string, 0, len(a.Tags))
	for _, t := range a.Tags {
		out = append(out, t.Tag)
	}
	return out
}

func (a Artwork) IsSold() bool { return a.Status == StatusSold }

// ArtworkTag is one lowercased tag of an artwork.
type ArtworkTag struct {
	ArtworkID string `gorm:"type:varchar(36);primaryKey"`
	Tag       string `gorm:"size:30;primaryKey;index"`
}

func NormalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// NormalizeTags lowercases, trims and deduplicates tags, preserving order.
func NormalizeTags(in []string) ([]string, error) {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		t := NormalizeTag(raw)
		if t == "" || seen[t] {
			continue
		}
		if len(t) > MaxTagLen {
			return nil, apperr.Newf(apperr.InvalidInput, "tag %q is longer than %d characters", t, MaxTagLen)
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

func ValidStatus(s string) bool { return contains(Statuses, s) }

func ValidUnit(s string) bool { return contains(Units, s) }

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
