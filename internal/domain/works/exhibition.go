package works

import (
	"time"

	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/media"
	"gallery-api/internal/domain/users"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ExhibitionUpcoming = "upcoming"
	ExhibitionOngoing  = "ongoing"
	ExhibitionPast     = "past"

	MaxExhibitionTitleLen       = 150
	MaxExhibitionDescriptionLen = 2000
)

var ExhibitionStatuses = []string{ExhibitionUpcoming, ExhibitionOngoing, ExhibitionPast}

type Exhibition struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       string    `gorm:"size:150;not null;uniqueIndex:idx_exhibitions_title" json:"title"`
	Description string    `gorm:"size:2000;not null" json:"description"`
	StartDate   time.Time `gorm:"not null;index" json:"start_date"`
	EndDate     time.Time `gorm:"not null;index" json:"end_date"`

	GalleryID *string  `gorm:"type:varchar(36);index" json:"gallery_id,omitempty"`
	Gallery   *Gallery `gorm:"foreignKey:GalleryID;constraint:OnDelete:SET NULL" json:"-"`

	Status          string         `gorm:"type:varchar(20);not null;default:'upcoming';index" json:"status"`
	Theme           string         `gorm:"size:100" json:"theme,omitempty"`
	VirtualTourLink string         `gorm:"size:2048" json:"virtual_tour_link,omitempty"`
	FeaturedImage   media.ImageRef `gorm:"embedded;embeddedPrefix:featured_image_" json:"featured_image"`

	Items    []ExhibitionArtwork `gorm:"foreignKey:ExhibitionID;constraint:OnDelete:CASCADE" json:"-"`
	Curators []ExhibitionCurator `gorm:"foreignKey:ExhibitionID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Exhibition) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

type ExhibitionArtwork struct {
	ExhibitionID string   `gorm:"type:varchar(36);primaryKey"`
	ArtworkID    string   `gorm:"type:varchar(36);primaryKey;index"`
	Artwork      *Artwork `gorm:"foreignKey:ArtworkID;constraint:OnDelete:CASCADE"`
	Position     int      `gorm:"not null;default:0"`
}

type ExhibitionCurator struct {
	ExhibitionID string      `gorm:"type:varchar(36);primaryKey"`
	UserID       uint        `gorm:"primaryKey;autoIncrement:false;index"`
	User         *users.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// StatusAt derives the exhibition status from its dates.
func StatusAt(start, end, now time.Time) string {
	switch {
	case now.Before(start):
		return ExhibitionUpcoming
	case now.After(end):
		return ExhibitionPast
	default:
		return ExhibitionOngoing
	}
}

// ValidateDates enforces end > start.
func ValidateDates(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.New(apperr.InvalidInput, "start_date and end_date are required")
	}
	if !end.After(start) {
		return apperr.New(apperr.InvalidInput, "End date must be after start date")
	}
	return nil
}
