package artworks

import (
	"time"

	"gallery-api/internal/domain/media"
	"gallery-api/internal/domain/money"
	"gallery-api/internal/domain/works"
)

// ---------- requests

type DimensionsInput struct {
	Height float64 `json:"height" binding:"gte=0"`
	Width  float64 `json:"width" binding:"gte=0"`
	Depth  float64 `json:"depth" binding:"gte=0"`
	Unit   string  `json:"unit" binding:"omitempty,oneof=cm in px"`
}

type CreateArtworkRequest struct {
	Title       string           `json:"title" binding:"required,max=100"`
	Description string           `json:"description" binding:"max=1000"`
	Year        *int             `json:"year"`
	Medium      string           `json:"medium" binding:"max=50"`
	Tags        []string         `json:"tags"`
	Image       *media.ImageRef  `json:"image"`
	Price       float64          `json:"price" binding:"gte=0"`
	Dimensions  *DimensionsInput `json:"dimensions"`
	Status      string           `json:"status" binding:"omitempty,oneof=available not_for_sale"`
	GalleryID   *string          `json:"gallery_id" binding:"omitempty,uuid"`
}

// UpdateArtworkRequest holds the editable fields. The artist is fixed at
// creation and has no field here.
type UpdateArtworkRequest struct {
	Title       *string          `json:"title" binding:"omitempty,min=1,max=100"`
	Description *string          `json:"description" binding:"omitempty,max=1000"`
	Year        *int             `json:"year"`
	Medium      *string          `json:"medium" binding:"omitempty,max=50"`
	Tags        *[]string        `json:"tags"`
	Price       *float64         `json:"price" binding:"omitempty,gte=0"`
	Dimensions  *DimensionsInput `json:"dimensions"`
	Status      *string          `json:"status"`
	GalleryID   *string          `json:"gallery_id" binding:"omitempty,uuid"`
}

// ---------- responses

type ArtistDTO struct {
	ID      uint           `json:"id"`
	Name    string         `json:"name"`
	Bio     string         `json:"bio,omitempty"`
	Picture media.ImageRef `json:"picture"`
}

type GallerySummaryDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

type ArtworkDTO struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	ArtistID     uint               `json:"artist_id"`
	Artist       *ArtistDTO         `json:"artist,omitempty"`
	Year         *int               `json:"year,omitempty"`
	Medium       string             `json:"medium,omitempty"`
	Tags         []string           `json:"tags"`
	Image        media.ImageRef     `json:"image"`
	Price        float64            `json:"price"`
	Dimensions   works.Dimensions   `json:"dimensions"`
	Status       string             `json:"status"`
	LikesCount   int                `json:"likes_count"`
	GalleryID    *string            `json:"gallery_id,omitempty"`
	Gallery      *GallerySummaryDTO `json:"gallery,omitempty"`
	ExhibitionID *string            `json:"exhibition_id,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func ToArtworkDTO(a works.Artwork) ArtworkDTO {
	dto := ArtworkDTO{
		ID:           a.ID,
		Title:        a.Title,
		Description:  a.Description,
		ArtistID:     a.ArtistID,
		Year:         a.Year,
		Medium:       a.Medium,
		Tags:         a.TagNames(),
		Image:        a.Image,
		Price:        money.FromCents(a.PriceCents),
		Dimensions:   a.Dimensions,
		Status:       a.Status,
		LikesCount:   a.LikesCount,
		GalleryID:    a.GalleryID,
		ExhibitionID: a.ExhibitionID,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if a.Artist != nil {
		dto.Artist = &ArtistDTO{
			ID:      a.Artist.ID,
			Name:    a.Artist.Name,
			Bio:     a.Artist.Bio,
			Picture: a.Artist.Picture,
		}
	}
	if a.Gallery != nil {
		dto.Gallery = &GallerySummaryDTO{
			ID:          a.Gallery.ID,
			Name:        a.Gallery.Name,
			Slug:        a.Gallery.Slug,
			Description: a.Gallery.Description,
		}
	}
	return dto
}

func toArtworkDTOs(list []works.Artwork) []ArtworkDTO {
	out := make([]ArtworkDTO, 0, len(list))
	for _, a := range list {
		out = append(out, ToArtworkDTO(a))
	}
	return out
}
