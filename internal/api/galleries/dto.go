package galleries

import (
	"time"

	"gallery-api/internal/domain/media"
	"gallery-api/internal/domain/money"
	"gallery-api/internal/domain/users"
	"gallery-api/internal/domain/works"
)

// ---------- requests

type CreateGalleryRequest struct {
	Name          string          `json:"name" binding:"required,max=100"`
	Description   string          `json:"description" binding:"max=1000"`
	CuratorID     *uint           `json:"curator_id"`
	FeaturedImage *media.ImageRef `json:"featured_image"`
}

type UpdateGalleryRequest struct {
	Name          *string         `json:"name" binding:"omitempty,min=1,max=100"`
	Description   *string         `json:"description" binding:"omitempty,max=1000"`
	CuratorID     *uint           `json:"curator_id"`
	FeaturedImage *media.ImageRef `json:"featured_image"`
}

type SetArtworksRequest struct {
	ArtworkIDs []string `json:"artwork_ids" binding:"dive,uuid"`
}

// Dates accept RFC 3339 timestamps or plain YYYY-MM-DD.
type CreateExhibitionRequest struct {
	Title            string          `json:"title" binding:"required,max=150"`
	Description      string          `json:"description" binding:"required,max=2000"`
	StartDate        string          `json:"start_date" binding:"required"`
	EndDate          string          `json:"end_date" binding:"required"`
	GalleryID        *string         `json:"gallery_id" binding:"omitempty,uuid"`
	Status           string          `json:"status" binding:"omitempty,oneof=upcoming ongoing past"`
	Theme            string          `json:"theme" binding:"max=100"`
	VirtualTourLink  string          `json:"virtual_tour_link" binding:"omitempty,url"`
	FeaturedImage    *media.ImageRef `json:"featured_image"`
	FeaturedArtworks []string        `json:"featured_artworks" binding:"dive,uuid"`
	Curators         []uint          `json:"curators"`
}

type UpdateExhibitionRequest struct {
	Title            *string         `json:"title" binding:"omitempty,min=1,max=150"`
	Description      *string         `json:"description" binding:"omitempty,min=1,max=2000"`
	StartDate        *string         `json:"start_date"`
	EndDate          *string         `json:"end_date"`
	GalleryID        *string         `json:"gallery_id" binding:"omitempty,uuid"`
	Status           *string         `json:"status" binding:"omitempty,oneof=upcoming ongoing past"`
	Theme            *string         `json:"theme" binding:"omitempty,max=100"`
	VirtualTourLink  *string         `json:"virtual_tour_link" binding:"omitempty,url"`
	FeaturedImage    *media.ImageRef `json:"featured_image"`
	FeaturedArtworks *[]string       `json:"featured_artworks"`
	Curators         *[]uint         `json:"curators"`
}

// ---------- responses

type PersonDTO struct {
	ID      uint           `json:"id"`
	Name    string         `json:"name"`
	Picture media.ImageRef `json:"picture"`
}

type ArtworkItemDTO struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	ArtistID uint           `json:"artist_id"`
	Image    media.ImageRef `json:"image"`
	Price    float64        `json:"price"`
	Status   string         `json:"status"`
	Position int            `json:"position"`
}

type GalleryDTO struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Description   string           `json:"description"`
	CuratorID     *uint            `json:"curator_id,omitempty"`
	Curator       *PersonDTO       `json:"curator,omitempty"`
	FeaturedImage media.ImageRef   `json:"featured_image"`
	Artworks      []ArtworkItemDTO `json:"artworks,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type ExhibitionDTO struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	StartDate        time.Time        `json:"start_date"`
	EndDate          time.Time        `json:"end_date"`
	GalleryID        *string          `json:"gallery_id,omitempty"`
	Status           string           `json:"status"`
	Theme            string           `json:"theme,omitempty"`
	VirtualTourLink  string           `json:"virtual_tour_link,omitempty"`
	FeaturedImage    media.ImageRef   `json:"featured_image"`
	FeaturedArtworks []ArtworkItemDTO `json:"featured_artworks,omitempty"`
	Curators         []PersonDTO      `json:"curators,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func toPerson(u *users.User) *PersonDTO {
	if u == nil {
		return nil
	}
	return &PersonDTO{ID: u.ID, Name: u.Name, Picture: u.Picture}
}

func toItem(a *works.Artwork, position int) (ArtworkItemDTO, bool) {
	if a == nil {
		return ArtworkItemDTO{}, false
	}
	return ArtworkItemDTO{
		ID:       a.ID,
		Title:    a.Title,
		ArtistID: a.ArtistID,
		Image:    a.Image,
		Price:    money.FromCents(a.PriceCents),
		Status:   a.Status,
		Position: position,
	}, true
}

func toGalleryDTO(g works.Gallery) GalleryDTO {
	dto := GalleryDTO{
		ID:            g.ID,
		Name:          g.Name,
		Slug:          g.Slug,
		Description:   g.Description,
		CuratorID:     g.CuratorID,
		Curator:       toPerson(g.Curator),
		FeaturedImage: g.FeaturedImage,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
	for _, it := range g.Items {
		if item, ok := toItem(it.Artwork, it.Position); ok {
			dto.Artworks = append(dto.Artworks, item)
		}
	}
	return dto
}

func toExhibitionDTO(e works.Exhibition) ExhibitionDTO {
	dto := ExhibitionDTO{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		StartDate:       e.StartDate,
		EndDate:         e.EndDate,
		GalleryID:       e.GalleryID,
		Status:          e.Status,
		Theme:           e.Theme,
		VirtualTourLink: e.VirtualTourLink,
		FeaturedImage:   e.FeaturedImage,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	for _, it := range e.Items {
		if item, ok := toItem(it.Artwork, it.Position); ok {
			dto.FeaturedArtworks = append(dto.FeaturedArtworks, item)
		}
	}
	for _, c := range e.Curators {
		if p := toPerson(c.User); p != nil {
			dto.Curators = append(dto.Curators, *p)
		}
	}
	return dto
}
