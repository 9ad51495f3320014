package users

import (
	"time"

	"gallery-api/internal/domain/media"
	"gallery-api/internal/domain/money"
	"gallery-api/internal/domain/users"
	"gallery-api/internal/domain/works"
)

/* ---------- USER ---------- */

type UserDTO struct {
	ID           uint           `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	Bio          string         `json:"bio,omitempty"`
	Picture      media.ImageRef `json:"picture"`
	AuthProvider string         `json:"auth_provider"`
	CreatedAt    time.Time      `json:"created_at"`
}

// AdminUserDTO adds the account state only admins see.
type AdminUserDTO struct {
	UserDTO
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updated_at"`
}

/* ---------- PROFILE ---------- */

type ArtworkSummaryDTO struct {
	ID     string         `json:"id"`
	Title  string         `json:"title"`
	Image  media.ImageRef `json:"image"`
	Price  float64        `json:"price"`
	Status string         `json:"status"`
}

type ProfileDTO struct {
	User      UserDTO             `json:"user"`
	Artworks  []ArtworkSummaryDTO `json:"artworks"`
	Favorites []ArtworkSummaryDTO `json:"favorites"`
}

func ToUserDTO(u users.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Bio:          u.Bio,
		Picture:      u.Picture,
		AuthProvider: u.AuthProvider,
		CreatedAt:    u.CreatedAt,
	}
}

func toAdminUserDTO(u users.User) AdminUserDTO {
	return AdminUserDTO{UserDTO: ToUserDTO(u), Active: u.Active, UpdatedAt: u.UpdatedAt}
}

func toSummaries(list []works.Artwork) []ArtworkSummaryDTO {
	out := make([]ArtworkSummaryDTO, 0, len(list))
	for _, a := range list {
		out = append(out, ArtworkSummaryDTO{
			ID:     a.ID,
			Title:  a.Title,
			Image:  a.Image,
			Price:  money.FromCents(a.PriceCents),
			Status: a.Status,
		})
	}
	return out
}
