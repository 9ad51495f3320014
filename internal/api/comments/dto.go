package comments

import (
	"time"

	"gallery-api/internal/domain/media"
	"gallery-api/internal/domain/works"
)

type CommentRequest struct {
	Text string `json:"text" binding:"required,max=500"`
}

type AuthorDTO struct {
	ID      uint           `json:"id"`
	Name    string         `json:"name"`
	Picture media.ImageRef `json:"picture"`
}

type CommentDTO struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	ArtworkID string     `json:"artwork_id"`
	UserID    uint       `json:"user_id"`
	User      *AuthorDTO `json:"user,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toCommentDTO(c works.Comment) CommentDTO {
	dto := CommentDTO{
		ID:        c.ID,
		Text:      c.Text,
		ArtworkID: c.ArtworkID,
		UserID:    c.UserID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.User != nil {
		dto.User = &AuthorDTO{ID: c.User.ID, Name: c.User.Name, Picture: c.User.Picture}
	}
	return dto
}
