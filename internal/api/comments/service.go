// Package comments serves the discussion thread under each artwork.
package comments

import (
	"context"
	"net/url"
	"strings"

	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/access"
	"gallery-api/internal/domain/query"
	"gallery-api/internal/domain/works"

	"gorm.io/gorm"
)

const notFound = "No comment found with that ID"

type Service struct {
	DB *gorm.DB
}

func withAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("User", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name", "picture_url", "picture_public_id")
	})
}

func (s *Service) ListForArtwork(ctx context.Context, artworkID string, params url.Values) ([]CommentDTO, []string, error) {
	db := s.DB.WithContext(ctx)
	if err := artworkExists(db, artworkID); err != nil {
		return nil, nil, err
	}
	q := query.FromValues(works.CommentSchema, params)
	tx, err := q.Apply(db.Model(&works.Comment{}).Where("comments.artwork_id = ?", artworkID))
	if err != nil {
		return nil, nil, err
	}
	var list []works.Comment
	if err := tx.Scopes(withAuthor).Find(&list).Error; err != nil {
		return nil, nil, apperr.FromDB(err, "")
	}
	out := make([]CommentDTO, 0, len(list))
	for _, c := range list {
		out = append(out, toCommentDTO(c))
	}
	return out, q.Fields(), nil
}

func (s *Service) Get(ctx context.Context, id string) (CommentDTO, error) {
	var c works.Comment
	if err := s.DB.WithContext(ctx).Scopes(withAuthor).First(&c, "id = ?", id).Error; err != nil {
		return CommentDTO{}, apperr.FromDB(err, notFound)
	}
	return toCommentDTO(c), nil
}

// Create posts text under an artwork as the actor.
func (s *Service) Create(ctx context.Context, actor access.Actor, artworkID, text string) (CommentDTO, error) {
	db := s.DB.WithContext(ctx)
	if err := artworkExists(db, artworkID); err != nil {
		return CommentDTO{}, err
	}
	if err := access.Authorize(actor, access.Create, access.On(access.Comment)); err != nil {
		return CommentDTO{}, err
	}
	text, err := cleanText(text)
	if err != nil {
		return CommentDTO{}, err
	}
	c := works.Comment{Text: text, ArtworkID: artworkID, UserID: actor.ID}
	if err := db.Omit("Artwork", "User").Create(&c).Error; err != nil {
		return CommentDTO{}, apperr.FromDB(err, "")
	}
	return s.Get(ctx, c.ID)
}

// Update edits the text. Only the author or an admin may.
func (s *Service) Update(ctx context.Context, actor access.Actor, id, text string) (CommentDTO, error) {
	db := s.DB.WithContext(ctx)
	c, err := loadForWrite(db, actor, access.Update, id)
	if err != nil {
		return CommentDTO{}, err
	}
	text, err = cleanText(text)
	if err != nil {
		return CommentDTO{}, err
	}
	if err := db.Model(&works.Comment{}).Where("id = ?", c.ID).Update("text", text).Error; err != nil {
		return CommentDTO{}, apperr.FromDB(err, "")
	}
	return s.Get(ctx, c.ID)
}

func (s *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	db := s.DB.WithContext(ctx)
	c, err := loadForWrite(db, actor, access.Delete, id)
	if err != nil {
		return err
	}
	return apperr.FromDB(db.Delete(&works.Comment{}, "id = ?", c.ID).Error, "")
}

func loadForWrite(db *gorm.DB, actor access.Actor, action access.Action, id string) (works.Comment, error) {
	var c works.Comment
	if err := db.First(&c, "id = ?", id).Error; err != nil {
		return works.Comment{}, apperr.FromDB(err, notFound)
	}
	if err := access.Authorize(actor, action, access.OwnedBy(access.Comment, c.UserID)); err != nil {
		return works.Comment{}, err
	}
	return c, nil
}

func artworkExists(db *gorm.DB, artworkID string) error {
	var n int64
	if err := db.Model(&works.Artwork{}).Where("id = ?", artworkID).Count(&n).Error; err != nil {
		return apperr.FromDB(err, "")
	}
	if n == 0 {
		return apperr.New(apperr.NotFound, "No artwork found with that ID")
	}
	return nil
}

func cleanText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.New(apperr.InvalidInput, "A comment can not be empty")
	}
	if len([]rune(text)) > works.MaxCommentLen {
		return "", apperr.Newf(apperr.InvalidInput, "A comment must have less or equal than %d characters", works.MaxCommentLen)
	}
	return text, nil
}
