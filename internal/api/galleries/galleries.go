// Package galleries serves curated galleries and the exhibitions held in
// them. Both are public to read and admin-managed.
package galleries

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/access"
	"gallery-api/internal/domain/query"
	"gallery-api/internal/domain/users"
	"gallery-api/internal/domain/works"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	galleryNotFound    = "No gallery found with that ID"
	exhibitionNotFound = "No exhibition found with that ID"
)

type Service struct {
	DB  *gorm.DB
	Log logrus.FieldLogger
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func personSelect(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "picture_url", "picture_public_id")
}

func itemsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func withGalleryDetail(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Curator", personSelect).
		Preload("Items", itemsInOrder).
		Preload("Items.Artwork")
}

// ---- reads

func (s *Service) ListGalleries(ctx context.Context, params url.Values) ([]GalleryDTO, []string, error) {
	q := query.FromValues(works.GallerySchema, params)
	tx, err := q.Apply(s.DB.WithContext(ctx).Model(&works.Gallery{}))
	if err != nil {
		return nil, nil, err
	}
	var list []works.Gallery
	if err := tx.Preload("Curator", personSelect).Find(&list).Error; err != nil {
		return nil, nil, apperr.FromDB(err, "")
	}
	out := make([]GalleryDTO, 0, len(list))
	for _, g := range list {
		out = append(out, toGalleryDTO(g))
	}
	return out, q.Fields(), nil
}

// GetGallery accepts an id or a slug.
func (s *Service) GetGallery(ctx context.Context, idOrSlug string) (GalleryDTO, error) {
	var g works.Gallery
	err := s.DB.WithContext(ctx).Scopes(withGalleryDetail).
		Where("id = ? OR slug = ?", idOrSlug, idOrSlug).
		First(&g).Error
	if err != nil {
		return GalleryDTO{}, apperr.FromDB(err, galleryNotFound)
	}
	return toGalleryDTO(g), nil
}

// ---- writes

func (s *Service) CreateGallery(ctx context.Context, actor access.Actor, in CreateGalleryRequest) (GalleryDTO, error) {
	if err := access.Authorize(actor, access.Create, access.On(access.Gallery)); err != nil {
		return GalleryDTO{}, err
	}
	g := works.Gallery{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		CuratorID:   in.CuratorID,
	}
	if g.Name == "" {
		return GalleryDTO{}, apperr.New(apperr.InvalidInput, "A gallery must have a name")
	}
	if in.FeaturedImage != nil {
		g.FeaturedImage = *in.FeaturedImage
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkUsers(tx, curatorIDs(g.CuratorID)); err != nil {
			return err
		}
		slug, err := uniqueSlug(tx, works.MakeSlug(g.Name), "")
		if err != nil {
			return err
		}
		g.Slug = slug
		if err := tx.Omit("Curator", "Items").Create(&g).Error; err != nil {
			return duplicate(err, "A gallery with that name already exists")
		}
		return nil
	})
	if err != nil {
		return GalleryDTO{}, err
	}
	return s.GetGallery(ctx, g.ID)
}

func (s *Service) UpdateGallery(ctx context.Context, actor access.Actor, id string, in UpdateGalleryRequest) (GalleryDTO, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := loadGallery(tx, actor, access.Update, id)
		if err != nil {
			return err
		}
		updates := map[string]any{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apperr.New(apperr.InvalidInput, "A gallery must have a name")
			}
			if name != g.Name {
				slug, err := uniqueSlug(tx, works.MakeSlug(name), g.ID)
				if err != nil {
					return err
				}
				updates["name"] = name
				updates["slug"] = slug
			}
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.CuratorID != nil {
			if err := checkUsers(tx, curatorIDs(in.CuratorID)); err != nil {
				return err
			}
			updates["curator_id"] = *in.CuratorID
		}
		if in.FeaturedImage != nil {
			updates["featured_image_url"] = in.FeaturedImage.URL
			updates["featured_image_public_id"] = in.FeaturedImage.PublicID
		}
		if len(updates) == 0 {
			return nil
		}
		err = tx.Model(&works.Gallery{}).Where("id = ?", g.ID).Updates(updates).Error
		return duplicate(err, "A gallery with that name already exists")
	})
	if err != nil {
		return GalleryDTO{}, err
	}
	return s.GetGallery(ctx, id)
}

// DeleteGallery removes the gallery. Its artworks and exhibitions stay and
// lose the reference.
func (s *Service) DeleteGallery(ctx context.Context, actor access.Actor, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := loadGallery(tx, actor, access.Delete, id)
		if err != nil {
			return err
		}
		if err := tx.Where("gallery_id = ?", g.ID).Delete(&works.GalleryArtwork{}).Error; err != nil {
			return apperr.FromDB(err, "")
		}
		if err := tx.Model(&works.Artwork{}).Where("gallery_id = ?", g.ID).Update("gallery_id", nil).Error; err != nil {
			return apperr.FromDB(err, "")
		}
		if err := tx.Model(&works.Exhibition{}).Where("gallery_id = ?", g.ID).Update("gallery_id", nil).Error; err != nil {
			return apperr.FromDB(err, "")
		}
		return apperr.FromDB(tx.Delete(&works.Gallery{}, "id = ?", g.ID).Error, "")
	})
}

// SetArtworks replaces the gallery's collection. Positions follow the
// order of artworkIDs.
func (s *Service) SetArtworks(ctx context.Context, actor access.Actor, id string, artworkIDs []string) (GalleryDTO, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g, err := loadGallery(tx, actor, access.Update, id)
		if err != nil {
			return err
		}
		if err := checkArtworks(tx, artworkIDs); err != nil {
			return err
		}
		if err := tx.Where("gallery_id = ?", g.ID).Delete(&works.GalleryArtwork{}).Error; err != nil {
			return apperr.FromDB(err, "")
		}
		if len(artworkIDs) > 0 {
			rows := make([]works.GalleryArtwork, 0, len(artworkIDs))
			for i, aid := range artworkIDs {
				rows = append(rows, works.GalleryArtwork{GalleryID: g.ID, ArtworkID: aid, Position: i})
			}
			if err := tx.Omit("Artwork").Create(&rows).Error; err != nil {
				return apperr.FromDB(err, "")
			}
		}

		detach := tx.Model(&works.Artwork{}).Where("gallery_id = ?", g.ID)
		if len(artworkIDs) > 0 {
			detach = detach.Where("id NOT IN ?", artworkIDs)
		}
		if err := detach.Update("gallery_id", nil).Error; err != nil {
			return apperr.FromDB(err, "")
		}
		if len(artworkIDs) == 0 {
			return nil
		}
		return apperr.FromDB(tx.Model(&works.Artwork{}).Where("id IN ?", artworkIDs).Update("gallery_id", g.ID).Error, "")
	})
	if err != nil {
		return GalleryDTO{}, err
	}
	return s.GetGallery(ctx, id)
}

// ---- helpers

func loadGallery(tx *gorm.DB, actor access.Actor, action access.Action, id string) (works.Gallery, error) {
	var g works.Gallery
	if err := tx.First(&g, "id = ?", id).Error; err != nil {
		return works.Gallery{}, apperr.FromDB(err, galleryNotFound)
	}
	if err := access.Authorize(actor, action, access.On(access.Gallery)); err != nil {
		return works.Gallery{}, err
	}
	return g, nil
}

// uniqueSlug appends -2, -3, ... until base is free. excludeID skips the
// gallery being renamed.
func uniqueSlug(tx *gorm.DB, base, excludeID string) (string, error) {
	slug := base
	for i := 2; ; i++ {
		q := tx.Model(&works.Gallery{}).Where("slug = ?", slug)
		if excludeID != "" {
			q = q.Where("id <> ?", excludeID)
		}
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return "", apperr.FromDB(err, "")
		}
		if n == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func curatorIDs(id *uint) []uint {
	if id == nil {
		return nil
	}
	return []uint{*id}
}

// checkUsers requires every id to be an active user.
func checkUsers(tx *gorm.DB, ids []uint) error {
	ids = uniqueUints(ids)
	if len(ids) == 0 {
		return nil
	}
	var n int64
	if err := tx.Model(&users.User{}).Scopes(users.ActiveOnly).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return apperr.FromDB(err, "")
	}
	if int(n) != len(ids) {
		return apperr.New(apperr.InvalidInput, "Curators must be existing users")
	}
	return nil
}

// checkArtworks requires the ids to be distinct existing artworks.
func checkArtworks(tx *gorm.DB, ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return apperr.Newf(apperr.InvalidInput, "artwork %s is listed twice", id)
		}
		seen[id] = true
	}
	if len(ids) == 0 {
		return nil
	}
	var n int64
	if err := tx.Model(&works.Artwork{}).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return apperr.FromDB(err, "")
	}
	if int(n) != len(ids) {
		return apperr.New(apperr.InvalidInput, "One or more artworks do not exist")
	}
	return nil
}

func uniqueUints(in []uint) []uint {
	seen := make(map[uint]bool, len(in))
	out := make([]uint, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func duplicate(err error, msg string) error {
	if err == nil {
		return nil
	}
	if apperr.IsDuplicate(err) {
		return apperr.Wrap(apperr.Conflict, msg, err)
	}
	return apperr.FromDB(err, "")
}
