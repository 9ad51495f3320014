package artworks

import (
	"context"
	"net/url"
	"strings"

	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/access"
	"gallery-api/internal/domain/media"
	"gallery-api/internal/domain/money"
	"gallery-api/internal/domain/query"
	"gallery-api/internal/domain/works"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const notFound = "No artwork found with that ID"

type Service struct {
	DB     *gorm.DB
	Images media.ImageStore
	Log    logrus.FieldLogger
}

// ---- reads

// List runs the query string against all artworks.
func (s *Service) List(ctx context.Context, params url.Values) ([]ArtworkDTO, []string, error) {
	return s.list(ctx, query.FromValues(works.ArtworkSchema, params), nil)
}

// Search is List with a free-text term.
func (s *Service) Search(ctx context.Context, term string, params url.Values) ([]ArtworkDTO, []string, error) {
	if strings.TrimSpace(term) == "" {
		return nil, nil, apperr.New(apperr.InvalidInput, "Please provide a search term")
	}
	return s.list(ctx, query.FromValues(works.ArtworkSchema, params).Search(term), nil)
}

func (s *Service) ListByArtist(ctx context.Context, artistID uint, params url.Values) ([]ArtworkDTO, []string, error) {
	return s.list(ctx, query.FromValues(works.ArtworkSchema, params), func(db *gorm.DB) *gorm.DB {
		return db.Where("artworks.artist_id = ?", artistID)
	})
}

// ListFavorites returns the artworks the actor liked.
func (s *Service) ListFavorites(ctx context.Context, actor access.Actor, params url.Values) ([]ArtworkDTO, []string, error) {
	if !actor.Authenticated() {
		return nil, nil, access.ErrNotLoggedIn
	}
	return s.list(ctx, query.FromValues(works.ArtworkSchema, params), func(db *gorm.DB) *gorm.DB {
		return favoritesOf(db, actor.ID)
	})
}

func (s *Service) list(ctx context.Context, q query.Query, scope func(*gorm.DB) *gorm.DB) ([]ArtworkDTO, []string, error) {
	base := s.DB.WithContext(ctx).Model(&works.Artwork{})
	if scope != nil {
		base = base.Scopes(scope)
	}
	tx, err := q.Apply(base)
	if err != nil {
		return nil, nil, err
	}
	var list []works.Artwork
	if err := tx.Scopes(withListRelations).Find(&list).Error; err != nil {
		return nil, nil, apperr.FromDB(err, "")
	}
	return toArtworkDTOs(list), q.Fields(), nil
}

func (s *Service) Get(ctx context.Context, id string) (ArtworkDTO, error) {
	var a works.Artwork
	if err := s.DB.WithContext(ctx).Scopes(withDetailRelations).First(&a, "id = ?", id).Error; err != nil {
		return ArtworkDTO{}, apperr.FromDB(err, notFound)
	}
	return ToArtworkDTO(a), nil
}

// ---- writes

func (s *Service) Create(ctx context.Context, actor access.Actor, in CreateArtworkRequest) (ArtworkDTO, error) {
	if err := access.Authorize(actor, access.Create, access.On(access.Artwork)); err != nil {
		return ArtworkDTO{}, err
	}
	tags, err := works.NormalizeTags(in.Tags)
	if err != nil {
		return ArtworkDTO{}, err
	}
	price, err := money.ToCents(in.Price)
	if err != nil {
		return ArtworkDTO{}, err
	}
	status := in.Status
	if status == "" {
		status = works.StatusAvailable
	}

	a := works.Artwork{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		ArtistID:    actor.ID,
		Year:        in.Year,
		Medium:      in.Medium,
		PriceCents:  price,
		Status:      status,
		Dimensions:  works.Dimensions{Unit: works.UnitCentimeters},
		GalleryID:   in.GalleryID,
	}
	if in.Image != nil {
		a.Image = *in.Image
	}
	if in.Dimensions != nil {
		a.Dimensions = toDimensions(*in.Dimensions)
	}
	if a.Title == "" {
		return ArtworkDTO{}, apperr.New(apperr.InvalidInput, "An artwork must have a title")
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := works.GalleryRef(tx, a.GalleryID)
		if err != nil {
			return err
		}
		a.GalleryID = ref
		if err := tx.Omit("Tags", "Artist", "Gallery", "Exhibition").Create(&a).Error; err != nil {
			return apperr.FromDB(err, "")
		}
		return replaceTags(tx, a.ID, tags)
	})
	if err != nil {
		return ArtworkDTO{}, err
	}
	return s.Get(ctx, a.ID)
}

// Update edits an artwork its artist (or an admin) owns. A sold artwork
// keeps its status, and nothing but a payment marks one sold.
func (s *Service) Update(ctx context.Context, actor access.Actor, id string, in UpdateArtworkRequest) (ArtworkDTO, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.loadForWrite(tx, actor, access.Update, id)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if in.Title != nil {
			t := strings.TrimSpace(*in.Title)
			if t == "" {
				return apperr.New(apperr.InvalidInput, "An artwork must have a title")
			}
			updates["title"] = t
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.Year != nil {
			updates["year"] = *in.Year
		}
		if in.Medium != nil {
			updates["medium"] = *in.Medium
		}
		if in.Price != nil {
			cents, err := money.ToCents(*in.Price)
			if err != nil {
				return err
			}
			updates["price_cents"] = cents
		}
		if in.Dimensions != nil {
			d := toDimensions(*in.Dimensions)
			updates["dim_height"] = d.Height
			updates["dim_width"] = d.Width
			updates["dim_depth"] = d.Depth
			updates["dim_unit"] = d.Unit
		}
		if in.Status != nil {
			next := *in.Status
			switch {
			case !works.ValidStatus(next):
				return apperr.Newf(apperr.InvalidInput, "invalid status %q", next)
			case next == works.StatusSold && !a.IsSold():
				return apperr.New(apperr.InvalidInput, "An artwork can only be marked sold by a completed payment")
			case a.IsSold() && next != works.StatusSold:
				return apperr.New(apperr.Conflict, "This artwork has already been sold")
			}
			updates["status"] = next
		}
		if in.GalleryID != nil {
			ref, err := works.GalleryRef(tx, in.GalleryID)
			if err != nil {
				return err
			}
			updates["gallery_id"] = ref
		}

		if len(updates) > 0 {
			if err := tx.Model(&works.Artwork{}).Where("id = ?", a.ID).Updates(updates).Error; err != nil {
				return apperr.FromDB(err, "")
			}
		}
		if in.Tags != nil {
			tags, err := works.NormalizeTags(*in.Tags)
			if err != nil {
				return err
			}
			return replaceTags(tx, a.ID, tags)
		}
		return nil
	})
	if err != nil {
		return ArtworkDTO{}, err
	}
	return s.Get(ctx, id)
}

// Delete removes an artwork with its tags, likes, collection links and
// comments. The stored image is removed afterwards, best effort.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	var image media.ImageRef
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := s.loadForWrite(tx, actor, access.Delete, id)
		if err != nil {
			return err
		}
		image = a.Image
		for _, model := range []any{
			&works.ArtworkTag{},
			&works.ArtworkLike{},
			&works.GalleryArtwork{},
			&works.ExhibitionArtwork{},
			&works.Comment{},
		} {
			if err := tx.Where("artwork_id = ?", a.ID).Delete(model).Error; err != nil {
				return apperr.FromDB(err, "")
			}
		}
		return apperr.FromDB(tx.Delete(&works.Artwork{}, "id = ?", a.ID).Error, "")
	})
	if err != nil {
		return err
	}
	s.dropImage(ctx, image)
	return nil
}

// Like adds the actor to the liked-by set and returns the new count.
// Liking twice is a no-op.
func (s *Service) Like(ctx context.Context, actor access.Actor, id string) (int, error) {
	return s.toggleLike(ctx, actor, id, true)
}

func (s *Service) Unlike(ctx context.Context, actor access.Actor, id string) (int, error) {
	return s.toggleLike(ctx, actor, id, false)
}

func (s *Service) toggleLike(ctx context.Context, actor access.Actor, id string, like bool) (int, error) {
	var count int
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a works.Artwork
		if err := tx.Select("id").First(&a, "id = ?", id).Error; err != nil {
			return apperr.FromDB(err, notFound)
		}
		if err := access.Authorize(actor, access.Like, access.On(access.Artwork)); err != nil {
			return err
		}

		row := works.ArtworkLike{UserID: actor.ID, ArtworkID: a.ID}
		var err error
		if like {
			err = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
		} else {
			err = tx.Where("user_id = ? AND artwork_id = ?", actor.ID, a.ID).Delete(&works.ArtworkLike{}).Error
		}
		if err != nil {
			return apperr.FromDB(err, "")
		}
		if err := recountLikes(tx, a.ID).Error; err != nil {
			return apperr.FromDB(err, "")
		}
		return apperr.FromDB(tx.Model(&works.Artwork{}).Where("id = ?", a.ID).Pluck("likes_count", &count).Error, "")
	})
	return count, err
}

// UploadImage replaces the artwork image with data after sniffing its type.
func (s *Service) UploadImage(ctx context.Context, actor access.Actor, id string, data []byte) (ArtworkDTO, error) {
	if s.Images == nil {
		return ArtworkDTO{}, apperr.New(apperr.ExternalServiceFailure, "Image uploads are not configured")
	}
	var a works.Artwork
	if err := s.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return ArtworkDTO{}, apperr.FromDB(err, notFound)
	}
	if err := access.Authorize(actor, access.Update, access.OwnedBy(access.Artwork, a.ArtistID)); err != nil {
		return ArtworkDTO{}, err
	}
	contentType, ext, err := media.DetectImage(data)
	if err != nil {
		return ArtworkDTO{}, err
	}

	name := "artworks/" + a.ID + "-" + uuid.NewString()[:8] + ext
	ref, err := s.Images.Store(ctx, name, contentType, data)
	if err != nil {
		return ArtworkDTO{}, apperr.Wrap(apperr.ExternalServiceFailure, "Failed to store image", err)
	}

	res := s.DB.WithContext(ctx).Model(&works.Artwork{}).Where("id = ?", a.ID).
		Updates(map[string]any{"image_url": ref.URL, "image_public_id": ref.PublicID})
	if res.Error != nil {
		s.dropImage(ctx, ref)
		return ArtworkDTO{}, apperr.FromDB(res.Error, "")
	}
	s.dropImage(ctx, a.Image)
	return s.Get(ctx, a.ID)
}

// ---- helpers

// loadForWrite loads the artwork and checks the actor may act on it.
// Missing artworks are NotFound before any permission check.
func (s *Service) loadForWrite(tx *gorm.DB, actor access.Actor, action access.Action, id string) (works.Artwork, error) {
	var a works.Artwork
	if err := tx.First(&a, "id = ?", id).Error; err != nil {
		return works.Artwork{}, apperr.FromDB(err, notFound)
	}
	if err := access.Authorize(actor, action, access.OwnedBy(access.Artwork, a.ArtistID)); err != nil {
		return works.Artwork{}, err
	}
	return a, nil
}

func (s *Service) dropImage(ctx context.Context, ref media.ImageRef) {
	if s.Images == nil || ref.PublicID == "" {
		return
	}
	if err := s.Images.Delete(ctx, ref.PublicID); err != nil {
		s.Log.WithError(err).WithField("public_id", ref.PublicID).Warn("failed to delete image")
	}
}

func replaceTags(tx *gorm.DB, artworkID string, tags []string) error {
	if err := tx.Where("artwork_id = ?", artworkID).Delete(&works.ArtworkTag{}).Error; err != nil {
		return apperr.FromDB(err, "")
	}
	if len(tags) == 0 {
		return nil
	}
	rows := make([]works.ArtworkTag, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, works.ArtworkTag{ArtworkID: artworkID, Tag: t})
	}
	return apperr.FromDB(tx.Create(&rows).Error, "")
}

func toDimensions(in DimensionsInput) works.Dimensions {
	unit := in.Unit
	if unit == "" {
		unit = works.UnitCentimeters
	}
	return works.Dimensions{Height: in.Height, Width: in.Width, Depth: in.Depth, Unit: unit}
}
