package galleries

import (
	"context"
	"net/url"
	"strings"
	"time"

	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/access"
	"gallery-api/internal/domain/query"
	"gallery-api/internal/domain/works"

	"gorm.io/gorm"
)

func withExhibitionDetail(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", itemsInOrder).
		Preload("Items.Artwork").
		Preload("Curators").
		Preload("Curators.User", personSelect)
}

// ---- reads

func (s *Service) ListExhibitions(ctx context.Context, params url.Values) ([]ExhibitionDTO, []string, error) {
	q := query.FromValues(works.ExhibitionSchema, params)
	tx, err := q.Apply(s.DB.WithContext(ctx).Model(&works.Exhibition{}))
	if err != nil {
		return nil, nil, err
	}
	var list []works.Exhibition
	if err := tx.Find(&list).Error; err != nil {
		return nil, nil, apperr.FromDB(err, "")
	}
	out := make([]ExhibitionDTO, 0, len(list))
	for _, e := range list {
		out = append(out, toExhibitionDTO(e))
	}
	return out, q.Fields(), nil
}

func (s *Service) GetExhibition(ctx context.Context, id string) (ExhibitionDTO, error) {
	var e works.Exhibition
	if err := s.DB.WithContext(ctx).Scopes(withExhibitionDetail).First(&e, "id = ?", id).Error; err != nil {
		return ExhibitionDTO{}, apperr.FromDB(err, exhibitionNotFound)
	}
	return toExhibitionDTO(e), nil
}

// ---- writes

func (s *Service) CreateExhibition(ctx context.Context, actor access.Actor, in CreateExhibitionRequest) (ExhibitionDTO, error) {
	if err := access.Authorize(actor, access.Create, access.On(access.Exhibition)); err != nil {
		return ExhibitionDTO{}, err
	}
	start, err := parseDate("start_date", in.StartDate)
	if err != nil {
		return ExhibitionDTO{}, err
	}
	end, err := parseDate("end_date", in.EndDate)
	if err != nil {
		return ExhibitionDTO{}, err
	}
	if err := works.ValidateDates(start, end); err != nil {
		return ExhibitionDTO{}, err
	}

	e := works.Exhibition{
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		StartDate:       start,
		EndDate:         end,
		GalleryID:       in.GalleryID,
		Status:          in.Status,
		Theme:           in.Theme,
		VirtualTourLink: in.VirtualTourLink,
	}
	if e.Title == "" || e.Description == "" {
		return ExhibitionDTO{}, apperr.New(apperr.InvalidInput, "An exhibition must have a title and a description")
	}
	if e.Status == "" {
		e.Status = works.StatusAt(start, end, s.now())
	}
	if in.FeaturedImage != nil {
		e.FeaturedImage = *in.FeaturedImage
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ref, err := works.GalleryRef(tx, e.GalleryID)
		if err != nil {
			return err
		}
		e.GalleryID = ref
		if err := tx.Omit("Gallery", "Items", "Curators").Create(&e).Error; err != nil {
			return duplicate(err, "An exhibition with that title already exists")
		}
		if err := setFeatured(tx, e.ID, in.FeaturedArtworks); err != nil {
			return err
		}
		return setCurators(tx, e.ID, in.Curators)
	})
	if err != nil {
		return ExhibitionDTO{}, err
	}
	return s.GetExhibition(ctx, e.ID)
}

// UpdateExhibition applies a partial update. Dates are validated against
// the merged result, so moving only one end is checked against the other.
func (s *Service) UpdateExhibition(ctx context.Context, actor access.Actor, id string, in UpdateExhibitionRequest) (ExhibitionDTO, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := loadExhibition(tx, actor, access.Update, id)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		start, end := e.StartDate, e.EndDate
		if in.StartDate != nil {
			if start, err = parseDate("start_date", *in.StartDate); err != nil {
				return err
			}
			updates["start_date"] = start
		}
		if in.EndDate != nil {
			if end, err = parseDate("end_date", *in.EndDate); err != nil {
				return err
			}
			updates["end_date"] = end
		}
		if err := works.ValidateDates(start, end); err != nil {
			return err
		}

		if in.Status != nil {
			updates["status"] = *in.Status
		} else if in.StartDate != nil || in.EndDate != nil {
			updates["status"] = works.StatusAt(start, end, s.now())
		}
		if in.Title != nil {
			t := strings.TrimSpace(*in.Title)
			if t == "" {
				return apperr.New(apperr.InvalidInput, "An exhibition must have a title")
			}
			updates["title"] = t
		}
		if in.Description != nil {
			updates["description"] = strings.TrimSpace(*in.Description)
		}
		if in.GalleryID != nil {
			ref, err := works.GalleryRef(tx, in.GalleryID)
			if err != nil {
				return err
			}
			updates["gallery_id"] = ref
		}
		if in.Theme != nil {
			updates["theme"] = *in.Theme
		}
		if in.VirtualTourLink != nil {
			updates["virtual_tour_link"] = *in.VirtualTourLink
		}
		if in.FeaturedImage != nil {
			updates["featured_image_url"] = in.FeaturedImage.URL
			updates["featured_image_public_id"] = in.FeaturedImage.PublicID
		}

		if len(updates) > 0 {
			if err := tx.Model(&works.Exhibition{}).Where("id = ?", e.ID).Updates(updates).Error; err != nil {
				return duplicate(err, "An exhibition with that title already exists")
			}
		}
		if in.FeaturedArtworks != nil {
			if err := setFeatured(tx, e.ID, *in.FeaturedArtworks); err != nil {
				return err
			}
		}
		if in.Curators != nil {
			return setCurators(tx, e.ID, *in.Curators)
		}
		return nil
	})
	if err != nil {
		return ExhibitionDTO{}, err
	}
	return s.GetExhibition(ctx, id)
}

func (s *Service) DeleteExhibition(ctx context.Context, actor access.Actor, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := loadExhibition(tx, actor, access.Delete, id)
		if err != nil {
			return err
		}
		if err := tx.Where("exhibition_id = ?", e.ID).Delete(&works.ExhibitionArtwork{}).Error; err != nil {
			return apperr.FromDB(err, "")
		}
		if err := tx.Where("exhibition_id = ?", e.ID).Delete(&works.ExhibitionCurator{}).Error; err != nil {
			return apperr.FromDB(err, "")
		}
		if err := tx.Model(&works.Artwork{}).Where("exhibition_id = ?", e.ID).Update("exhibition_id", nil).Error; err != nil {
			return apperr.FromDB(err, "")
		}
		return apperr.FromDB(tx.Delete(&works.Exhibition{}, "id = ?", e.ID).Error, "")
	})
}

// RefreshStatuses re-derives every exhibition's status from its dates at
// now and returns how many rows changed.
func (s *Service) RefreshStatuses(ctx context.Context, now time.Time) (int64, error) {
	now = now.UTC()
	var changed int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			status string
			where  string
			args   []any
		}{
			{works.ExhibitionUpcoming, "start_date > ?", []any{now}},
			{works.ExhibitionPast, "end_date < ?", []any{now}},
			{works.ExhibitionOngoing, "start_date <= ? AND end_date >= ?", []any{now, now}},
		}
		for _, st := range steps {
			res := tx.Model(&works.Exhibition{}).
				Where(st.where, st.args...).
				Where("status <> ?", st.status).
				Update("status", st.status)
			if res.Error != nil {
				return apperr.FromDB(res.Error, "")
			}
			changed += res.RowsAffected
		}
		return nil
	})
	return changed, err
}

// ---- helpers

func loadExhibition(tx *gorm.DB, actor access.Actor, action access.Action, id string) (works.Exhibition, error) {
	var e works.Exhibition
	if err := tx.First(&e, "id = ?", id).Error; err != nil {
		return works.Exhibition{}, apperr.FromDB(err, exhibitionNotFound)
	}
	if err := access.Authorize(actor, action, access.On(access.Exhibition)); err != nil {
		return works.Exhibition{}, err
	}
	return e, nil
}

func setFeatured(tx *gorm.DB, exhibitionID string, artworkIDs []string) error {
	if err := checkArtworks(tx, artworkIDs); err != nil {
		return err
	}
	if err := tx.Where("exhibition_id = ?", exhibitionID).Delete(&works.ExhibitionArtwork{}).Error; err != nil {
		return apperr.FromDB(err, "")
	}
	detach := tx.Model(&works.Artwork{}).Where("exhibition_id = ?", exhibitionID)
	if len(artworkIDs) > 0 {
		detach = detach.Where("id NOT IN ?", artworkIDs)
	}
	if err := detach.Update("exhibition_id", nil).Error; err != nil {
		return apperr.FromDB(err, "")
	}
	if len(artworkIDs) == 0 {
		return nil
	}
	rows := make([]works.ExhibitionArtwork, 0, len(artworkIDs))
	for i, id := range artworkIDs {
		rows = append(rows, works.ExhibitionArtwork{ExhibitionID: exhibitionID, ArtworkID: id, Position: i})
	}
	if err := tx.Omit("Artwork").Create(&rows).Error; err != nil {
		return apperr.FromDB(err, "")
	}
	return apperr.FromDB(tx.Model(&works.Artwork{}).Where("id IN ?", artworkIDs).Update("exhibition_id", exhibitionID).Error, "")
}

func setCurators(tx *gorm.DB, exhibitionID string, userIDs []uint) error {
	userIDs = uniqueUints(userIDs)
	if err := checkUsers(tx, userIDs); err != nil {
		return err
	}
	if err := tx.Where("exhibition_id = ?", exhibitionID).Delete(&works.ExhibitionCurator{}).Error; err != nil {
		return apperr.FromDB(err, "")
	}
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]works.ExhibitionCurator, 0, len(userIDs))
	for _, uid := range userIDs {
		rows = append(rows, works.ExhibitionCurator{ExhibitionID: exhibitionID, UserID: uid})
	}
	return apperr.FromDB(tx.Omit("User").Create(&rows).Error, "")
}

func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.Newf(apperr.InvalidInput, "%s must be a date (YYYY-MM-DD or RFC 3339)", field)
}
