package users

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gallery-api/internal/api/auth"
	"gallery-api/internal/api/respond"
	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/access"
	"gallery-api/internal/domain/media"
	"gallery-api/internal/domain/orders"
	"gallery-api/internal/domain/query"
	"gallery-api/internal/domain/users"
	"gallery-api/internal/domain/works"
	"gallery-api/internal/infra/notify"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	ResetTokenTTL = 10 * time.Minute
	MaxBioLen     = 500
	MaxNameLen    = 100
)

var (
	ErrInvalidResetToken = apperr.New(apperr.InvalidInput, "Token is invalid or has expired")
	ErrPasswordRoute     = apperr.New(apperr.InvalidInput, "This route is not for password updates. Please use /updateMyPassword.")
	ErrEmailFailed       = apperr.New(apperr.ExternalServiceFailure, "There was an error sending the email. Try again later!")
)

const userNotFound = "No user found with that ID"

type Service struct {
	DB       *gorm.DB
	Tokens   *auth.TokenManager
	Notifier notify.Notifier
	Log      logrus.FieldLogger
	AppName  string
	// ResetURL is the page the reset token is appended to.
	ResetURL string
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// ---- profile

// GetProfile returns a user with their own artworks and favorites.
func (s *Service) GetProfile(ctx context.Context, actor access.Actor, id uint) (ProfileDTO, error) {
	db := s.DB.WithContext(ctx)
	var u users.User
	if err := db.Scopes(users.ActiveOnly).First(&u, id).Error; err != nil {
		return ProfileDTO{}, apperr.FromDB(err, userNotFound)
	}
	if err := access.Authorize(actor, access.Read, access.OwnedBy(access.User, u.ID)); err != nil {
		return ProfileDTO{}, err
	}

	var owned []works.Artwork
	if err := db.Where("artist_id = ?", u.ID).Order("created_at DESC").Find(&owned).Error; err != nil {
		return ProfileDTO{}, apperr.FromDB(err, "")
	}
	var favorites []works.Artwork
	if err := db.Joins("JOIN artwork_likes ON artwork_likes.artwork_id = artworks.id").
		Where("artwork_likes.user_id = ?", u.ID).
		Order("artwork_likes.created_at DESC").
		Find(&favorites).Error; err != nil {
		return ProfileDTO{}, apperr.FromDB(err, "")
	}

	return ProfileDTO{User: ToUserDTO(u), Artworks: toSummaries(owned), Favorites: toSummaries(favorites)}, nil
}

// UpdateMe applies the self-service fields of body. Password keys are
// refused outright, whatever else is sent.
func (s *Service) UpdateMe(ctx context.Context, actor access.Actor, body map[string]any) (users.User, error) {
	if hasPasswordKey(body) {
		return users.User{}, ErrPasswordRoute
	}
	updates, err := profileUpdates(body, "name", "email", "bio", "picture")
	if err != nil {
		return users.User{}, err
	}
	return s.applyUpdates(ctx, actor.ID, updates, true)
}

// Deactivate soft-deletes the caller's account.
func (s *Service) Deactivate(ctx context.Context, actor access.Actor) error {
	res := s.DB.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", actor.ID).
		Update("active", false)
	if res.Error != nil {
		return apperr.FromDB(res.Error, "")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, userNotFound)
	}
	return nil
}

// ---- admin

func (s *Service) ListAll(ctx context.Context, actor access.Actor, params url.Values) ([]AdminUserDTO, []string, error) {
	if err := access.Authorize(actor, access.ListAll, access.On(access.User)); err != nil {
		return nil, nil, err
	}
	q := query.FromValues(users.Schema, params)
	tx, err := q.Apply(s.DB.WithContext(ctx).Model(&users.User{}).Scopes(users.ActiveOnly))
	if err != nil {
		return nil, nil, err
	}
	var list []users.User
	if err := tx.Find(&list).Error; err != nil {
		return nil, nil, apperr.FromDB(err, "")
	}
	out := make([]AdminUserDTO, 0, len(list))
	for _, u := range list {
		out = append(out, toAdminUserDTO(u))
	}
	return out, q.Fields(), nil
}

// Get loads any account, deactivated ones included, for admins.
func (s *Service) Get(ctx context.Context, actor access.Actor, id uint) (users.User, error) {
	var u users.User
	if err := s.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		return users.User{}, apperr.FromDB(err, userNotFound)
	}
	if err := access.Authorize(actor, access.Update, access.On(access.User)); err != nil {
		return users.User{}, err
	}
	return u, nil
}

// AdminUpdate changes profile fields, role and active flag. Passwords are
// never set here.
func (s *Service) AdminUpdate(ctx context.Context, actor access.Actor, id uint, body map[string]any) (users.User, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return users.User{}, err
	}
	if hasPasswordKey(body) {
		return users.User{}, apperr.New(apperr.InvalidInput, "Passwords cannot be changed by an admin")
	}
	updates, err := profileUpdates(body, "name", "email", "bio", "picture", "role", "active")
	if err != nil {
		return users.User{}, err
	}
	return s.applyUpdates(ctx, id, updates, false)
}

// AdminDelete removes an account and everything it authored. Accounts
// with orders are kept for the order history and must be deactivated.
func (s *Service) AdminDelete(ctx context.Context, actor access.Actor, id uint) error {
	u, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := access.Authorize(actor, access.Delete, access.On(access.User)); err != nil {
		return err
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&orders.Order{}).Where("user_id = ?", u.ID).Count(&n).Error; err != nil {
			return apperr.FromDB(err, "")
		}
		if n > 0 {
			return apperr.New(apperr.Conflict, "This user has orders. Deactivate the account instead.")
		}

		artworkIDs := tx.Model(&works.Artwork{}).Select("id").Where("artist_id = ?", u.ID)
		steps := []struct {
			model any
			where string
			arg   any
		}{
			{&works.ArtworkLike{}, "user_id = ?", u.ID},
			{&works.Comment{}, "user_id = ?", u.ID},
			{&works.ExhibitionCurator{}, "user_id = ?", u.ID},
			{&users.PasswordResetToken{}, "user_id = ?", u.ID},
			{&works.ArtworkLike{}, "artwork_id IN (?)", artworkIDs},
			{&works.Comment{}, "artwork_id IN (?)", artworkIDs},
			{&works.ArtworkTag{}, "artwork_id IN (?)", artworkIDs},
			{&works.GalleryArtwork{}, "artwork_id IN (?)", artworkIDs},
			{&works.ExhibitionArtwork{}, "artwork_id IN (?)", artworkIDs},
			{&works.Artwork{}, "artist_id = ?", u.ID},
		}
		for _, st := range steps {
			if err := tx.Where(st.where, st.arg).Delete(st.model).Error; err != nil {
				return apperr.FromDB(err, "")
			}
		}
		if err := tx.Model(&works.Gallery{}).Where("curator_id = ?", u.ID).Update("curator_id", nil).Error; err != nil {
			return apperr.FromDB(err, "")
		}
		if err := tx.Delete(&users.User{}, u.ID).Error; err != nil {
			return apperr.FromDB(err, "")
		}
		return nil
	})
}

// ChangeRole sets the role of the account with the given id.
func (s *Service) ChangeRole(ctx context.Context, actor access.Actor, id uint, role string) (users.User, error) {
	if err := access.ValidateRole(role); err != nil {
		return users.User{}, err
	}
	var u users.User
	if err := s.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		return users.User{}, apperr.FromDB(err, userNotFound)
	}
	if err := access.Authorize(actor, access.ChangeRole, access.On(access.User)); err != nil {
		return users.User{}, err
	}
	if err := s.DB.WithContext(ctx).Model(&u).Update("role", role).Error; err != nil {
		return users.User{}, apperr.FromDB(err, "")
	}
	u.Role = role
	return u, nil
}

// ---- passwords

// ForgotPassword issues a reset token and sends it by email. Unknown
// addresses get the same answer as known ones.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = auth.NormalizeEmail(email)
	if email == "" {
		return apperr.New(apperr.InvalidInput, "Please provide your email address")
	}
	db := s.DB.WithContext(ctx)

	var u users.User
	err := db.Scopes(users.ActiveOnly).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.Log.WithField("email", email).Debug("password reset for unknown email")
		return nil
	}
	if err != nil {
		return apperr.FromDB(err, "")
	}

	plain, hash, err := users.NewResetToken()
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to generate reset token", err)
	}
	token := users.PasswordResetToken{UserID: u.ID, TokenHash: hash, ExpiresAt: s.now().Add(ResetTokenTTL)}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", u.ID).Delete(&users.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&token).Error
	})
	if err != nil {
		return apperr.FromDB(err, "")
	}

	err = notify.Deliver(ctx, s.Notifier, s.Log, u.Email, notify.PasswordReset, map[string]any{
		"Name":     u.Name,
		"AppName":  s.AppName,
		"ResetURL": strings.TrimRight(s.ResetURL, "/") + "/" + plain,
	})
	if err != nil {
		if derr := db.Delete(&users.PasswordResetToken{}, token.ID).Error; derr != nil {
			s.Log.WithError(derr).Warn("failed to roll back reset token")
		}
		return ErrEmailFailed
	}
	return nil
}

// ResetPassword redeems a reset token. Unknown, expired and used tokens
// are indistinguishable to the caller.
func (s *Service) ResetPassword(ctx context.Context, plain, password, confirm string) (users.User, string, error) {
	if strings.TrimSpace(plain) == "" {
		return users.User{}, "", ErrInvalidResetToken
	}
	now := s.now()
	var u users.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rt users.PasswordResetToken
		err := tx.Where("token_hash = ? AND expires_at > ?", users.HashResetToken(plain), now).First(&rt).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		if err != nil {
			return apperr.FromDB(err, "")
		}
		if err := tx.Scopes(users.ActiveOnly).First(&u, rt.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidResetToken
			}
			return apperr.FromDB(err, "")
		}
		if err := users.ValidateNewPassword(password, confirm); err != nil {
			return err
		}
		if err := setPassword(tx, &u, password, now); err != nil {
			return err
		}
		return apperr.FromDB(tx.Delete(&rt).Error, "")
	})
	if err != nil {
		return users.User{}, "", err
	}
	token, err := s.Tokens.Issue(u)
	return u, token, err
}

// ChangePassword verifies the current password before setting a new one.
func (s *Service) ChangePassword(ctx context.Context, actor access.Actor, current, password, confirm string) (users.User, string, error) {
	var u users.User
	db := s.DB.WithContext(ctx)
	if err := db.Scopes(users.ActiveOnly).First(&u, actor.ID).Error; err != nil {
		return users.User{}, "", apperr.FromDB(err, userNotFound)
	}
	if !u.HasPassword() {
		return users.User{}, "", apperr.New(apperr.InvalidInput, "This account does not have a password. Sign in with Google.")
	}
	if !users.CheckPassword(u, current) {
		return users.User{}, "", apperr.New(apperr.Unauthorized, "Your current password is wrong.")
	}
	if err := users.ValidateNewPassword(password, confirm); err != nil {
		return users.User{}, "", err
	}
	if err := setPassword(db, &u, password, s.now()); err != nil {
		return users.User{}, "", err
	}
	token, err := s.Tokens.Issue(u)
	return u, token, err
}

// setPassword stores the hash and marks the change one second in the past
// so a token issued right after still verifies.
func setPassword(db *gorm.DB, u *users.User, password string, now time.Time) error {
	hashed, err := users.HashPassword(password)
	if err != nil {
		return err
	}
	changed := now.Add(-time.Second)
	err = db.Model(u).Updates(map[string]any{
		"password":            hashed,
		"password_changed_at": changed,
	}).Error
	if err != nil {
		return apperr.FromDB(err, "")
	}
	u.Password = &hashed
	u.PasswordChangedAt = &changed
	return nil
}

// ---- helpers

func hasPasswordKey(body map[string]any) bool {
	for _, k := range []string{"password", "password_confirm", "passwordConfirm"} {
		if _, ok := body[k]; ok {
			return true
		}
	}
	return false
}

// profileUpdates validates the allowed keys of body and maps them to columns.
// Keys outside allowed are ignored.
func profileUpdates(body map[string]any, allowed ...string) (map[string]any, error) {
	updates := map[string]any{}
	for _, key := range allowed {
		raw, ok := body[key]
		if !ok {
			continue
		}
		switch key {
		case "name":
			v, ok := raw.(string)
			v = strings.TrimSpace(v)
			if !ok || v == "" || len(v) > MaxNameLen {
				return nil, apperr.Newf(apperr.InvalidInput, "name must be 1 to %d characters", MaxNameLen)
			}
			updates["name"] = v
		case "email":
			v, ok := raw.(string)
			v = auth.NormalizeEmail(v)
			if !ok || !respond.ValidateVar(v, "required,email") {
				return nil, apperr.New(apperr.InvalidInput, "Please provide a valid email")
			}
			updates["email"] = v
		case "bio":
			v, ok := raw.(string)
			if !ok || len(v) > MaxBioLen {
				return nil, apperr.Newf(apperr.InvalidInput, "bio must be at most %d characters", MaxBioLen)
			}
			updates["bio"] = v
		case "picture":
			ref, err := pictureRef(raw)
			if err != nil {
				return nil, err
			}
			updates["picture_url"] = ref.URL
			updates["picture_public_id"] = ref.PublicID
		case "role":
			v, _ := raw.(string)
			if err := access.ValidateRole(v); err != nil {
				return nil, err
			}
			updates["role"] = v
		case "active":
			v, ok := raw.(bool)
			if !ok {
				return nil, apperr.New(apperr.InvalidInput, "active must be a boolean")
			}
			updates["active"] = v
		}
	}
	return updates, nil
}

func pictureRef(raw any) (media.ImageRef, error) {
	switch v := raw.(type) {
	case nil:
		return media.ImageRef{}, nil
	case string:
		if v != "" && !respond.ValidateVar(v, "url") {
			return media.ImageRef{}, apperr.New(apperr.InvalidInput, "picture must be a URL")
		}
		return media.ImageRef{URL: v}, nil
	case map[string]any:
		u, _ := v["url"].(string)
		id, _ := v["public_id"].(string)
		if u != "" && !respond.ValidateVar(u, "url") {
			return media.ImageRef{}, apperr.New(apperr.InvalidInput, "picture.url must be a URL")
		}
		return media.ImageRef{URL: u, PublicID: id}, nil
	}
	return media.ImageRef{}, apperr.New(apperr.InvalidInput, "picture must be a URL or an object")
}

func (s *Service) applyUpdates(ctx context.Context, id uint, updates map[string]any, activeOnly bool) (users.User, error) {
	db := s.DB.WithContext(ctx)
	scoped := db.Model(&users.User{}).Where("id = ?", id)
	if activeOnly {
		scoped = scoped.Scopes(users.ActiveOnly)
	}
	if len(updates) > 0 {
		res := scoped.Updates(updates)
		if res.Error != nil {
			if apperr.IsDuplicate(res.Error) {
				return users.User{}, apperr.New(apperr.Conflict, "Email already in use")
			}
			return users.User{}, apperr.FromDB(res.Error, "")
		}
	}
	var u users.User
	if err := db.First(&u, id).Error; err != nil {
		return users.User{}, apperr.FromDB(err, userNotFound)
	}
	if activeOnly && !u.Active {
		return users.User{}, apperr.New(apperr.NotFound, userNotFound)
	}
	return u, nil
}

// ParseID parses a numeric user id path parameter. The whole value must be
// a positive decimal number.
func ParseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, apperr.Newf(apperr.InvalidInput, "Invalid id: %s", raw)
	}
	return uint(id), nil
}
