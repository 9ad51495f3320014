package auth

import (
	"context"
	"errors"
	"strings"

	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/users"
	"gallery-api/internal/infra/notify"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrBadCredentials = apperr.New(apperr.Unauthorized, "Incorrect email or password")

type Service struct {
	DB       *gorm.DB
	Tokens   *TokenManager
	Notifier notify.Notifier
	Log      logrus.FieldLogger
	AppName  string
	AppURL   string
}

type SignupInput struct {
	Name            string `json:"name" binding:"required,max=100"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
	Role            string `json:"role" binding:"omitempty,oneof=viewer artist admin"`
}

// Signup creates a local account and returns it with a fresh token.
// Admins cannot be created this way.
func (s *Service) Signup(ctx context.Context, in SignupInput) (users.User, string, error) {
	role := in.Role
	if role == "" {
		role = users.RoleViewer
	}
	if role == users.RoleAdmin {
		return users.User{}, "", apperr.New(apperr.InvalidInput, "You cannot sign up as an admin")
	}
	if err := users.ValidateNewPassword(in.Password, in.PasswordConfirm); err != nil {
		return users.User{}, "", err
	}
	hashed, err := users.HashPassword(in.Password)
	if err != nil {
		return users.User{}, "", err
	}

	user := users.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        NormalizeEmail(in.Email),
		Password:     &hashed,
		AuthProvider: users.ProviderLocal,
		Role:         role,
		Active:       true,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		if apperr.IsDuplicate(err) {
			return users.User{}, "", apperr.New(apperr.Conflict, "Email already in use")
		}
		return users.User{}, "", apperr.FromDB(err, "")
	}

	token, err := s.Tokens.Issue(user)
	if err != nil {
		return users.User{}, "", err
	}

	_ = notify.Deliver(ctx, s.Notifier, s.Log, user.Email, notify.Welcome, map[string]any{
		"Name":    user.Name,
		"AppName": s.AppName,
		"URL":     s.AppURL + "/me",
	})
	return user, token, nil
}

// Login checks credentials of an active account.
func (s *Service) Login(ctx context.Context, email, password string) (users.User, string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return users.User{}, "", apperr.New(apperr.InvalidInput, "Please provide email and password!")
	}
	var user users.User
	err := s.DB.WithContext(ctx).Scopes(users.ActiveOnly).
		Where("email = ?", NormalizeEmail(email)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return users.User{}, "", ErrBadCredentials
		}
		return users.User{}, "", apperr.FromDB(err, "")
	}
	if !user.HasPassword() {
		return users.User{}, "", apperr.New(apperr.Unauthorized, "This account uses Google sign-in")
	}
	if !users.CheckPassword(user, password) {
		return users.User{}, "", ErrBadCredentials
	}

	token, err := s.Tokens.Issue(user)
	if err != nil {
		return users.User{}, "", err
	}
	return user, token, nil
}

// CurrentUser loads the active account behind verified claims and rejects
// tokens issued before the last password change.
func (s *Service) CurrentUser(ctx context.Context, claims *Claims) (users.User, error) {
	var user users.User
	err := s.DB.WithContext(ctx).Scopes(users.ActiveOnly).First(&user, claims.UserID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return users.User{}, apperr.New(apperr.Unauthorized, "The user belonging to this token no longer exists.")
		}
		return users.User{}, apperr.FromDB(err, "")
	}
	if user.ChangedPasswordAfter(claims.IssuedTime()) {
		return users.User{}, apperr.New(apperr.Unauthorized, "User recently changed password! Please log in again.")
	}
	return user, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
