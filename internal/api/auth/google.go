package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"gallery-api/internal/api/respond"
	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/users"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const googleIssuer = "https://accounts.google.com"

type GoogleConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	FrontendRedirect string
	SecureCookie     bool
}

// Google runs the OpenID Connect sign-in flow against Google.
type Google struct {
	cfg   GoogleConfig
	oauth *oauth2.Config
	svc   *Service

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

func NewGoogle(cfg GoogleConfig, svc *Service) *Google {
	return &Google{
		cfg: cfg,
		svc: svc,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				oidc.ScopeOpenID,
				"email",
				"profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GET /auth/google
func (g *Google) Start(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		respond.Error(c, apperr.Wrap(apperr.Internal, "failed to generate state", err))
		return
	}

	c.SetCookie(
		"oauth_state",
		state,
		300, // 5 minutes
		"/",
		"",
		g.cfg.SecureCookie,
		true, // httpOnly
	)

	c.Redirect(http.StatusFound, g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GET /auth/google/callback
func (g *Google) Callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" {
		respond.Error(c, apperr.New(apperr.InvalidInput, "missing code/state"))
		return
	}

	cookieState, err := c.Cookie("oauth_state")
	if err != nil || cookieState != state {
		respond.Error(c, apperr.New(apperr.InvalidInput, "invalid oauth state"))
		return
	}
	c.SetCookie("oauth_state", "", -1, "/", "", g.cfg.SecureCookie, true)

	ctx := c.Request.Context()
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		respond.Error(c, apperr.Wrap(apperr.Unauthorized, "failed to exchange code", err))
		return
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		respond.Error(c, apperr.New(apperr.Unauthorized, "missing id_token"))
		return
	}

	claims, err := g.verify(ctx, rawIDToken)
	if err != nil {
		respond.Error(c, err)
		return
	}

	user, err := FindOrCreateGoogleUser(g.svc.DB.WithContext(ctx), claims)
	if err != nil {
		respond.Error(c, err)
		return
	}

	token, err := g.svc.Tokens.Issue(user)
	if err != nil {
		respond.Error(c, err)
		return
	}

	if g.cfg.FrontendRedirect == "" {
		SendToken(c, http.StatusOK, user, token)
		return
	}
	c.Redirect(http.StatusFound, g.cfg.FrontendRedirect+"?token="+url.QueryEscape(token))
}

/* ---------------- helpers ---------------- */

type GoogleClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	Picture       string `json:"picture"`
}

func (g *Google) idVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.verifier != nil {
		return g.verifier, nil
	}
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, apperr.Wrap(apperr.ExternalServiceFailure, "failed to init google oidc provider", err)
	}
	g.verifier = provider.Verifier(&oidc.Config{ClientID: g.cfg.ClientID})
	return g.verifier, nil
}

func (g *Google) verify(ctx context.Context, rawIDToken string) (*GoogleClaims, error) {
	verifier, err := g.idVerifier(ctx)
	if err != nil {
		return nil, err
	}
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthorized, "invalid id_token", err)
	}

	var claims GoogleClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, apperr.Wrap(apperr.Unauthorized, "failed to decode token claims", err)
	}
	if claims.Email == "" || claims.Sub == "" {
		return nil, apperr.New(apperr.Unauthorized, "token missing required claims")
	}
	if !claims.EmailVerified {
		return nil, apperr.New(apperr.Unauthorized, "google account email is not verified")
	}
	return &claims, nil
}

// FindOrCreateGoogleUser resolves a Google identity to an account: by
// subject, then by email (linking the subject), else a new viewer.
// Deactivated accounts are refused.
func FindOrCreateGoogleUser(db *gorm.DB, gc *GoogleClaims) (users.User, error) {
	var user users.User
	email := NormalizeEmail(gc.Email)

	// 1) Try by google_sub
	err := db.Where("google_sub = ?", gc.Sub).First(&user).Error
	if err == nil {
		return activeOrRefuse(user)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return users.User{}, apperr.FromDB(err, "")
	}

	// 2) Try by email, then link google_sub if missing
	err = db.Where("email = ?", email).First(&user).Error
	if err == nil {
		if _, err := activeOrRefuse(user); err != nil {
			return users.User{}, err
		}
		if user.GoogleSub == nil {
			sub := gc.Sub
			if err := db.Model(&user).Update("google_sub", sub).Error; err != nil {
				return users.User{}, apperr.FromDB(err, "")
			}
			user.GoogleSub = &sub
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return users.User{}, apperr.FromDB(err, "")
	}

	// 3) Create new user (google)
	sub := gc.Sub
	user = users.User{
		Name:         firstNonEmpty(gc.Name, gc.GivenName, email),
		Email:        email,
		AuthProvider: users.ProviderGoogle,
		GoogleSub:    &sub,
		Role:         users.RoleViewer,
		Active:       true,
	}
	user.Picture.URL = gc.Picture
	if err := db.Create(&user).Error; err != nil {
		return users.User{}, apperr.FromDB(err, "")
	}
	return user, nil
}

func activeOrRefuse(u users.User) (users.User, error) {
	if !u.Active {
		return users.User{}, apperr.New(apperr.Unauthorized, "This account has been deactivated")
	}
	return u, nil
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
