package auth

import (
	"context"
	"testing"
	"time"

	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/users"
	"gallery-api/internal/infra/notify"
	"gallery-api/internal/logging"
	"gallery-api/internal/testutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *testutil.Notifier) {
	t.Helper()
	n := &testutil.Notifier{}
	return &Service{
		DB:       testutil.NewDB(t),
		Tokens:   NewTokenManager("test-secret", time.Hour),
		Notifier: n,
		Log:      logging.Discard(),
		AppName:  "Gallery",
		AppURL:   "http://localhost:5173",
	}, n
}

func TestSignupCreatesViewerAndSendsWelcome(t *testing.T) {
	svc, n := newService(t)
	user, token, err := svc.Signup(context.Background(), SignupInput{
		Name:            "Ada",
		Email:           " Ada@Example.com ",
		Password:        "pass1234",
		PasswordConfirm: "pass1234",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, users.RoleViewer, user.Role)
	assert.NotEmpty(t, token)

	sent := n.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, notify.Welcome, sent[0].Kind)

	_, _, err = svc.Signup(context.Background(), SignupInput{Name: "Ada", Email: "ada@example.com", Password: "pass1234", PasswordConfirm: "pass1234"})
	assert.True(t, apperr.IsKind(err, apperr.Conflict))
}

func TestSignupRejectsAdminRoleAndWeakPasswords(t *testing.T) {
	svc, _ := newService(t)
	_, _, err := svc.Signup(context.Background(), SignupInput{Name: "Eve", Email: "eve@example.com", Password: "pass1234", PasswordConfirm: "pass1234", Role: users.RoleAdmin})
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput))

	_, _, err = svc.Signup(context.Background(), SignupInput{Name: "Eve", Email: "eve@example.com", Password: "pass1234", PasswordConfirm: "pass4321"})
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput))
}

func TestSignupSucceedsWhenWelcomeFails(t *testing.T) {
	svc, n := newService(t)
	n.Err = assert.AnError
	_, _, err := svc.Signup(context.Background(), SignupInput{Name: "Bo", Email: "bo@example.com", Password: "pass1234", PasswordConfirm: "pass1234", Role: users.RoleArtist})
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	svc, _ := newService(t)
	u := testutil.CreateUser(t, svc.DB, users.RoleArtist)

	got, token, err := svc.Login(context.Background(), u.Email, "pass1234")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	claims, err := svc.Tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, users.RoleArtist, claims.Role)

	_, _, err = svc.Login(context.Background(), u.Email, "wrong1234")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, _, err = svc.Login(context.Background(), "nobody@example.com", "pass1234")
	assert.ErrorIs(t, err, ErrBadCredentials)

	require.NoError(t, svc.DB.Model(&users.User{}).Where("id = ?", u.ID).Update("active", false).Error)
	_, _, err = svc.Login(context.Background(), u.Email, "pass1234")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestTokenParseRejectsTamperedAndExpired(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	token, err := m.Issue(users.User{ID: 7, Email: "a@example.com", Role: users.RoleViewer})
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Minute).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = m.Parse(token)
	assert.True(t, apperr.IsKind(err, apperr.Unauthorized))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewTokenManager("secret", time.Minute).Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCurrentUserRejectsTokenIssuedBeforePasswordChange(t *testing.T) {
	svc, _ := newService(t)
	u := testutil.CreateUser(t, svc.DB, users.RoleViewer)

	issued := time.Now().UTC().Add(-time.Hour)
	claims := &Claims{UserID: u.ID, RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(issued)}}

	_, err := svc.CurrentUser(context.Background(), claims)
	require.NoError(t, err)

	changed := time.Now().UTC()
	require.NoError(t, svc.DB.Model(&users.User{}).Where("id = ?", u.ID).Update("password_changed_at", changed).Error)
	_, err = svc.CurrentUser(context.Background(), claims)
	assert.True(t, apperr.IsKind(err, apperr.Unauthorized))

	_, err = svc.CurrentUser(context.Background(), &Claims{UserID: 999})
	assert.True(t, apperr.IsKind(err, apperr.Unauthorized))
}

func TestFindOrCreateGoogleUser(t *testing.T) {
	svc, _ := newService(t)
	existing := testutil.CreateUser(t, svc.DB, users.RoleArtist)

	linked, err := FindOrCreateGoogleUser(svc.DB, &GoogleClaims{Sub: "g-1", Email: existing.Email, EmailVerified: true})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, linked.ID)
	require.NotNil(t, linked.GoogleSub)
	assert.Equal(t, "g-1", *linked.GoogleSub)

	again, err := FindOrCreateGoogleUser(svc.DB, &GoogleClaims{Sub: "g-1", Email: "changed@example.com"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, again.ID)

	fresh, err := FindOrCreateGoogleUser(svc.DB, &GoogleClaims{Sub: "g-2", Email: "New@Example.com", Name: "New Person"})
	require.NoError(t, err)
	assert.Equal(t, users.RoleViewer, fresh.Role)
	assert.Equal(t, users.ProviderGoogle, fresh.AuthProvider)
	assert.Equal(t, "new@example.com", fresh.Email)
	assert.False(t, fresh.HasPassword())
}
