package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gallery-api/internal/api/auth"
	"gallery-api/internal/api/respond"
	"gallery-api/internal/domain/access"
	"gallery-api/internal/domain/users"
	"gallery-api/internal/logging"
	"gallery-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *auth.Service {
	t.Helper()
	return &auth.Service{
		DB:     testutil.NewDB(t),
		Tokens: auth.NewTokenManager("test-secret", time.Hour),
		Log:    logging.Discard(),
	}
}

func protectedRouter(svc *auth.Service, roles ...access.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := []gin.HandlerFunc{AuthMiddleware(svc)}
	if len(roles) > 0 {
		chain = append(chain, RequireRole(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		a := respond.Actor(c)
		c.JSON(http.StatusOK, gin.H{"id": a.ID, "role": a.Role})
	})
	r.GET("/private", chain...)
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareSetsActor(t *testing.T) {
	svc := newAuthService(t)
	u := testutil.CreateUser(t, svc.DB, users.RoleArtist)
	token, err := svc.Tokens.Issue(u)
	require.NoError(t, err)

	w := get(protectedRouter(svc), token)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, u.ID, body["id"])
	assert.Equal(t, "artist", body["role"])
}

func TestAuthMiddlewareAcceptsCookie(t *testing.T) {
	svc := newAuthService(t)
	u := testutil.CreateUser(t, svc.DB, users.RoleViewer)
	token, err := svc.Tokens.Issue(u)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: token})
	w := httptest.NewRecorder()
	protectedRouter(svc).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareRejections(t *testing.T) {
	svc := newAuthService(t)
	r := protectedRouter(svc)

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "not-a-token").Code)

	gone := testutil.CreateUser(t, svc.DB, users.RoleViewer)
	token, err := svc.Tokens.Issue(gone)
	require.NoError(t, err)
	require.NoError(t, svc.DB.Model(&gone).Update("active", false).Error)
	assert.Equal(t, http.StatusUnauthorized, get(r, token).Code)

	changed := testutil.CreateUser(t, svc.DB, users.RoleViewer)
	token, err = svc.Tokens.Issue(changed)
	require.NoError(t, err)
	require.NoError(t, svc.DB.Model(&changed).Update("password_changed_at", time.Now().UTC().Add(time.Minute)).Error)
	assert.Equal(t, http.StatusUnauthorized, get(r, token).Code)
}

func TestRequireRole(t *testing.T) {
	svc := newAuthService(t)
	r := protectedRouter(svc, access.RoleAdmin)

	viewer := testutil.CreateUser(t, svc.DB, users.RoleViewer)
	token, err := svc.Tokens.Issue(viewer)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(r, token).Code)

	admin := testutil.CreateUser(t, svc.DB, users.RoleAdmin)
	token, err = svc.Tokens.Issue(admin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(r, token).Code)
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newAuthService(t)
	r := gin.New()
	r.GET("/private", OptionalAuth(svc), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"authenticated": respond.Actor(c).Authenticated()})
	})

	assert.JSONEq(t, `{"authenticated":false}`, get(r, "").Body.String())
	assert.JSONEq(t, `{"authenticated":false}`, get(r, "garbage").Body.String())

	u := testutil.CreateUser(t, svc.DB, users.RoleViewer)
	token, err := svc.Tokens.Issue(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"authenticated":true}`, get(r, token).Body.String())
}

func echoRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SanitizeAndCleanInputMiddleware())
	r.POST("/echo", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.Data(http.StatusOK, "application/json", b)
	})
	return r
}

func postJSON(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSanitizerStripsMarkupAtAnyDepth(t *testing.T) {
	w := postJSON(echoRouter(), `{
		"title": "<script>alert(1)</script>Sunset",
		"price": 12.5,
		"tags": ["<b>oil</b>", "a & b"],
		"dimensions": {"unit": "<i>cm</i>"},
		"password": "p<a>ss"
	}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"title": "Sunset",
		"price": 12.5,
		"tags": ["oil", "a & b"],
		"dimensions": {"unit": "cm"},
		"password": "p<a>ss"
	}`, w.Body.String())
}

func TestSanitizerRejectsMalformedJSONAndSkipsOtherBodies(t *testing.T) {
	r := echoRouter()
	w := postJSON(r, `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("<b>raw</b>"))
	req.Header.Set("Content-Type", "text/plain")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "<b>raw</b>", w.Body.String())
}

func TestRateLimitFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	r := gin.New()
	r.Use(RateLimit(rdb, 1, time.Minute, KeyByIP()))
	r.GET("/private", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(r, "").Code)
	}

	r = gin.New()
	r.Use(RateLimit(nil, 1, time.Minute, KeyByIP()))
	r.GET("/private", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, get(r, "").Code)
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(logging.Discard()))
	r.GET("/private", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := get(r, "")
	id := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set(RequestIDHeader, "3f1e2c1a-9d5b-4f7e-8a11-0c2b3d4e5f60")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "3f1e2c1a-9d5b-4f7e-8a11-0c2b3d4e5f60", w.Header().Get(RequestIDHeader))
}
