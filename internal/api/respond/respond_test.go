package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/access"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	h(c)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestErrorEnvelope(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) { Error(c, apperr.New(apperr.NotFound, "No artwork found with that ID")) })
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "No artwork found with that ID", body["message"])
}

func TestErrorIsLoggedAtDefaultLevel(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)

	serve(t, func(c *gin.Context) {
		c.Set(LoggerKey, logrus.FieldLogger(logger))
		Error(c, apperr.New(apperr.InvalidInput, "Invalid id: 12abc"))
	})
	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, http.StatusBadRequest, entry.Data["status"])

	hook.Reset()
	serve(t, func(c *gin.Context) {
		c.Set(LoggerKey, logrus.FieldLogger(logger))
		Error(c, errors.New("boom"))
	})
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestErrorHidesUnexpectedMessagesInProduction(t *testing.T) {
	SetProduction(true)
	defer SetProduction(false)

	w, body := serve(t, func(c *gin.Context) { Error(c, errors.New("pq: relation does not exist")) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Something went very wrong!", body["message"])

	_, body = serve(t, func(c *gin.Context) {
		Error(c, apperr.New(apperr.ExternalServiceFailure, "There was an error sending the email. Try again later!"))
	})
	assert.Equal(t, "There was an error sending the email. Try again later!", body["message"])
}

func TestListEnvelope(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) { List(c, "artworks", []string{}, 0) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", body["status"])
	assert.EqualValues(t, 0, body["results"])
	assert.Equal(t, map[string]any{"artworks": []any{}}, body["data"])
}

func TestMustActor(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		_, ok := MustActor(c)
		assert.False(t, ok)
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "fail", body["status"])

	wrec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(wrec)
	c.Set(ActorKey, access.Actor{ID: 7, Role: access.RoleArtist})
	a, ok := MustActor(c)
	assert.True(t, ok)
	assert.Equal(t, uint(7), a.ID)
}
