package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsMatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/v1/artworks/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/artworks/:id", "418"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/artworks/abc", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/artworks/:id", "418")))
}

func TestCountersAndHandler(t *testing.T) {
	RecordCheckout("created")
	RecordWebhook("", "ignored")
	RecordNotification("welcome", true)
	RecordJob("sweep", 0, true)

	assert.GreaterOrEqual(t, testutil.ToFloat64(webhookEvents.WithLabelValues("unknown", "ignored")), 1.0)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gallery_orders_checkout_sessions_total")
}
