// Package stripewebhooks receives the payment provider's webhook calls.
package stripewebhooks

import (
	"errors"
	"io"
	"net/http"

	"gallery-api/internal/api/orders"
	"gallery-api/internal/api/respond"
	"gallery-api/internal/apperr"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes bounds the raw webhook body.
const MaxBodyBytes = 65536

type Handler struct {
	orders *orders.Service
}

func NewHandler(svc *orders.Service) *Handler {
	return &Handler{orders: svc}
}

// POST /orders/webhook
//
// Mounted outside the JSON sanitizer: the signature covers the exact bytes.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := readStripeBody(c, MaxBodyBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, apperr.New(apperr.InvalidInput, "Webhook payload too large"))
			return
		}
		respond.Error(c, apperr.Wrap(apperr.InvalidInput, "Error reading request body", err))
		return
	}

	outcome, err := h.orders.HandlePaymentWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	// processing failures are queued for replay and still acknowledged
	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
