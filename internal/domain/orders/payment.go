package orders

import (
	"context"
	"time"
)

// CheckoutRequest is what the payment provider needs to open a hosted
// checkout for one artwork.
type CheckoutRequest struct {
	OrderID       string
	ArtworkID     string
	UserID        uint
	CustomerEmail string
	Title         string
	Description   string
	ImageURL      string
	AmountCents   int64
	Currency      string
	SuccessURL    string
	CancelURL     string
	ExpiresAt     time.Time
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Event types the reconciliation flow reacts to.
const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	EventCheckoutExpired       = "checkout.session.expired"
)

// PaymentEvent is a verified provider notification about a checkout session.
type PaymentEvent struct {
	ID                string
	Type              string
	SessionID         string
	ClientReferenceID string
	PaymentIntentID   string
	// Paid is true once funds are captured for the session.
	Paid     bool
	Metadata map[string]string
}

// PaymentProvider is the external processor behind checkout.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	// ParseEvent verifies the signature over the raw payload and decodes it.
	ParseEvent(payload []byte, signature string) (PaymentEvent, error)
	Refund(ctx context.Context, paymentIntentID string) error
}
