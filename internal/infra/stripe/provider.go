// Package stripe adapts stripe-go to the orders.PaymentProvider contract.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/orders"

	stripego "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
	"github.com/stripe/stripe-go/v75/webhook"
)

// Stripe only accepts checkout expiries between 30 minutes and 24 hours out.
const (
	minSessionTTL = 30 * time.Minute
	maxSessionTTL = 24 * time.Hour
)

type Provider struct {
	api           *client.API
	webhookSecret string
	now           func() time.Time
}

func NewProvider(secretKey, webhookSecret string) *Provider {
	return &Provider{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
		now:           time.Now,
	}
}

func (p *Provider) CreateCheckoutSession(ctx context.Context, req orders.CheckoutRequest) (orders.CheckoutSession, error) {
	product := &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripego.String(req.Title),
	}
	if req.Description != "" {
		product.Description = stripego.String(truncate(req.Description, 500))
	}
	if req.ImageURL != "" {
		product.Images = []*string{stripego.String(req.ImageURL)}
	}

	params := &stripego.CheckoutSessionParams{
		Mode:       stripego.String(string(stripego.CheckoutSessionModePayment)),
		SuccessURL: stripego.String(req.SuccessURL),
		CancelURL:  stripego.String(req.CancelURL),
		LineItems: []*stripego.CheckoutSessionLineItemParams{
			{
				PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripego.String(req.Currency),
					UnitAmount:  stripego.Int64(req.AmountCents),
					ProductData: product,
				},
				Quantity: stripego.Int64(1),
			},
		},
		ClientReferenceID: stripego.String(req.OrderID),
		ExpiresAt:         stripego.Int64(p.clampExpiry(req.ExpiresAt).Unix()),
		PaymentIntentData: &stripego.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{"order_id": req.OrderID},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripego.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata("order_id", req.OrderID)
	params.AddMetadata("artwork_id", req.ArtworkID)
	params.AddMetadata("user_id", fmt.Sprint(req.UserID))

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return orders.CheckoutSession{}, err
	}
	return orders.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (p *Provider) clampExpiry(at time.Time) time.Time {
	now := p.now()
	if at.Before(now.Add(minSessionTTL)) {
		return now.Add(minSessionTTL)
	}
	if at.After(now.Add(maxSessionTTL)) {
		return now.Add(maxSessionTTL)
	}
	return at
}

func (p *Provider) ParseEvent(payload []byte, signature string) (orders.PaymentEvent, error) {
	return ParseEvent(payload, signature, p.webhookSecret)
}

// ParseEvent verifies payload against secret and extracts the checkout
// session fields. Non-session events come back with only ID and Type.
func ParseEvent(payload []byte, signature, secret string) (orders.PaymentEvent, error) {
	if secret == "" {
		return orders.PaymentEvent{}, apperr.New(apperr.Internal, "STRIPE_WEBHOOK_SECRET not configured")
	}
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return orders.PaymentEvent{}, apperr.Wrap(apperr.InvalidInput, "Webhook signature verification failed", err)
	}

	out := orders.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if !strings.HasPrefix(out.Type, "checkout.session.") || event.Data == nil {
		return out, nil
	}

	var session stripego.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return orders.PaymentEvent{}, apperr.Wrap(apperr.InvalidInput, "Failed to parse session", err)
	}
	out.SessionID = session.ID
	out.ClientReferenceID = session.ClientReferenceID
	out.Paid = IsPaid(string(session.PaymentStatus))
	out.Metadata = session.Metadata
	if session.PaymentIntent != nil {
		out.PaymentIntentID = session.PaymentIntent.ID
	}
	return out, nil
}

func (p *Provider) Refund(ctx context.Context, paymentIntentID string) error {
	if paymentIntentID == "" {
		return apperr.New(apperr.InvalidInput, "missing payment intent")
	}
	params := &stripego.RefundParams{
		PaymentIntent: stripego.String(paymentIntentID),
		Reason:        stripego.String(string(stripego.RefundReasonDuplicate)),
	}
	params.Context = ctx
	_, err := p.api.Refunds.New(params)
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
