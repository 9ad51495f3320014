// Package orders sells artworks: it opens checkout sessions with the
// payment provider and reconciles the provider's webhooks into order and
// artwork state.
package orders

import (
	"context"
	"errors"
	"net/url"
	"time"

	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/access"
	"gallery-api/internal/domain/money"
	"gallery-api/internal/domain/orders"
	"gallery-api/internal/domain/query"
	"gallery-api/internal/domain/users"
	"gallery-api/internal/domain/works"
	"gallery-api/internal/infra/metrics"
	"gallery-api/internal/infra/notify"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	orderNotFound   = "No order found with that ID"
	artworkNotFound = "No artwork found with that ID"

	maxSessionTTL = 24 * time.Hour
)

var (
	ErrAlreadySold = apperr.New(apperr.Conflict, "This artwork has already been sold")
	ErrNotForSale  = apperr.New(apperr.Conflict, "This artwork is not for sale")
	ErrOwnArtwork  = apperr.New(apperr.InvalidInput, "You cannot buy your own artwork")
	ErrNoPrice     = apperr.New(apperr.InvalidInput, "This artwork has no price set")
	ErrCheckout    = apperr.New(apperr.ExternalServiceFailure, "Could not create a checkout session. Please try again later.")
)

type Service struct {
	DB       *gorm.DB
	Payments orders.PaymentProvider
	Notifier notify.Notifier
	Log      logrus.FieldLogger

	AppName        string
	AppURL         string
	Currency       string
	PaymentTimeout time.Duration
	PendingTTL     time.Duration

	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) sessionTTL() time.Duration {
	if s.PendingTTL <= 0 || s.PendingTTL > maxSessionTTL {
		return maxSessionTTL
	}
	return s.PendingTTL
}

// CreateCheckoutSession persists a pending order for the artwork and opens
// a provider checkout for it. When the provider fails the order is
// cancelled again, so no pending order is left without a session.
func (s *Service) CreateCheckoutSession(ctx context.Context, actor access.Actor, artworkID string, in CheckoutInput) (CheckoutResult, error) {
	db := s.DB.WithContext(ctx)

	var a works.Artwork
	if err := db.First(&a, "id = ?", artworkID).Error; err != nil {
		return CheckoutResult{}, apperr.FromDB(err, artworkNotFound)
	}
	if err := access.Authorize(actor, access.Checkout, access.On(access.Order)); err != nil {
		return CheckoutResult{}, err
	}
	switch {
	case a.IsSold():
		metrics.RecordCheckout("already_sold")
		return CheckoutResult{}, ErrAlreadySold
	case a.Status == works.StatusNotForSale:
		return CheckoutResult{}, ErrNotForSale
	case a.PriceCents <= 0:
		return CheckoutResult{}, ErrNoPrice
	case a.ArtistID == actor.ID:
		return CheckoutResult{}, ErrOwnArtwork
	}

	var buyer users.User
	if err := db.Scopes(users.ActiveOnly).First(&buyer, actor.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CheckoutResult{}, access.ErrNotLoggedIn
		}
		return CheckoutResult{}, apperr.FromDB(err, "")
	}

	o := orders.Order{
		UserID: buyer.ID,
		Items: []orders.OrderItem{{
			ArtworkID:  a.ID,
			ArtistID:   a.ArtistID,
			Title:      a.Title,
			PriceCents: a.PriceCents,
		}},
		TotalCents: a.PriceCents,
		Currency:   s.Currency,
		Status:     orders.StatusPending,
		Payment:    orders.Payment{Method: orders.MethodStripe, Status: orders.PaymentPending},
	}
	if in.ShippingAddress != nil {
		o.Shipping = *in.ShippingAddress
	}
	if err := db.Omit("User").Create(&o).Error; err != nil {
		return CheckoutResult{}, apperr.FromDB(err, "")
	}

	log := s.Log.WithFields(logrus.Fields{"order_id": o.ID, "artwork_id": a.ID, "user_id": buyer.ID})

	pctx := ctx
	if s.PaymentTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, s.PaymentTimeout)
		defer cancel()
	}
	session, err := s.Payments.CreateCheckoutSession(pctx, orders.CheckoutRequest{
		OrderID:       o.ID,
		ArtworkID:     a.ID,
		UserID:        buyer.ID,
		CustomerEmail: buyer.Email,
		Title:         a.Title,
		Description:   a.Description,
		ImageURL:      a.Image.URL,
		AmountCents:   a.PriceCents,
		Currency:      s.Currency,
		SuccessURL:    s.AppURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.AppURL + "/artworks/" + url.PathEscape(a.ID),
		ExpiresAt:     s.now().Add(s.sessionTTL()),
	})
	if err != nil {
		metrics.RecordCheckout("provider_error")
		log.WithError(err).Error("checkout session failed, cancelling order")
		if cerr := db.Model(&orders.Order{}).
			Where("id = ? AND payment_status = ?", o.ID, orders.PaymentPending).
			Updates(map[string]any{"status": orders.StatusCancelled, "payment_status": orders.PaymentFailed}).Error; cerr != nil {
			log.WithError(cerr).Error("failed to cancel order after checkout failure")
		}
		return CheckoutResult{}, apperr.Wrap(ErrCheckout.Kind, ErrCheckout.Message, err)
	}

	// The webhook falls back to the client reference id, so a failed write
	// here does not orphan the session.
	if err := db.Model(&orders.Order{}).Where("id = ?", o.ID).Update("payment_session_id", session.ID).Error; err != nil {
		log.WithError(err).Warn("failed to store checkout session id")
	}
	metrics.RecordCheckout("created")

	return CheckoutResult{SessionID: session.ID, URL: session.URL, OrderID: o.ID}, nil
}

// ---- queries

// ListMine runs the query string over the actor's own orders.
func (s *Service) ListMine(ctx context.Context, actor access.Actor, params url.Values) ([]OrderDTO, []string, error) {
	if !actor.Authenticated() {
		return nil, nil, access.ErrNotLoggedIn
	}
	return s.list(ctx, params, func(db *gorm.DB) *gorm.DB {
		return db.Where("orders.user_id = ?", actor.ID)
	})
}

func (s *Service) ListAll(ctx context.Context, actor access.Actor, params url.Values) ([]OrderDTO, []string, error) {
	if err := access.Authorize(actor, access.ListAll, access.On(access.Order)); err != nil {
		return nil, nil, err
	}
	return s.list(ctx, params, nil)
}

func (s *Service) list(ctx context.Context, params url.Values, scope func(*gorm.DB) *gorm.DB) ([]OrderDTO, []string, error) {
	q := query.FromValues(orders.OrderSchema, params)
	base := s.DB.WithContext(ctx).Model(&orders.Order{})
	if scope != nil {
		base = base.Scopes(scope)
	}
	tx, err := q.Apply(base)
	if err != nil {
		return nil, nil, err
	}
	var list []orders.Order
	if err := tx.Preload("Items").Find(&list).Error; err != nil {
		return nil, nil, apperr.FromDB(err, "")
	}
	return toOrderDTOs(list), q.Fields(), nil
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id string) (OrderDTO, error) {
	var o orders.Order
	if err := s.DB.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error; err != nil {
		return OrderDTO{}, apperr.FromDB(err, orderNotFound)
	}
	if err := access.Authorize(actor, access.Read, access.OwnedBy(access.Order, o.UserID)); err != nil {
		return OrderDTO{}, err
	}
	return ToOrderDTO(o), nil
}

// UpdateStatus moves an order along its fulfilment path. Cancelling a paid
// order puts its artworks back on sale and asks the provider for a refund.
func (s *Service) UpdateStatus(ctx context.Context, actor access.Actor, id, status string) (OrderDTO, error) {
	var (
		o      orders.Order
		refund bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&o, "id = ?", id).Error; err != nil {
			return apperr.FromDB(err, orderNotFound)
		}
		if err := access.Authorize(actor, access.UpdateStatus, access.On(access.Order)); err != nil {
			return err
		}
		if err := orders.CheckTransition(o, status); err != nil {
			return err
		}
		res := tx.Model(&orders.Order{}).Where("id = ? AND status = ?", o.ID, o.Status).Update("status", status)
		if res.Error != nil {
			return apperr.FromDB(res.Error, "")
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.Conflict, "The order was modified by someone else. Please retry.")
		}
		if status == orders.StatusCancelled && o.Payment.Paid() {
			refund = true
			if err := tx.Model(&works.Artwork{}).
				Where("sold_order_id = ?", o.ID).
				Updates(map[string]any{"status": works.StatusAvailable, "sold_order_id": nil}).Error; err != nil {
				return apperr.FromDB(err, "")
			}
		}
		o.Status = status
		return nil
	})
	if err != nil {
		return OrderDTO{}, err
	}

	if refund {
		s.refund(ctx, o.ID, o.Payment.IntentID)
	}
	s.notifyOrder(ctx, o, notify.OrderStatus)
	return ToOrderDTO(o), nil
}

// ExpireStalePending cancels unpaid orders older than the pending TTL.
// Orders with a paid event still waiting for replay are left alone.
func (s *Service) ExpireStalePending(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.sessionTTL())
	awaitingReplay := s.DB.Model(&orders.WebhookEvent{}).Select("1").
		Where("webhook_events.outcome = ? AND webhook_events.paid = ?", OutcomeError, true).
		Where("webhook_events.session_id = orders.payment_session_id OR webhook_events.client_reference_id = orders.id OR webhook_events.order_ref = orders.id")
	res := s.DB.WithContext(ctx).Model(&orders.Order{}).
		Where("status = ? AND payment_status = ? AND created_at < ?", orders.StatusPending, orders.PaymentPending, cutoff).
		Where("NOT EXISTS (?)", awaitingReplay).
		Updates(map[string]any{"status": orders.StatusCancelled, "payment_status": orders.PaymentFailed})
	if res.Error != nil {
		return 0, apperr.FromDB(res.Error, "")
	}
	if res.RowsAffected > 0 {
		s.Log.WithField("count", res.RowsAffected).Info("expired stale pending orders")
	}
	return res.RowsAffected, nil
}

// ---- side effects

func (s *Service) refund(ctx context.Context, orderID string, intentID *string) {
	log := s.Log.WithField("order_id", orderID)
	if intentID == nil || *intentID == "" {
		log.Warn("refund needed but the order has no payment intent")
		return
	}
	if err := s.Payments.Refund(ctx, *intentID); err != nil {
		log.WithError(err).WithField("payment_intent_id", *intentID).Error("refund request failed")
		return
	}
	log.WithField("payment_intent_id", *intentID).Info("refund requested")
}

func (s *Service) notifyOrder(ctx context.Context, o orders.Order, kind notify.Kind) {
	var buyer users.User
	if err := s.DB.WithContext(ctx).Select("id", "name", "email").First(&buyer, o.UserID).Error; err != nil {
		s.Log.WithError(err).WithField("order_id", o.ID).Warn("order notification skipped: buyer not found")
		return
	}
	items := make([]notify.LineItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, notify.LineItem{Title: it.Title, Price: money.Format(it.PriceCents, o.Currency)})
	}
	_ = notify.Deliver(ctx, s.Notifier, s.Log, buyer.Email, kind, map[string]any{
		"Name":    buyer.Name,
		"AppName": s.AppName,
		"OrderID": o.ID,
		"Items":   items,
		"Total":   money.Format(o.TotalCents, o.Currency),
		"Status":  o.Status,
		"URL":     s.AppURL + "/orders/" + o.ID,
	})
}
