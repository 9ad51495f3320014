package orders

import (
	"context"
	"errors"
	"time"

	"gallery-api/internal/apperr"
	"gallery-api/internal/domain/orders"
	"gallery-api/internal/domain/works"
	"gallery-api/internal/infra/metrics"
	"gallery-api/internal/infra/notify"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Webhook outcomes, recorded with the event and exported as metric labels.
const (
	OutcomeDuplicate       = "duplicate"
	OutcomeIgnored         = "ignored"
	OutcomeAwaitingPayment = "awaiting_payment"
	OutcomeOrderNotFound   = "order_not_found"
	OutcomePaid            = "paid"
	OutcomeAlreadyPaid     = "already_paid"
	OutcomeAlreadySold     = "already_sold"
	OutcomeRefunded        = "refunded_cancelled"
	OutcomeCancelled       = "cancelled"
	OutcomeError           = "error"
)

// replayBatch bounds the failed events replayed per run.
const replayBatch = 100

var (
	errSoldElsewhere  = errors.New("artwork sold to another order")
	errAlreadySettled = errors.New("order already settled")
)

// HandlePaymentWebhook verifies and applies one provider event. A bad
// signature is returned as an error. Once the event is authentic a
// processing failure is stored for replay and still acknowledged; only
// when that store fails too is an error returned, so the provider retries.
func (s *Service) HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) (string, error) {
	ev, err := s.Payments.ParseEvent(payload, signature)
	if err != nil {
		metrics.RecordWebhook("", "bad_signature")
		if !apperr.Operational(err) {
			err = apperr.Wrap(apperr.InvalidInput, "Webhook signature verification failed", err)
		}
		return "", err
	}

	log := s.Log.WithFields(logrus.Fields{"event_id": ev.ID, "event_type": ev.Type, "session_id": ev.SessionID})
	outcome, err := s.apply(ctx, ev, log)
	if err != nil {
		log.WithError(err).Error("webhook processing failed, queued for replay")
		metrics.RecordWebhook(ev.Type, OutcomeError)
		if rerr := recordFailure(s.DB.WithContext(context.WithoutCancel(ctx)), ev, err, s.now()); rerr != nil {
			log.WithError(rerr).Error("webhook failure could not be stored")
			return "", apperr.Wrap(apperr.Internal, "Webhook could not be processed", err)
		}
		return OutcomeError, nil
	}
	log.WithField("outcome", outcome).Info("webhook processed")
	metrics.RecordWebhook(ev.Type, outcome)
	return outcome, nil
}

// RetryFailedWebhooks replays stored events whose processing failed and
// reports how many now went through.
func (s *Service) RetryFailedWebhooks(ctx context.Context) (int64, error) {
	db := s.DB.WithContext(ctx)
	var failed []orders.WebhookEvent
	if err := db.Where("outcome = ?", OutcomeError).Order("received_at").Limit(replayBatch).Find(&failed).Error; err != nil {
		return 0, apperr.FromDB(err, "")
	}

	var repaired int64
	for _, w := range failed {
		ev := w.Event()
		log := s.Log.WithFields(logrus.Fields{"event_id": ev.ID, "event_type": ev.Type, "session_id": ev.SessionID})
		outcome, err := s.process(ctx, ev, log)
		if err != nil {
			log.WithError(err).WithField("attempts", w.Attempts+1).Error("webhook replay failed")
			if rerr := recordFailure(db, ev, err, w.ReceivedAt); rerr != nil {
				return repaired, apperr.FromDB(rerr, "")
			}
			continue
		}
		log.WithField("outcome", outcome).Info("webhook replayed")
		metrics.RecordWebhook(ev.Type, outcome)
		repaired++
	}
	return repaired, nil
}

// apply skips events already settled and processes the rest. An event
// stored as failed is processed again when the provider redelivers it.
func (s *Service) apply(ctx context.Context, ev orders.PaymentEvent, log logrus.FieldLogger) (string, error) {
	var seen int64
	err := s.DB.WithContext(ctx).Model(&orders.WebhookEvent{}).
		Where("id = ? AND outcome <> ?", ev.ID, OutcomeError).
		Count(&seen).Error
	if err != nil {
		return "", err
	}
	if seen > 0 {
		return OutcomeDuplicate, nil
	}
	return s.process(ctx, ev, log)
}

// process routes the event and records its outcome.
func (s *Service) process(ctx context.Context, ev orders.PaymentEvent, log logrus.FieldLogger) (string, error) {
	var outcome string
	var err error
	switch ev.Type {
	case orders.EventCheckoutCompleted, orders.EventAsyncPaymentSucceeded:
		if !ev.Paid {
			outcome = OutcomeAwaitingPayment
			break
		}
		// settle records the event itself, inside its transaction
		return s.settle(ctx, ev, log)
	case orders.EventCheckoutExpired, orders.EventAsyncPaymentFailed:
		outcome, err = s.abandon(ctx, ev)
	default:
		outcome = OutcomeIgnored
	}
	if err != nil {
		return "", err
	}
	return outcome, recordEvent(s.DB.WithContext(ctx), ev, outcome, s.now())
}

// settle marks the order paid and its artworks sold in one transaction.
// Both writes are conditional: the artwork must still be available and
// the payment still pending, so two buyers can never both own a piece.
func (s *Service) settle(ctx context.Context, ev orders.PaymentEvent, log logrus.FieldLogger) (string, error) {
	db := s.DB.WithContext(ctx)

	o, err := s.findOrder(db, ev)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("no order matches the paid checkout session")
		return OutcomeOrderNotFound, recordEvent(db, ev, OutcomeOrderNotFound, s.now())
	}
	if err != nil {
		return "", err
	}
	log = log.WithField("order_id", o.ID)

	intent := optional(ev.PaymentIntentID)
	now := s.now()
	var outcome string

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&o, "id = ?", o.ID).Error; err != nil {
			return err
		}
		switch {
		case o.Payment.Paid():
			outcome = OutcomeAlreadyPaid
			return recordEvent(tx, ev, outcome, now)
		case o.Status == orders.StatusCancelled:
			outcome = OutcomeRefunded
			if err := tx.Model(&orders.Order{}).Where("id = ?", o.ID).Update("payment_intent_id", intent).Error; err != nil {
				return err
			}
			return recordEvent(tx, ev, outcome, now)
		}

		for _, it := range o.Items {
			res := tx.Model(&works.Artwork{}).
				Where("id = ? AND status = ?", it.ArtworkID, works.StatusAvailable).
				Updates(map[string]any{"status": works.StatusSold, "sold_order_id": o.ID})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errSoldElsewhere
			}
		}

		updates := map[string]any{
			"status":            orders.StatusProcessing,
			"payment_status":    orders.PaymentSucceeded,
			"payment_paid_at":   now,
			"payment_intent_id": intent,
		}
		if o.Payment.SessionID == nil && ev.SessionID != "" {
			updates["payment_session_id"] = ev.SessionID
		}
		res := tx.Model(&orders.Order{}).
			Where("id = ? AND payment_status = ?", o.ID, orders.PaymentPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// settled concurrently by a redelivery; roll back our artwork writes
			outcome = OutcomeAlreadyPaid
			return errAlreadySettled
		}
		o.Status = orders.StatusProcessing
		o.Payment.Status = orders.PaymentSucceeded
		o.Payment.PaidAt = &now
		o.Payment.IntentID = intent
		outcome = OutcomePaid
		return recordEvent(tx, ev, outcome, now)
	})

	switch {
	case errors.Is(err, errAlreadySettled):
		return OutcomeAlreadyPaid, recordEvent(db, ev, OutcomeAlreadyPaid, now)
	case errors.Is(err, errSoldElsewhere):
		return s.rejectSold(ctx, o, ev, log)
	case err != nil:
		return "", err
	}

	switch outcome {
	case OutcomePaid:
		s.notifyOrder(ctx, o, notify.OrderConfirmation)
	case OutcomeRefunded:
		log.Warn("payment arrived for a cancelled order")
		s.refund(ctx, o.ID, intent)
	}
	return outcome, nil
}

// rejectSold cancels an order whose artwork was sold to someone else
// between checkout and payment, and refunds the buyer.
func (s *Service) rejectSold(ctx context.Context, o orders.Order, ev orders.PaymentEvent, log logrus.FieldLogger) (string, error) {
	db := s.DB.WithContext(ctx)
	intent := optional(ev.PaymentIntentID)
	now := s.now()

	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&orders.Order{}).
			Where("id = ? AND payment_status = ?", o.ID, orders.PaymentPending).
			Updates(map[string]any{
				"status":            orders.StatusCancelled,
				"payment_status":    orders.PaymentFailed,
				"payment_intent_id": intent,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// the sale that beat us was this very order
			return errAlreadySettled
		}
		return recordEvent(tx, ev, OutcomeAlreadySold, now)
	})
	if errors.Is(err, errAlreadySettled) {
		return OutcomeAlreadyPaid, recordEvent(db, ev, OutcomeAlreadyPaid, now)
	}
	if err != nil {
		return "", err
	}
	log.Warn("artwork already sold, order cancelled")
	s.refund(ctx, o.ID, intent)
	return OutcomeAlreadySold, nil
}

// abandon cancels the pending order of an expired or failed session.
func (s *Service) abandon(ctx context.Context, ev orders.PaymentEvent) (string, error) {
	db := s.DB.WithContext(ctx)
	o, err := s.findOrder(db, ev)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return OutcomeOrderNotFound, nil
	}
	if err != nil {
		return "", err
	}
	res := db.Model(&orders.Order{}).
		Where("id = ? AND status = ? AND payment_status = ?", o.ID, orders.StatusPending, orders.PaymentPending).
		Updates(map[string]any{"status": orders.StatusCancelled, "payment_status": orders.PaymentFailed})
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return OutcomeIgnored, nil
	}
	return OutcomeCancelled, nil
}

// findOrder looks the order up by session id, then by the client
// reference id and metadata set at checkout.
func (s *Service) findOrder(db *gorm.DB, ev orders.PaymentEvent) (orders.Order, error) {
	var o orders.Order
	if ev.SessionID != "" {
		err := db.First(&o, "payment_session_id = ?", ev.SessionID).Error
		if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
			return o, err
		}
	}
	for _, id := range []string{ev.ClientReferenceID, ev.Metadata["order_id"]} {
		if id == "" {
			continue
		}
		err := db.First(&o, "id = ?", id).Error
		if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
			return o, err
		}
	}
	return orders.Order{}, gorm.ErrRecordNotFound
}

// onlyFailed limits an upsert to rows still marked as failed, so the
// first recorded outcome of a processed event is never overwritten.
var onlyFailed = clause.Where{Exprs: []clause.Expression{
	clause.Eq{Column: clause.Column{Table: "webhook_events", Name: "outcome"}, Value: OutcomeError},
}}

func recordEvent(db *gorm.DB, ev orders.PaymentEvent, outcome string, now time.Time) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		Where:     onlyFailed,
		DoUpdates: clause.Assignments(map[string]any{"outcome": outcome, "last_error": ""}),
	}).Create(&orders.WebhookEvent{
		ID:         ev.ID,
		Type:       ev.Type,
		Outcome:    outcome,
		ReceivedAt: now,
	}).Error
}

// recordFailure stores a failed event with what a replay needs.
func recordFailure(db *gorm.DB, ev orders.PaymentEvent, cause error, now time.Time) error {
	msg := cause.Error()
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		Where:   onlyFailed,
		DoUpdates: clause.Assignments(map[string]any{
			"attempts":   gorm.Expr("webhook_events.attempts + 1"),
			"last_error": msg,
		}),
	}).Create(&orders.WebhookEvent{
		ID:                ev.ID,
		Type:              ev.Type,
		Outcome:           OutcomeError,
		ReceivedAt:        now,
		SessionID:         ev.SessionID,
		ClientReferenceID: ev.ClientReferenceID,
		OrderRef:          ev.Metadata["order_id"],
		PaymentIntentID:   ev.PaymentIntentID,
		Paid:              ev.Paid,
		Attempts:          1,
		LastError:         msg,
	}).Error
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
