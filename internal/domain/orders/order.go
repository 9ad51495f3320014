package orders

import (
	"time"

	"gallery-api/internal/domain/users"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"

	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"

	MethodStripe = "stripe"
)

var Statuses = []string{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

type ShippingAddress struct {
	Street     string `gorm:"size:200" json:"street,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty"`
	State      string `gorm:"size:100" json:"state,omitempty"`
	PostalCode string `gorm:"size:20" json:"postal_code,omitempty"`
	Country    string `gorm:"size:100" json:"country,omitempty"`
}

func (a ShippingAddress) IsZero() bool { return a == ShippingAddress{} }

// Complete reports whether every line of the address is filled in.
func (a ShippingAddress) Complete() bool {
	return a.Street != "" && a.City != "" && a.State != "" && a.PostalCode != "" && a.Country != ""
}

type Payment struct {
	Method    string     `gorm:"type:varchar(20);not null;default:'stripe'" json:"method"`
	Status    string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	SessionID *string    `gorm:"size:255;uniqueIndex" json:"session_id,omitempty"`
	IntentID  *string    `gorm:"size:255" json:"payment_intent_id,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

// Paid is the single definition of a settled order.
func (p Payment) Paid() bool { return p.Status == PaymentSucceeded }

type Order struct {
	ID         string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     uint            `gorm:"not null;index" json:"user_id"`
	User       *users.User     `gorm:"foreignKey:UserID" json:"-"`
	Items      []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalCents int64           `gorm:"not null" json:"total_cents"`
	Currency   string          `gorm:"type:varchar(3);not null;default:'usd'" json:"currency"`
	Shipping   ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	Status     string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Payment    Payment         `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	CreatedAt  time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem snapshots what was bought. Title and price never follow later
// edits of the artwork, and the artwork may be deleted without touching it.
type OrderItem struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	OrderID    string `gorm:"type:varchar(36);not null;index" json:"-"`
	ArtworkID  string `gorm:"type:varchar(36);not null;index" json:"artwork_id"`
	ArtistID   uint   `gorm:"not null" json:"artist_id"`
	Title      string `gorm:"size:100;not null" json:"title"`
	PriceCents int64  `gorm:"not null" json:"price_cents"`
}

// WebhookEvent records a processed provider event so redeliveries are
// acknowledged without reprocessing. Events whose processing failed keep
// the fields needed to replay them.
type WebhookEvent struct {
	ID         string    `gorm:"size:255;primaryKey"`
	Type       string    `gorm:"size:100;not null"`
	Outcome    string    `gorm:"size:50;index"`
	ReceivedAt time.Time `gorm:"not null"`

	SessionID         string `gorm:"size:255;index"`
	ClientReferenceID string `gorm:"size:255"`
	OrderRef          string `gorm:"size:255"`
	PaymentIntentID   string `gorm:"size:255"`
	Paid              bool   `gorm:"not null;default:false"`
	Attempts          int    `gorm:"not null;default:0"`
	LastError         string `gorm:"size:500"`
}

// Event rebuilds the provider event for a replay.
func (w WebhookEvent) Event() PaymentEvent {
	ev := PaymentEvent{
		ID:                w.ID,
		Type:              w.Type,
		SessionID:         w.SessionID,
		ClientReferenceID: w.ClientReferenceID,
		PaymentIntentID:   w.PaymentIntentID,
		Paid:              w.Paid,
	}
	if w.OrderRef != "" {
		ev.Metadata = map[string]string{"order_id": w.OrderRef}
	}
	return ev
}
