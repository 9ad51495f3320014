package orders

import (
	"time"

	"gallery-api/internal/domain/money"
	"gallery-api/internal/domain/orders"
)

type CheckoutInput struct {
	ShippingAddress *orders.ShippingAddress `json:"shipping_address"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
}

// CheckoutResult is what the client needs to redirect the buyer.
type CheckoutResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
	OrderID   string `json:"order_id"`
}

type OrderItemDTO struct {
	ArtworkID string  `json:"artwork_id"`
	ArtistID  uint    `json:"artist_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
}

type PaymentDTO struct {
	Method    string     `json:"method"`
	Status    string     `json:"status"`
	SessionID *string    `json:"session_id,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

type OrderDTO struct {
	ID              string                 `json:"id"`
	UserID          uint                   `json:"user_id"`
	Items           []OrderItemDTO         `json:"items"`
	Total           float64                `json:"total"`
	Currency        string                 `json:"currency"`
	ShippingAddress orders.ShippingAddress `json:"shipping_address"`
	Status          string                 `json:"status"`
	Payment         PaymentDTO             `json:"payment"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

func ToOrderDTO(o orders.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemDTO{
			ArtworkID: it.ArtworkID,
			ArtistID:  it.ArtistID,
			Title:     it.Title,
			Price:     money.FromCents(it.PriceCents),
		})
	}
	return OrderDTO{
		ID:              o.ID,
		UserID:          o.UserID,
		Items:           items,
		Total:           money.FromCents(o.TotalCents),
		Currency:        o.Currency,
		ShippingAddress: o.Shipping,
		Status:          o.Status,
		Payment: PaymentDTO{
			Method:    o.Payment.Method,
			Status:    o.Payment.Status,
			SessionID: o.Payment.SessionID,
			PaidAt:    o.Payment.PaidAt,
		},
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func toOrderDTOs(list []orders.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(list))
	for _, o := range list {
		out = append(out, ToOrderDTO(o))
	}
	return out
}
