package orders

import "gallery-api/internal/domain/query"

var OrderSchema = query.Schema{
	Table: "orders",
	Fields: map[string]query.Field{
		"id":               {Column: "id", Kind: query.UUID, Filterable: true},
		"user_id":          {Column: "user_id", Kind: query.Int, Filterable: true},
		"items":            {},
		"total":            {Column: "total_cents", Kind: query.Money, Filterable: true, Sortable: true},
		"currency":         {},
		"shipping_address": {},
		"status":           {Column: "status", Kind: query.Enum, Enum: Statuses, Filterable: true, Sortable: true},
		"payment_status":   {Column: "payment_status", Kind: query.Enum, Enum: []string{PaymentPending, PaymentSucceeded, PaymentFailed}, Filterable: true},
		"payment":          {},
		"created_at":       {Column: "created_at", Kind: query.Time, Filterable: true, Sortable: true},
	},
	DefaultSort: "-created_at",
}
