package stripe

import "strings"

// IsPaid normalizes a checkout session payment_status. Sessions that need no
// payment (100% discounts) count as paid.
func IsPaid(paymentStatus string) bool {
	switch strings.TrimSpace(paymentStatus) {
	case "paid", "no_payment_required":
		return true
	default:
		return false
	}
}
