package orders

import "gallery-api/internal/apperr"

// transitions lists the fulfilment moves an admin may make.
var transitions = map[string][]string{
	StatusPending:    {StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

func ValidStatus(s string) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// CheckTransition validates moving o to status "to". A pending order that
// has already been paid cannot be cancelled from here.
func CheckTransition(o Order, to string) error {
	if !ValidStatus(to) {
		return apperr.Newf(apperr.InvalidInput, "invalid order status %q", to)
	}
	if o.Status == StatusPending && o.Payment.Paid() {
		return apperr.New(apperr.Conflict, "order payment is settled but not yet processed")
	}
	for _, next := range transitions[o.Status] {
		if next == to {
			return nil
		}
	}
	return apperr.Newf(apperr.Conflict, "cannot move order from %s to %s", o.Status, to)
}
