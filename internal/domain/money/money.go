// Package money converts between API decimal amounts and stored minor units.
package money

import (
	"fmt"
	"math"
	"strings"

	"gallery-api/internal/apperr"
)

// ToCents converts a decimal amount to integer minor units.
func ToCents(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return 0, apperr.New(apperr.InvalidInput, "price must be a non-negative number")
	}
	if amount > 1e12 {
		return 0, apperr.New(apperr.InvalidInput, "price is too large")
	}
	return int64(math.Round(amount * 100)), nil
}

func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// Format renders cents for humans, e.g. "120.50 USD".
func Format(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, strings.ToUpper(currency))
}
