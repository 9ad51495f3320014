package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCents(t *testing.T) {
	cents, err := ToCents(19.99)
	require.NoError(t, err)
	assert.Equal(t, int64(1999), cents)

	cents, err = ToCents(0)
	require.NoError(t, err)
	assert.Zero(t, cents)

	_, err = ToCents(-1)
	assert.Error(t, err)
	_, err = ToCents(math.NaN())
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "120.50 USD", Format(12050, "usd"))
	assert.Equal(t, "0.05 EUR", Format(5, "eur"))
	assert.Equal(t, 120.5, FromCents(12050))
}
