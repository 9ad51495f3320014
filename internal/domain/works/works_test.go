package works

import (
	"strings"
	"testing"
	"time"

	"gallery-api/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTags(t *testing.T) {
	tags, err := NormalizeTags([]string{" Abstract", "abstract", "OIL", "", "blue "})
	require.NoError(t, err)
	assert.Equal(t, []string{"abstract", "oil", "blue"}, tags)

	_, err = NormalizeTags([]string{strings.Repeat("x", MaxTagLen+1)})
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput))
}

func TestExhibitionStatusAt(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	assert.Equal(t, ExhibitionUpcoming, StatusAt(start, end, start.Add(-time.Hour)))
	assert.Equal(t, ExhibitionOngoing, StatusAt(start, end, start.Add(time.Hour)))
	assert.Equal(t, ExhibitionPast, StatusAt(start, end, end.Add(time.Hour)))
}

func TestValidateDates(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, ValidateDates(start, start.Add(time.Hour)))
	assert.True(t, apperr.IsKind(ValidateDates(start, start), apperr.InvalidInput))
	assert.True(t, apperr.IsKind(ValidateDates(start, start.Add(-time.Hour)), apperr.InvalidInput))
	assert.True(t, apperr.IsKind(ValidateDates(time.Time{}, start), apperr.InvalidInput))
}

func TestMakeSlug(t *testing.T) {
	assert.Equal(t, "modern-art-wing", MakeSlug("  Modern Art   Wing "))
	assert.Equal(t, "caf-nord", MakeSlug("Café Nord!"))
	assert.Equal(t, "gallery", MakeSlug("!!!"))
}

func TestValidStatusAndUnit(t *testing.T) {
	assert.True(t, ValidStatus(StatusNotForSale))
	assert.False(t, ValidStatus("stolen"))
	assert.True(t, ValidUnit("in"))
	assert.False(t, ValidUnit("ft"))
}
