package media

import (
	"testing"

	"gallery-api/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

	ct, ext, err := DetectImage(png)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, ".png", ext)

	_, _, err = DetectImage([]byte("just some text, definitely not an image"))
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput))

	_, _, err = DetectImage(nil)
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput))
}

func TestImageRefIsZero(t *testing.T) {
	assert.True(t, ImageRef{}.IsZero())
	assert.False(t, ImageRef{URL: "https://storage.googleapis.com/b/a.png"}.IsZero())
}
