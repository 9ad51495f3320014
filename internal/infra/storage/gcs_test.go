package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectPath(t *testing.T) {
	s := NewGCSStore(nil, "bucket", "/artworks/")
	p := s.objectPath("artwork-1.png")
	assert.True(t, strings.HasPrefix(p, "artworks/artwork-1-"), p)
	assert.True(t, strings.HasSuffix(p, ".png"), p)

	assert.NotEqual(t, p, s.objectPath("artwork-1.png"))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/b/artworks/x.png", PublicURL("b", "artworks/x.png"))
}
